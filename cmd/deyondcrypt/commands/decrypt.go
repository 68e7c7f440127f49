package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Deyond-Management/deyondcrypt/internal/content"
	"github.com/Deyond-Management/deyondcrypt/internal/envelope"
)

// decrypt [envelope.json]: open an envelope from a file, or stdin when
// no argument is given, and print the plaintext.
func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [envelope.json]",
		Short: "Decrypt an envelope from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			env, err := envelope.Decode(raw)
			if err != nil {
				return err
			}
			pt, err := wire.Sessions.Decrypt(cmd.Context(), env)
			if err != nil {
				return err
			}
			c, err := content.Decode(pt)
			if err != nil {
				return err
			}
			switch c.Type {
			case content.TypeText:
				fmt.Printf("[%s] %s\n", env.Sender.Address, c.Text.Body)
			default:
				fmt.Printf("[%s] <%s message>\n", env.Sender.Address, c.Type)
			}
			return nil
		},
	}
}
