package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Deyond-Management/deyondcrypt/internal/content"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/envelope"
)

// encrypt <session-id> <message>: ratchet the session forward and print
// the sealed envelope as JSON.
func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <session-id> <message>",
		Short: "Encrypt a message for an established session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := content.Encode(content.NewText(args[1]))
			if err != nil {
				return err
			}
			env, err := wire.Sessions.Encrypt(cmd.Context(), domain.SessionID(args[0]), pt)
			if err != nil {
				return err
			}
			out, err := envelope.Encode(env)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
