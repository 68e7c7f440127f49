package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// startSessionCmd runs the X3DH handshake against a peer's pre-key
// bundle read from a JSON file and persists a new session.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <bundle.json>",
		Short: "Establish a session from a peer's bundle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var bundle domain.PreKeyBundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return fmt.Errorf("decoding bundle: %w", err)
			}

			sess, _, err := wire.Sessions.Initiate(cmd.Context(), bundle)
			if err != nil {
				return fmt.Errorf("starting session with %s: %w", bundle.Address, err)
			}
			fmt.Printf("Session %s created with %s\n", sess.ID, sess.RemoteAddress)
			return nil
		},
	}
}
