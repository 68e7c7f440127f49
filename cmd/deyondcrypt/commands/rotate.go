package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func rotateCmd() *cobra.Command {
	var opks int
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the signed pre-key and top up one-time pre-keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			spk, err := wire.Prekey.RotateSignedPreKey(cmd.Context())
			if err != nil {
				return err
			}
			if err := wire.Prekey.ReplenishOneTimePreKeys(cmd.Context(), opks); err != nil {
				return err
			}
			remaining, err := wire.Prekey.RemainingOneTimePreKeys(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Signed pre-key: %s\nOne-time pre-keys available: %d\n", spk.ID, remaining)
			return nil
		},
	}
	cmd.Flags().IntVar(&opks, "one-time-keys", 10, "one-time pre-keys to add")
	return cmd
}
