package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Deyond-Management/deyondcrypt/internal/util/fingerprint"
)

func identityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print the local messaging identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.Identity.Identity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Chain:       %s\nAddress:     %s\nPublic key:  %x\nFingerprint: %s\n",
				id.Chain, id.Address, id.PublicKey, fingerprint.Of(id.PublicKey))
			return nil
		},
	}
}
