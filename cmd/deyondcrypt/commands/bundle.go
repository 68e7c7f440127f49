package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func bundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle",
		Short: "Print the public pre-key bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := wire.Prekey.Bundle(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(bundle, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
