package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List established sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sums, err := wire.Sessions.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sums {
				fmt.Printf("%s  %s (%s)  messages=%d\n", s.ID, s.RemoteAddress, s.RemoteChain, s.MessageCount)
			}
			return nil
		},
	}
}
