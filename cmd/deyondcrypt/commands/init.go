package commands

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/util/memzero"
)

func initCmd() *cobra.Command {
	var chain string
	cmd := &cobra.Command{
		Use:   "init <wallet-private-key-hex>",
		Short: "Derive the messaging identity from a wallet private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("decoding wallet key: %w", err)
			}
			defer memzero.Zero(seed)

			id, err := wire.Identity.Derive(cmd.Context(), seed, domain.ChainType(chain))
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nChain:   %s\nAddress: %s\n", id.Chain, id.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", string(domain.ChainEVM), "chain family (evm or solana)")
	return cmd
}
