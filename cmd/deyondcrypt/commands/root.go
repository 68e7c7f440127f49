package commands

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Deyond-Management/deyondcrypt/internal/app"
)

var (
	dataDir string
	verbose bool
	wire    *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "deyondcrypt",
		Short: "End-to-end encryption core for wallet-identified peers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				dataDir = filepath.Join(dir, ".deyondcrypt")
			}
			if err := os.MkdirAll(dataDir, 0o700); err != nil {
				return err
			}

			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			var err error
			wire, err = app.NewWire(app.Config{DataDir: dataDir, Logger: log})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire == nil {
				return nil
			}
			return wire.Close()
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "state dir (default ~/.deyondcrypt)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		initCmd(), identityCmd(), rotateCmd(), bundleCmd(),
		startSessionCmd(), encryptCmd(), decryptCmd(), sessionsCmd(),
	)
	return root.Execute()
}
