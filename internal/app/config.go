package app

import "github.com/sirupsen/logrus"

// Config holds runtime wiring options for building the app.
type Config struct {
	// DataDir is the on-disk state directory, e.g. $HOME/.deyondcrypt.
	// Empty selects the in-memory stores.
	DataDir string

	// MaxSkip bounds out-of-order message recovery for both 1:1 and
	// group chains. Zero selects the protocol defaults.
	MaxSkip int

	// Logger is optional; defaults to a fresh logrus logger.
	Logger *logrus.Logger
}
