package main

import (
	"os"

	"github.com/Deyond-Management/deyondcrypt/cmd/deyondcrypt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
