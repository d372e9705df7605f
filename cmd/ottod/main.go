// Package main is the entry point for ottod, the otto daemon.
package main

import (
	"os"

	"github.com/concave-dev/otto/cmd/ottod/commands"
)

func main() {
	commands.SetupCommands()
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
