// Package main is the entry point for the dotledger CLI.
package main

import (
	"os"

	"github.com/polagate/dotledger/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
