// Package main provides the CLI for the promptc weighted prompt compiler.
package main

import (
	"os"

	"github.com/luminal-labs/promptc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
