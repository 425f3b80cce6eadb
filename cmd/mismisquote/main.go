// Package main is the entry point for mismisquote.
package main

import (
	"os"

	"github.com/tahyonline/mismisquote/cmd/mismisquote/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
