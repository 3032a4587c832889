// Package main is the entry point for the basehelp CLI.
package main

import (
	"os"

	"github.com/basehelp/basehelp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
