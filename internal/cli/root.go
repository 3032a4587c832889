// Package cli implements the basehelp command line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/basehelp/basehelp/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"  _                    _          _\n" +
		" | |__   __ _ ___  ___| |__   ___| |_ __\n" +
		" | '_ \\ / _` / __|/ _ \\ '_ \\ / _ \\ | '_ \\\n" +
		" | |_) | (_| \\__ \\  __/ | | |  __/ | |_) |\n" +
		" |_.__/ \\__,_|___/\\___|_| |_|\\___|_| .__/\n" +
		"                                   |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "basehelp",
	Short: "basehelp - multi-tenant knowledge-base chatbot",
	Long:  color.CyanString(logo) + "\nAnswers questions over a tenant's knowledge base and replies in Slack.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the basehelp version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("basehelp", version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tenantCmd)
}
