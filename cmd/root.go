// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "namespace-stats",
	Short: "A CLI tool and API for Namespace platform statistics and GitHub contributor reports.",
	Long: `namespace-stats aggregates the Namespace platform statistics (subnames, listings,
registries, resolutions) into a dashboard, and builds contributor reports over every
repository of a GitHub user or organization. Contributor reports are cached.

Run "namespace-stats serve" to expose everything as a JSON API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
}
