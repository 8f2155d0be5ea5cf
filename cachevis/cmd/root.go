// Package cmd provides the command-line interface for cachevis.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "cachevis",
	Short: "Cachevis simulates hardware memory caches for educational " +
		"visualization.",
	Long: `Cachevis simulates direct-mapped and fully-associative memory ` +
		`caches, tracing every decision an access goes through. It can ` +
		`serve interactive simulation sessions over HTTP, replay address ` +
		`traces from files, and report on recorded access logs.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
