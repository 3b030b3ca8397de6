// Package cmd implements the CLI commands for keyword-tracker.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "keyword-tracker",
	Short: "Estimate keyword search volume and difficulty",
	Long: "An API-first service that samples a product catalog to estimate views, " +
		"difficulty and cost for keywords, and records metrics for tracked tasks on a schedule.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
