// Package cmd implements the kwt CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/keyword-tracker/internal/api/client"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "kwt",
		Short: "CLI client for keyword-tracker",
		Long: "kwt is a command-line client for the keyword-tracker API.\n" +
			"It estimates keyword metrics on demand, manages tracking tasks,\n" +
			"and triggers batch runs from the terminal.",
		Version:      Version,
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/kwt/config.yaml)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(quotaCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "kwt"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("KWT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Version is set at build time via ldflags.
var Version = "dev"

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"), apiclient.WithUserAgent("kwt/"+Version))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
