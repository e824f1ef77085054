// Package cmd provides the knative-http-core CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fxsml/knative-http-core/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "knative-http-core",
	Short: "Knative HTTP transport core",
	Long: `knative-http-core is a standalone binary for the Knative HTTP
transport core: an inbound dispatcher that decodes CloudEvents against a
registry of routing-engine consumers, and an outbound producer that
encodes and delivers them to sinks declared in an environment file.

Configuration is loaded from knative-http-core.yaml in the current
directory or /etc/knative-http-core/, with KNATIVE_HTTP_ environment
variable overrides.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./knative-http-core.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
