// Command takas serves the listings API and runs the listing translation
// workflow from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/takascemberi/takas/internal/config"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "takas",
		Short: "Takas Çemberi listings service",
		Long: `takas serves the listings API of the Takas Çemberi barter marketplace
and fills in English and Arabic translations of Turkish listings.

Commands:
  serve       Run the HTTP API
  translate   Translate one listing, or every pending active listing
  useradd     Create an operator account

Settings are read from takas.yaml, then .env, then the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")

	root.AddCommand(
		newServeCmd(),
		newTranslateCmd(),
		newUseraddCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
