// guardian is the command line front end of the futures engine
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	output     string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "guardian",
		Short: "Guardian futures engine CLI",
		Long: `guardian evaluates USDT-M perpetuals with the same pipeline the API
serves, manages the symbol universe and issues API credentials.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "Path to the optional JSON config file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(universeCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(hashKeyCmd())
	rootCmd.AddCommand(syncRequirementsCmd())
	rootCmd.AddCommand(initConfigCmd())
	rootCmd.AddCommand(decodeIDCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
