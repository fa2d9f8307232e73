package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coindeck",
	Short: "Live cryptocurrency price deck",
	Long: `A live cryptocurrency price dashboard backed by a market-data
gateway.

The server proxies a third-party listings API behind a single cached
endpoint, keeping the provider credential server-side. The watch
command renders the top assets in the terminal, refreshing on a fixed
cadence, and can simulate a purchase against the current snapshot.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
