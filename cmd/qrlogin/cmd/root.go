package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "qrlogin",
	Short: "Log crawl accounts into their platforms by QR code",
	Long: `qrlogin issues a platform QR code, waits in the terminal until it is
scanned and confirmed, prompts for a verification code when the platform asks
for one, and stores the resulting session on the crawl account.

Database, Redis and driver settings come from config.toml and DVD_* variables.
Resuming a login by token from another process needs the Redis stores.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}
