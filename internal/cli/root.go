package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	output string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "matchclient",
		Short: "Match lifecycle client",
		Long: `matchclient runs one participant of a multiplayer match: sign-in,
profile loading, lobby readiness, host/client negotiation and the match
itself. Run it without --join to host, or with --join to connect to a
running host.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.PlayerName, "name", cfg.PlayerName, "Display name (env: MATCHCORE_PLAYER_NAME)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output (env: MATCHCORE_VERBOSE)")

	rootCmd.AddCommand(newPlayCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
