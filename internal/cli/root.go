package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "surveyid",
		Short: "CLI tool for the survey identity API",
		Long: `surveyid is a CLI tool for interacting with the survey identity JSON API.

It supports registration, login, session management, password recovery
and profile operations. Session cookies are persisted between runs, so
a login carries over to later commands.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			client, err = NewClient(cfg.ServerURL, cfg.CookieFile)
			return err
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SURVEYID_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.CookieFile, "cookie-file", cfg.CookieFile, "Cookie file path (env: SURVEYID_COOKIE_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
