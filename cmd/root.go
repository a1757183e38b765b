package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/classpulse/embedapi/cmd/users"
	"github.com/classpulse/embedapi/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "embedapi",
	Short: "Authentication and Power BI embed token API",
	Long: `embedapi authenticates portal users, maintains their session via a
cross-site cookie, and brokers row-level-security scoped Power BI embed
tokens for the reporting frontend.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
