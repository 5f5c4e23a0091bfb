package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/harbor/internal/app"
	"github.com/five82/harbor/internal/version"
)

var opts app.Options

var rootCmd = &cobra.Command{
	Use:     "harbor",
	Short:   "Terminal client for the Harbor download organizer",
	Version: version.Current(),
	Long: `harbor shows and edits the rules, activity log and service state of a
running Harbor download organizer. Without a subcommand it starts the
interactive terminal UI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "override harbor config path (default ~/.config/harbor/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&opts.Gateway, "gateway", "g", "", "service address, host:port or ws:// URL (optional)")
	rootCmd.Flags().IntVar(&opts.PollEvery, "poll", 0, "status poll interval in seconds (optional, defaults to 5s)")

	rootCmd.AddCommand(statusCmd, rulesCmd, activityCmd, checkUpdateCmd, versionCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "harbor: %v\n", err)
		return 1
	}
	return 0
}
