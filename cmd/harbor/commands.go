package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/app"
	"github.com/five82/harbor/internal/logging"
	"github.com/five82/harbor/internal/notify"
	"github.com/five82/harbor/internal/version"
)

// withComponents builds the stores for a single headless command. Logs go
// to stderr.
func withComponents(fn func(*app.Components) error) error {
	cfg, err := app.LoadConfig(opts)
	if err != nil {
		return err
	}
	if err := logging.Configure(logging.Options{Level: cfg.LogLevel}); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	c, err := app.Build(cfg, notify.Log{Logger: logging.NewLogger("notify")})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the organizer service status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *app.Components) error {
			c.Service.Load(cmd.Context())
			snap := c.Service.Snapshot()
			if snap.Error != "" {
				return errors.New(snap.Error)
			}
			printStatus(cmd.OutOrStdout(), snap.Status, snap.StartupEnabled, snap.DownloadDir)
			return nil
		})
	},
}

func printStatus(out io.Writer, status api.ServiceStatus, startup bool, dir string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	state := "stopped"
	if status.Running {
		state = fmt.Sprintf("running (up %s)", status.Uptime())
	}
	fmt.Fprintf(w, "Service:\t%s\n", state)
	fmt.Fprintf(w, "Launch at startup:\t%t\n", startup)
	fmt.Fprintf(w, "Download folder:\t%s\n", dir)
	_ = w.Flush()
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List organizing rules in priority order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *app.Components) error {
			c.Rules.Load(cmd.Context())
			snap := c.Rules.Snapshot()
			if snap.Error != "" {
				return errors.New(snap.Error)
			}
			printRules(cmd.OutOrStdout(), snap.Rules)
			return nil
		})
	},
}

func init() {
	rulesCmd.AddCommand(ruleToggleCmd("enable", true), ruleToggleCmd("disable", false))
}

func ruleToggleCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RULE",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(func(c *app.Components) error {
				if err := c.Rules.SetEnabled(cmd.Context(), args[0], enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%sd %s\n", strings.ToUpper(use[:1])+use[1:], args[0])
				return nil
			})
		},
	}
}

func printRules(out io.Writer, rules []api.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(out, "No rules configured")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tEXTENSIONS\tDESTINATION\tENABLED")
	for i, r := range rules {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", i+1, r.Name, strings.Join(r.Extensions, " "), r.Destination, r.Enabled)
	}
	_ = w.Flush()
}

var (
	activityPages int
	activityClear bool
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent file moves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *app.Components) error {
			ctx := cmd.Context()
			if activityClear {
				if err := c.Activity.Clear(ctx); err != nil {
					return fmt.Errorf("clear activity: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Activity log cleared")
				return nil
			}

			c.Activity.Refresh(ctx)
			for i := 1; i < activityPages && c.Activity.Snapshot().HasMore; i++ {
				c.Activity.LoadMore(ctx)
			}
			snap := c.Activity.Snapshot()
			if snap.Error != "" {
				return errors.New(snap.Error)
			}
			printActivity(cmd.OutOrStdout(), snap.Entries, snap.Stats, snap.Total)
			return nil
		})
	},
}

func init() {
	activityCmd.Flags().IntVarP(&activityPages, "pages", "n", 1, "number of pages to fetch")
	activityCmd.Flags().BoolVar(&activityClear, "clear", false, "clear the activity log")
}

func printActivity(out io.Writer, entries []api.LogEntry, stats *api.Stats, total int) {
	if stats != nil {
		fmt.Fprintf(out, "Moved today: %d, this week: %d, total: %d\n\n",
			stats.FilesMovedToday, stats.FilesMovedThisWeek, stats.TotalFilesMoved)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No activity yet")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATUS\tFILE\tRULE\tDESTINATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp, e.Status, e.Filename, e.RuleName, e.DestPath)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\nShowing %d of %d\n", len(entries), total)
}

var checkUpdateCmd = &cobra.Command{
	Use:   "check-update",
	Short: "Check for a newer Harbor release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(func(c *app.Components) error {
			if err := c.Updates.CheckNow(cmd.Context()); err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}
			state := c.Updates.Snapshot().State
			if !state.HasUpdate {
				fmt.Fprintf(cmd.OutOrStdout(), "Harbor %s is up to date\n", version.Current())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Harbor %s is available (running %s)\n%s\n", state.Version, version.Current(), state.URL)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of harbor",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().String())
	},
}
