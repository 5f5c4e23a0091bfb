package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/five82/harbor/internal/app"
	"github.com/five82/harbor/internal/logtail"
)

var (
	logsLines     int
	logsLevel     string
	logsComponent string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the end of the Harbor log file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(opts)
		if err != nil {
			return err
		}
		minLevel, err := logrus.ParseLevel(logsLevel)
		if err != nil {
			return fmt.Errorf("parse --level: %w", err)
		}
		lines, err := logtail.Read(cfg.LogFile, logsLines)
		if err != nil {
			return err
		}
		entries := make([]logtail.Entry, 0, len(lines))
		for _, line := range lines {
			entries = append(entries, logtail.Parse(line))
		}
		entries = logtail.Filter(entries, minLevel, logsComponent)

		out := cmd.OutOrStdout()
		color := false
		if f, ok := out.(*os.File); ok {
			color = isatty.IsTerminal(f.Fd())
		}
		printLogs(out, entries, color)
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 200, "number of lines to read from the end of the file")
	logsCmd.Flags().StringVar(&logsLevel, "level", "debug", "minimum level to show")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "only show this component (rules, activity, service, update, ...)")
	rootCmd.AddCommand(logsCmd)
}

var levelColors = map[logrus.Level]lipgloss.Color{
	logrus.DebugLevel: lipgloss.Color("#63cdcf"),
	logrus.InfoLevel:  lipgloss.Color("#81b29a"),
	logrus.WarnLevel:  lipgloss.Color("#dbc074"),
	logrus.ErrorLevel: lipgloss.Color("#c94f6d"),
}

func printLogs(out io.Writer, entries []logtail.Entry, color bool) {
	faint := lipgloss.NewStyle().Foreground(lipgloss.Color("#738091"))
	for _, e := range entries {
		if e.Time == "" {
			fmt.Fprintln(out, e.Raw)
			continue
		}
		level := strings.ToUpper(e.Level.String())
		if len(level) > 4 {
			level = level[:4]
		}
		component := ""
		if e.Component != "" {
			component = "[" + e.Component + "] "
		}
		extra := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			extra = append(extra, k+"="+v)
		}
		slices.Sort(extra)
		line := e.Message
		if len(extra) > 0 {
			line += " " + strings.Join(extra, " ")
		}
		if color {
			fmt.Fprintf(out, "%s %s %s%s\n",
				faint.Render(e.Time),
				lipgloss.NewStyle().Foreground(levelColors[e.Level]).Bold(true).Render(level),
				faint.Render(component),
				line)
			continue
		}
		fmt.Fprintf(out, "%s %s %s%s\n", e.Time, level, component, line)
	}
}
