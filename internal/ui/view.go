package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/version"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.form != nil {
		return m.renderForm()
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if line := m.renderNotices(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderTab())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{styles.Logo.Render("harbor")}
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == TabUpdates && m.snap.updates.State.Available {
			label += " •"
		}
		if Tab(i) == m.tab {
			parts = append(parts, styles.TabActive.Render(label))
		} else {
			parts = append(parts, styles.TabIdle.Render(label))
		}
	}

	svc := m.snap.service
	dot := styles.DangerText.Render("● stopped")
	if svc.Status.Running {
		dot = styles.SuccessText.Render("● running")
	}
	parts = append(parts, dot)
	return styles.Header.Width(m.contentWidth()).Render(lipgloss.JoinHorizontal(lipgloss.Top, joinSpaced(parts)...))
}

func joinSpaced(parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, p)
	}
	return out
}

func (m Model) renderNotices() string {
	styles := m.theme.Styles()
	var lines []string
	if m.showTutorial {
		lines = append(lines, styles.AccentText.Render(
			"Welcome to Harbor. Rules move new downloads into folders by extension. Press a on Rules to add one, ? for keys, enter to hide this."))
	}
	if m.banner != "" {
		lines = append(lines, styles.Banner.Render(m.banner))
	}
	if m.toast != "" {
		lines = append(lines, styles.Toast.Render(m.toast))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTab() string {
	switch m.tab {
	case TabRules:
		return m.renderRules()
	case TabActivity:
		return m.renderActivity()
	case TabService:
		return m.renderService()
	case TabUpdates:
		return m.renderUpdates()
	}
	return ""
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	tabKeys := m.help.ShortHelpView(m.keys.tabHelp(m.tab))
	global := m.help.ShortHelpView(m.keys.ShortHelp())
	return styles.Footer.Render(tabKeys + "\n" + global)
}

// statusLine renders the spinner and the store error, if any.
func (m Model) statusLine(loading bool, errMsg string) string {
	styles := m.theme.Styles()
	var parts []string
	if loading {
		parts = append(parts, m.spinner.View()+" loading")
	}
	if errMsg != "" {
		parts = append(parts, styles.DangerText.Render("error: "+errMsg))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderRules() string {
	styles := m.theme.Styles()
	snap := m.snap.rules
	width := m.contentWidth()

	var b strings.Builder
	if line := m.statusLine(snap.Loading, snap.Error); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(snap.Rules) == 0 {
		b.WriteString(styles.MutedText.Render("No rules yet. Press a to add one."))
		return b.String()
	}

	for i, r := range snap.Rules {
		state := styles.SuccessText.Render("on ")
		if !r.Enabled {
			state = styles.FaintText.Render("off")
		}
		exts := truncate(strings.Join(r.Extensions, " "), 24)
		line := fmt.Sprintf("%2d  %s  %-20s %-24s → %s", i+1, state, truncate(r.Name, 20), exts, truncateMiddle(r.Destination, maxInt(width-60, 12)))
		if r.CreateSymlink {
			line += styles.FaintText.Render("  ⇄ symlink")
		}
		if i == m.ruleCursor {
			line = styles.Selected.Render(padRight(line, width))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderActivity() string {
	styles := m.theme.Styles()
	snap := m.snap.activity
	width := m.contentWidth()

	var b strings.Builder
	if s := snap.Stats; s != nil {
		summary := fmt.Sprintf("%d moved total · %d today · %d this week", s.TotalFilesMoved, s.FilesMovedToday, s.FilesMovedThisWeek)
		if s.MostActiveRule != nil && *s.MostActiveRule != "" {
			summary += " · most active: " + *s.MostActiveRule
		}
		b.WriteString(styles.AccentText.Render(summary))
		b.WriteString("\n")
	}
	if line := m.statusLine(snap.Loading, snap.Error); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(snap.Entries) == 0 {
		b.WriteString(styles.MutedText.Render("No activity yet."))
		return b.String()
	}

	rows := m.height - 10
	if rows < 5 {
		rows = 5
	}
	end := min(m.activityOffset+rows, len(snap.Entries))
	for i := m.activityOffset; i < end; i++ {
		e := snap.Entries[i]
		status := e.Status
		if !status.Valid() {
			status = api.StatusError
		}
		when := ""
		if t := e.ParsedTime(); !t.IsZero() {
			when = humanizeAgo(time.Since(t))
		}
		line := fmt.Sprintf("%s %-9s %-28s %s", styles.StatusStyle(status).Render(padRight(string(status), 8)), when, truncate(e.Filename, 28), truncateMiddle(e.DestPath, maxInt(width-52, 12)))
		b.WriteString(line)
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("showing %d of %d", len(snap.Entries), snap.Total)
	if snap.HasMore {
		footer += " · m for more"
	}
	b.WriteString(styles.FaintText.Render(footer))
	return b.String()
}

func (m Model) renderService() string {
	styles := m.theme.Styles()
	snap := m.snap.service

	var b strings.Builder
	if line := m.statusLine(snap.Loading, snap.Error); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	row := func(label, value string) {
		b.WriteString(styles.MutedText.Width(18).Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	state := styles.DangerText.Render("stopped")
	if snap.Status.Running {
		state = styles.SuccessText.Render("running")
		if up := snap.Status.Uptime(); up > 0 {
			state += styles.FaintText.Render("  up " + humanizeDuration(up))
		}
	}
	if snap.TogglingService {
		state += " " + m.spinner.View()
	}
	row("Service", state)

	startup := "off"
	if snap.StartupEnabled {
		startup = "on"
	}
	if snap.TogglingStartup {
		startup += " " + m.spinner.View()
	}
	row("Launch at startup", startup)
	row("Download folder", ternary(snap.DownloadDir == "", styles.FaintText.Render("unknown"), snap.DownloadDir))

	if snap.Organizing {
		row("Organize", m.spinner.View()+" organizing")
	}
	if !snap.LastPolled.IsZero() {
		polled := humanizeAgo(time.Since(snap.LastPolled))
		if snap.ConsecutiveFailures > 0 {
			polled += styles.WarningText.Render(fmt.Sprintf("  (%d failed polls)", snap.ConsecutiveFailures))
		}
		row("Last poll", polled)
	}
	return b.String()
}

func (m Model) renderUpdates() string {
	styles := m.theme.Styles()
	snap := m.snap.updates
	st := snap.State

	var b strings.Builder
	if line := m.statusLine(st.Loading, st.Error); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	row := func(label, value string) {
		b.WriteString(styles.MutedText.Width(18).Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Running version", version.Current())
	switch {
	case !snap.Loaded:
		row("Status", styles.FaintText.Render("loading settings"))
	case !st.Checked:
		row("Status", styles.FaintText.Render("not checked yet"))
	case st.HasUpdate:
		row("Latest", styles.SuccessText.Render(st.Version)+ternary(st.Available, "", styles.FaintText.Render("  (dismissed)")))
		if st.URL != "" {
			row("Release", st.URL)
		}
	default:
		row("Status", "up to date ("+st.Version+")")
	}
	row("Automatic checks", ternary(snap.CheckForUpdates, "on", "off"))
	if snap.LastNotifiedVersion != "" {
		row("Last notified", snap.LastNotifiedVersion)
	}
	return b.String()
}

// overlay centers content in a bordered modal.
func (m Model) overlay(content string, width int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 2).
		Width(width)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("theme %s · window %s", m.theme.Name, m.windowSize.Label)))

	return m.overlay(b.String(), 100)
}
