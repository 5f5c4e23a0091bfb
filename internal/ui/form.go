package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/harbor/internal/api"
)

const (
	fieldName = iota
	fieldExtensions
	fieldDestination
	fieldPattern
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Extensions", "Destination", "Pattern"}

// ruleForm collects a new rule.
type ruleForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newRuleForm(theme Theme) *ruleForm {
	f := &ruleForm{}
	placeholders := [fieldCount]string{"Documents", ".pdf, .docx", "~/Documents", "optional regex"}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 256
		in.Width = 40
		in.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))
		f.inputs[i] = in
	}
	f.inputs[fieldName].Focus()
	return f
}

func (f *ruleForm) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (f *ruleForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// draft validates the inputs and builds a RuleDraft.
func (f *ruleForm) draft() (api.RuleDraft, error) {
	name := strings.TrimSpace(f.inputs[fieldName].Value())
	if name == "" {
		return api.RuleDraft{}, errors.New("name is required")
	}
	exts := api.NormalizeExtensions(strings.Split(f.inputs[fieldExtensions].Value(), ","))
	if len(exts) == 0 {
		return api.RuleDraft{}, errors.New("at least one extension is required")
	}
	dest := strings.TrimSpace(f.inputs[fieldDestination].Value())
	if dest == "" {
		return api.RuleDraft{}, errors.New("destination is required")
	}
	draft := api.RuleDraft{Name: name, Extensions: exts, Destination: dest}
	if pattern := strings.TrimSpace(f.inputs[fieldPattern].Value()); pattern != "" {
		draft.Pattern = &pattern
	}
	return draft, nil
}

// preview shows the icon the service will assign.
func (f *ruleForm) preview() string {
	exts := api.NormalizeExtensions(strings.Split(f.inputs[fieldExtensions].Value(), ","))
	if len(exts) == 0 {
		return ""
	}
	icon, color := api.IconFor(exts[0])
	return fmt.Sprintf("%s (%s)", icon, color)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "enter":
		if f.focus < fieldCount-1 {
			f.move(1)
			return m, nil
		}
		draft, err := f.draft()
		if err != nil {
			f.err = err.Error()
			return m, nil
		}
		m.form = nil
		if m.rules == nil {
			return m, nil
		}
		ctx, store := m.ctx, m.rules
		return m, run("Add rule", func() (string, error) {
			created, err := store.Add(ctx, draft)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %s", created.Name), nil
		})
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.err = ""
	return m, cmd
}

func (m Model) renderForm() string {
	f := m.form
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("New rule"))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Width(13).Render(fieldLabels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if p := f.preview(); p != "" {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("Icon: " + p))
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("tab next field · enter save · esc cancel"))

	return m.overlay(b.String(), 64)
}
