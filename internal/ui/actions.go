package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/rules"
)

func (m Model) handleRulesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := m.snap.rules.Rules
	switch {
	case key.Matches(msg, m.keys.AddRule):
		m.form = newRuleForm(m.theme)
		return m, m.form.focusCmd()
	case key.Matches(msg, m.keys.Up):
		if m.ruleCursor > 0 {
			m.ruleCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.ruleCursor < len(list)-1 {
			m.ruleCursor++
		}
		return m, nil
	}

	if m.rules == nil || m.ruleCursor >= len(list) {
		return m, nil
	}
	ctx, store := m.ctx, m.rules
	selected := list[m.ruleCursor]

	switch {
	case key.Matches(msg, m.keys.ToggleRule):
		enabled := !selected.Enabled
		return m, run("Toggle rule", func() (string, error) {
			return "", store.SetEnabled(ctx, selected.ID, enabled)
		})
	case key.Matches(msg, m.keys.DeleteRule):
		return m, run("Delete rule", func() (string, error) {
			if err := store.Remove(ctx, selected.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deleted %s", selected.Name), nil
		})
	case key.Matches(msg, m.keys.MoveUp):
		if m.ruleCursor == 0 {
			return m, nil
		}
		ids := swapped(list, m.ruleCursor, m.ruleCursor-1)
		m.ruleCursor--
		return m, reorderCmd(m, store, ids)
	case key.Matches(msg, m.keys.MoveDown):
		if m.ruleCursor >= len(list)-1 {
			return m, nil
		}
		ids := swapped(list, m.ruleCursor, m.ruleCursor+1)
		m.ruleCursor++
		return m, reorderCmd(m, store, ids)
	}
	return m, nil
}

func reorderCmd(m Model, store *rules.Store, ids []string) tea.Cmd {
	ctx := m.ctx
	return run("Reorder", func() (string, error) {
		return "", store.Reorder(ctx, ids)
	})
}

func (m Model) handleActivityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.snap.activity.Entries
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.activityOffset > 0 {
			m.activityOffset--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.activityOffset < len(entries)-1 {
			m.activityOffset++
		}
		return m, nil
	}

	if m.activity == nil {
		return m, nil
	}
	ctx, store := m.ctx, m.activity

	switch {
	case key.Matches(msg, m.keys.LoadMore):
		return m, run("Load more", func() (string, error) {
			store.LoadMore(ctx)
			return "", nil
		})
	case key.Matches(msg, m.keys.ClearLog):
		m.activityOffset = 0
		return m, run("Clear activity", func() (string, error) {
			if err := store.Clear(ctx); err != nil {
				return "", err
			}
			return "Activity cleared", nil
		})
	}
	return m, nil
}

func (m Model) handleServiceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, nil
	}
	ctx, store := m.ctx, m.service

	switch {
	case key.Matches(msg, m.keys.ToggleService):
		return m, run("Toggle service", func() (string, error) {
			return "", store.ToggleService(ctx)
		})
	case key.Matches(msg, m.keys.ToggleStartup):
		return m, run("Toggle startup", func() (string, error) {
			return "", store.ToggleStartup(ctx)
		})
	case key.Matches(msg, m.keys.Organize):
		return m, run("Organize", func() (string, error) {
			moved, err := store.OrganizeNow(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Organized %d file%s", moved, plural(moved)), nil
		})
	case key.Matches(msg, m.keys.Reload):
		return m, run("Reload config", func() (string, error) {
			return "Configuration reloaded", store.Reload(ctx)
		})
	case key.Matches(msg, m.keys.Reset):
		return m, run("Reset to defaults", func() (string, error) {
			return "Defaults restored", store.ResetToDefaults(ctx)
		})
	}
	return m, nil
}

func (m Model) handleUpdatesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.updates == nil {
		return m, nil
	}
	ctx, store := m.ctx, m.updates

	switch {
	case key.Matches(msg, m.keys.CheckNow):
		return m, run("Update check", func() (string, error) {
			return "", store.CheckNow(ctx)
		})
	case key.Matches(msg, m.keys.ToggleUpdates):
		store.SetCheckForUpdates(!m.snap.updates.CheckForUpdates)
		m.snap.updates = store.Snapshot()
		return m, nil
	case key.Matches(msg, m.keys.DismissUpdate):
		store.DismissNotification()
		m.snap.updates = store.Snapshot()
		return m, nil
	}
	return m, nil
}

// swapped returns the rule ids with positions i and j exchanged.
func swapped(list []api.Rule, i, j int) []string {
	ids := make([]string, len(list))
	for n, r := range list {
		ids[n] = r.ID
	}
	ids[i], ids[j] = ids[j], ids[i]
	return ids
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
