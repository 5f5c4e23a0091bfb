package api

import (
	"context"
	"fmt"

	"github.com/five82/harbor/internal/gateway"
)

// Client exposes the Harbor service operations as typed methods.
type Client struct {
	gw gateway.Gateway
}

// NewClient wraps gw.
func NewClient(gw gateway.Gateway) *Client {
	return &Client{gw: gw}
}

func (c *Client) invoke(ctx context.Context, command string, payload, result any) error {
	if c == nil || c.gw == nil {
		return fmt.Errorf("client is nil")
	}
	return c.gw.Invoke(ctx, command, payload, result)
}

// FetchRules returns every rule in priority order.
func (c *Client) FetchRules(ctx context.Context) ([]Rule, error) {
	var rules []Rule
	if err := c.invoke(ctx, CmdGetRules, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRule creates a rule and returns it with its assigned id and icon.
func (c *Client) CreateRule(ctx context.Context, draft RuleDraft) (Rule, error) {
	var rule Rule
	if err := c.invoke(ctx, CmdCreateRule, draft, &rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// UpdateRule applies patch and returns the updated rule.
func (c *Client) UpdateRule(ctx context.Context, patch RulePatch) (Rule, error) {
	if patch.ID == "" {
		return Rule{}, fmt.Errorf("rule id required")
	}
	var rule Rule
	if err := c.invoke(ctx, CmdUpdateRule, patch, &rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// DeleteRule removes the rule with the given id.
func (c *Client) DeleteRule(ctx context.Context, id string) error {
	return c.invoke(ctx, CmdDeleteRule, ruleNameArgs{RuleName: id}, nil)
}

// ToggleRule enables or disables a rule.
func (c *Client) ToggleRule(ctx context.Context, id string, enabled bool) error {
	return c.invoke(ctx, CmdToggleRule, toggleRuleArgs{RuleName: id, Enabled: enabled}, nil)
}

// ReorderRules stores a new rule priority order.
func (c *Client) ReorderRules(ctx context.Context, ids []string) error {
	return c.invoke(ctx, CmdReorderRules, reorderArgs{RuleNames: ids}, nil)
}

// FetchDownloadDir returns the directory the service organizes.
func (c *Client) FetchDownloadDir(ctx context.Context) (string, error) {
	return gateway.Call[string](ctx, c.gw, CmdGetDownloadDir, nil)
}

// ResetToDefaults replaces the service configuration with its defaults.
func (c *Client) ResetToDefaults(ctx context.Context) error {
	return c.invoke(ctx, CmdResetToDefaults, nil, nil)
}

// FetchActivityLogs returns one page of activity, newest first.
func (c *Client) FetchActivityLogs(ctx context.Context, limit, offset int) (LogPage, error) {
	if limit <= 0 {
		return LogPage{}, fmt.Errorf("limit must be positive")
	}
	if offset < 0 {
		return LogPage{}, fmt.Errorf("offset must not be negative")
	}
	var page LogPage
	if err := c.invoke(ctx, CmdGetActivityLogs, pageArgs{Limit: limit, Offset: offset}, &page); err != nil {
		return LogPage{}, err
	}
	return page, nil
}

// FetchActivityStats returns aggregate move counters.
func (c *Client) FetchActivityStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.invoke(ctx, CmdGetActivityStats, nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// ClearActivityLogs empties the activity log.
func (c *Client) ClearActivityLogs(ctx context.Context) error {
	return c.invoke(ctx, CmdClearActivityLogs, nil, nil)
}

// FetchServiceStatus reports whether the organizer is running.
func (c *Client) FetchServiceStatus(ctx context.Context) (ServiceStatus, error) {
	var status ServiceStatus
	if err := c.invoke(ctx, CmdGetServiceStatus, nil, &status); err != nil {
		return ServiceStatus{}, err
	}
	return status, nil
}

// StartService starts the organizer.
func (c *Client) StartService(ctx context.Context) error {
	return c.invoke(ctx, CmdStartService, nil, nil)
}

// StopService stops the organizer.
func (c *Client) StopService(ctx context.Context) error {
	return c.invoke(ctx, CmdStopService, nil, nil)
}

// OrganizeNow runs one organize pass and returns the number of files moved.
func (c *Client) OrganizeNow(ctx context.Context) (int, error) {
	return gateway.Call[int](ctx, c.gw, CmdTriggerOrganizeNow, nil)
}

// FetchStartupEnabled reports whether Harbor launches at login.
func (c *Client) FetchStartupEnabled(ctx context.Context) (bool, error) {
	return gateway.Call[bool](ctx, c.gw, CmdGetStartupEnabled, nil)
}

// SetStartupEnabled registers or removes the launch-at-login entry.
func (c *Client) SetStartupEnabled(ctx context.Context, enabled bool) error {
	return c.invoke(ctx, CmdSetStartupEnabled, enabledArgs{Enabled: enabled}, nil)
}

// ReloadConfig makes the service re-read its configuration file.
func (c *Client) ReloadConfig(ctx context.Context) error {
	return c.invoke(ctx, CmdReloadConfig, nil, nil)
}

// FetchTutorialCompleted reports whether the first-run tutorial was finished.
func (c *Client) FetchTutorialCompleted(ctx context.Context) (bool, error) {
	return gateway.Call[bool](ctx, c.gw, CmdGetTutorialCompleted, nil)
}

// SetTutorialCompleted records the tutorial state.
func (c *Client) SetTutorialCompleted(ctx context.Context, completed bool) error {
	return c.invoke(ctx, CmdSetTutorialCompleted, completedArgs{Completed: completed}, nil)
}

// FetchCheckForUpdates returns the update-check opt-in.
func (c *Client) FetchCheckForUpdates(ctx context.Context) (bool, error) {
	return gateway.Call[bool](ctx, c.gw, CmdGetCheckUpdates, nil)
}

// SetCheckForUpdates stores the update-check opt-in.
func (c *Client) SetCheckForUpdates(ctx context.Context, enabled bool) error {
	return c.invoke(ctx, CmdSetCheckUpdates, enabledArgs{Enabled: enabled}, nil)
}

// FetchLastNotifiedVersion returns the last version the user was notified
// about, or "" when none was recorded.
func (c *Client) FetchLastNotifiedVersion(ctx context.Context) (string, error) {
	v, err := gateway.Call[*string](ctx, c.gw, CmdGetLastNotifiedVersion, nil)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// SetLastNotifiedVersion records the last version the user was notified about.
func (c *Client) SetLastNotifiedVersion(ctx context.Context, v string) error {
	return c.invoke(ctx, CmdSetLastNotifiedVersion, versionArgs{Version: v}, nil)
}
