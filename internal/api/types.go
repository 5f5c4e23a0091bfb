package api

import (
	"slices"
	"strings"
	"time"
)

// Rule mirrors the rule representation returned by get_rules.
type Rule struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Extensions    []string `json:"extensions"`
	Pattern       *string  `json:"pattern,omitempty"`
	MinSizeBytes  *uint64  `json:"min_size_bytes,omitempty"`
	MaxSizeBytes  *uint64  `json:"max_size_bytes,omitempty"`
	Destination   string   `json:"destination"`
	CreateSymlink bool     `json:"create_symlink"`
	Enabled       bool     `json:"enabled"`
	Icon          string   `json:"icon"`
	IconColor     string   `json:"icon_color"`
}

// Clone returns a deep copy of r.
func (r Rule) Clone() Rule {
	dup := r
	dup.Extensions = slices.Clone(r.Extensions)
	if r.Pattern != nil {
		p := *r.Pattern
		dup.Pattern = &p
	}
	if r.MinSizeBytes != nil {
		v := *r.MinSizeBytes
		dup.MinSizeBytes = &v
	}
	if r.MaxSizeBytes != nil {
		v := *r.MaxSizeBytes
		dup.MaxSizeBytes = &v
	}
	return dup
}

// CloneRules deep-copies a rule slice.
func CloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	dup := make([]Rule, len(rules))
	for i, r := range rules {
		dup[i] = r.Clone()
	}
	return dup
}

// RuleDraft is a rule that has not been created yet. The service assigns the
// id and icon.
type RuleDraft struct {
	Name          string   `json:"name"`
	Extensions    []string `json:"extensions"`
	Destination   string   `json:"destination"`
	Pattern       *string  `json:"pattern,omitempty"`
	MinSizeBytes  *uint64  `json:"minSizeBytes,omitempty"`
	MaxSizeBytes  *uint64  `json:"maxSizeBytes,omitempty"`
	CreateSymlink *bool    `json:"createSymlink,omitempty"`
	Enabled       *bool    `json:"enabled,omitempty"`
}

// RulePatch updates the rule identified by ID. Nil fields are left untouched.
type RulePatch struct {
	ID            string    `json:"id"`
	Name          *string   `json:"name,omitempty"`
	Extensions    *[]string `json:"extensions,omitempty"`
	Destination   *string   `json:"destination,omitempty"`
	Pattern       *string   `json:"pattern,omitempty"`
	MinSizeBytes  *uint64   `json:"minSizeBytes,omitempty"`
	MaxSizeBytes  *uint64   `json:"maxSizeBytes,omitempty"`
	CreateSymlink *bool     `json:"createSymlink,omitempty"`
	Enabled       *bool     `json:"enabled,omitempty"`
}

// LogStatus is the outcome recorded for a moved file.
type LogStatus string

const (
	StatusSuccess  LogStatus = "success"
	StatusConflict LogStatus = "conflict"
	StatusIgnored  LogStatus = "ignored"
	StatusError    LogStatus = "error"
)

// Valid reports whether s is one of the known outcomes.
func (s LogStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusConflict, StatusIgnored, StatusError:
		return true
	}
	return false
}

// LogEntry is a single activity record. Entries are never modified once the
// service has written them.
type LogEntry struct {
	ID          string    `json:"id"`
	Timestamp   string    `json:"timestamp"`
	Filename    string    `json:"filename"`
	Icon        string    `json:"icon"`
	IconColor   string    `json:"icon_color"`
	SourcePath  string    `json:"source_path"`
	DestPath    string    `json:"dest_path"`
	RuleName    string    `json:"rule_name"`
	Status      LogStatus `json:"status"`
	SymlinkInfo *string   `json:"symlink_info,omitempty"`
}

// ParsedTime returns the timestamp as time.Time when possible.
func (e LogEntry) ParsedTime() time.Time {
	value := strings.TrimSpace(e.Timestamp)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// LogPage mirrors the get_activity_logs response.
type LogPage struct {
	Logs    []LogEntry `json:"logs"`
	Total   int        `json:"total"`
	HasMore bool       `json:"has_more"`
}

// Stats mirrors get_activity_stats.
type Stats struct {
	TotalFilesMoved    int     `json:"total_files_moved"`
	FilesMovedToday    int     `json:"files_moved_today"`
	FilesMovedThisWeek int     `json:"files_moved_this_week"`
	MostActiveRule     *string `json:"most_active_rule,omitempty"`
}

// ServiceStatus mirrors get_service_status.
type ServiceStatus struct {
	Running       bool    `json:"running"`
	UptimeSeconds *uint64 `json:"uptime_seconds,omitempty"`
}

// Uptime returns the reported uptime, or zero when the service is stopped.
func (s ServiceStatus) Uptime() time.Duration {
	if s.UptimeSeconds == nil {
		return 0
	}
	return time.Duration(*s.UptimeSeconds) * time.Second
}
