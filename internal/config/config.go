package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// SettingsSource selects where the durable update flags live.
type SettingsSource string

const (
	// SettingsService keeps the flags in the background service.
	SettingsService SettingsSource = "service"
	// SettingsLocal keeps the flags in the local prefs file.
	SettingsLocal SettingsSource = "local"
)

// Config captures the fields Harbor reads from config.toml.
type Config struct {
	Gateway          string
	StatusPoll       time.Duration
	UpdateCheck      time.Duration
	ActivityPageSize int
	ReleaseURL       string
	SettingsSource   SettingsSource
	Notifications    bool
	LogLevel         string
	LogFile          string
	PrefsPath        string
}

const (
	defaultConfigPath  = "~/.config/harbor/config.toml"
	defaultGateway     = "127.0.0.1:7488"
	defaultStatusPoll  = 5 * time.Second
	defaultUpdateCheck = 3 * time.Hour
	defaultPageSize    = 50
	defaultReleaseURL  = "https://api.github.com/repos/five82/harbor/releases/latest"
	defaultLogLevel    = "info"
	defaultLogFile     = "~/.local/state/harbor/harbor.log"
	defaultPrefsPath   = "~/.config/harbor/prefs.toml"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Gateway:          defaultGateway,
		StatusPoll:       defaultStatusPoll,
		UpdateCheck:      defaultUpdateCheck,
		ActivityPageSize: defaultPageSize,
		ReleaseURL:       defaultReleaseURL,
		SettingsSource:   SettingsService,
		Notifications:    true,
		LogLevel:         defaultLogLevel,
		LogFile:          mustExpand(defaultLogFile),
		PrefsPath:        mustExpand(defaultPrefsPath),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the Harbor config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Gateway           string `toml:"gateway"`
		StatusPollSeconds int    `toml:"status_poll_seconds"`
		UpdateCheckHours  int    `toml:"update_check_hours"`
		ActivityPageSize  int    `toml:"activity_page_size"`
		ReleaseURL        string `toml:"release_url"`
		SettingsSource    string `toml:"settings_source"`
		Notifications     *bool  `toml:"notifications"`
		LogLevel          string `toml:"log_level"`
		LogFile           string `toml:"log_file"`
		PrefsFile         string `toml:"prefs_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Gateway); v != "" {
		cfg.Gateway = v
	}
	if raw.StatusPollSeconds > 0 {
		cfg.StatusPoll = time.Duration(raw.StatusPollSeconds) * time.Second
	}
	if raw.UpdateCheckHours > 0 {
		cfg.UpdateCheck = time.Duration(raw.UpdateCheckHours) * time.Hour
	}
	if raw.ActivityPageSize > 0 {
		cfg.ActivityPageSize = raw.ActivityPageSize
	}
	if v := strings.TrimSpace(raw.ReleaseURL); v != "" {
		cfg.ReleaseURL = v
	}
	switch SettingsSource(strings.ToLower(strings.TrimSpace(raw.SettingsSource))) {
	case "", SettingsService:
		cfg.SettingsSource = SettingsService
	case SettingsLocal:
		cfg.SettingsSource = SettingsLocal
	default:
		return Config{}, fmt.Errorf("parse config: unknown settings_source %q", raw.SettingsSource)
	}
	if raw.Notifications != nil {
		cfg.Notifications = *raw.Notifications
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.PrefsFile); v != "" {
		cfg.PrefsPath = mustExpand(v)
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
