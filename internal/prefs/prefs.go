// Package prefs handles Harbor user preferences persistence.
// Preferences are stored in ~/.config/harbor/prefs.toml.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/harbor/internal/logging"
)

// WindowSize is a named window geometry preset.
type WindowSize struct {
	Label  string `toml:"label"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Prefs holds user preferences for Harbor.
type Prefs struct {
	Theme               string     `toml:"theme"`
	WindowSize          WindowSize `toml:"window_size"`
	CheckForUpdates     *bool      `toml:"check_for_updates,omitempty"`
	LastNotifiedVersion string     `toml:"last_notified_version,omitempty"`
	TutorialCompleted   *bool      `toml:"tutorial_completed,omitempty"`
}

// CheckForUpdatesEnabled returns the update-check opt-in, defaulting to true.
func (p Prefs) CheckForUpdatesEnabled() bool {
	return p.CheckForUpdates == nil || *p.CheckForUpdates
}

// WindowPresets lists the supported window sizes in display order.
var WindowPresets = []WindowSize{
	{Label: "Compact", Width: 900, Height: 620},
	{Label: "Default", Width: 1100, Height: 760},
	{Label: "Large", Width: 1400, Height: 900},
}

const (
	defaultPrefsPath = "~/.config/harbor/prefs.toml"
	defaultTheme     = "Nightfox"
)

var logger = logging.NewLogger("prefs")

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// DefaultWindowSize returns the "Default" preset.
func DefaultWindowSize() WindowSize {
	return WindowPresets[1]
}

// NextWindowSize returns the preset after current, wrapping around.
func NextWindowSize(current WindowSize) WindowSize {
	for i, preset := range WindowPresets {
		if preset.Label == current.Label {
			return WindowPresets[(i+1)%len(WindowPresets)]
		}
	}
	return DefaultWindowSize()
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme, WindowSize: DefaultWindowSize()}
}

// Load reads preferences from the given path, falling back to defaults if
// the file is missing or malformed. Malformed data is logged, never returned.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		logger.WithError(err).Warn("Cannot resolve prefs path, using defaults")
		return defaults()
	}

	file, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WithError(err).Warnf("Cannot open %s, using defaults", resolved)
		}
		return defaults()
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		logger.WithError(err).Warnf("Cannot read %s, using defaults", resolved)
		return defaults()
	}

	prefs := defaults()
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		logger.WithError(err).Warnf("Invalid prefs in %s, using defaults", resolved)
		return defaults()
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if !validWindowSize(prefs.WindowSize) {
		logger.Warnf("Unknown window size %+v, using %s", prefs.WindowSize, DefaultWindowSize().Label)
		prefs.WindowSize = DefaultWindowSize()
	}
	prefs.LastNotifiedVersion = strings.TrimSpace(prefs.LastNotifiedVersion)

	return prefs
}

func validWindowSize(ws WindowSize) bool {
	if ws.Width <= 0 || ws.Height <= 0 {
		return false
	}
	for _, preset := range WindowPresets {
		if preset == ws {
			return true
		}
	}
	return false
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Store is the persisted key-value store backing Harbor's durable flags. It
// keeps an in-memory mirror that is written through on every change.
type Store struct {
	path string

	mu    sync.Mutex
	prefs Prefs
}

// Open loads the preferences at path into a Store.
func Open(path string) *Store {
	return &Store{path: path, prefs: Load(path)}
}

// Get returns the current preferences.
func (s *Store) Get() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePrefs(s.prefs)
}

// Update applies fn and persists the result. The in-memory copy is only
// replaced when the write succeeds.
func (s *Store) Update(fn func(*Prefs)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := clonePrefs(s.prefs)
	fn(&next)
	if err := Save(s.path, next); err != nil {
		return err
	}
	s.prefs = next
	return nil
}

// FetchCheckForUpdates returns the update-check opt-in.
func (s *Store) FetchCheckForUpdates(context.Context) (bool, error) {
	return s.Get().CheckForUpdatesEnabled(), nil
}

// SetCheckForUpdates persists the update-check opt-in.
func (s *Store) SetCheckForUpdates(_ context.Context, enabled bool) error {
	return s.Update(func(p *Prefs) { p.CheckForUpdates = &enabled })
}

// FetchLastNotifiedVersion returns the last version the user was notified about.
func (s *Store) FetchLastNotifiedVersion(context.Context) (string, error) {
	return s.Get().LastNotifiedVersion, nil
}

// SetLastNotifiedVersion persists the last notified version.
func (s *Store) SetLastNotifiedVersion(_ context.Context, v string) error {
	return s.Update(func(p *Prefs) { p.LastNotifiedVersion = strings.TrimSpace(v) })
}

func clonePrefs(p Prefs) Prefs {
	dup := p
	if p.CheckForUpdates != nil {
		v := *p.CheckForUpdates
		dup.CheckForUpdates = &v
	}
	if p.TutorialCompleted != nil {
		v := *p.TutorialCompleted
		dup.TutorialCompleted = &v
	}
	return dup
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
