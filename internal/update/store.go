// Package update checks for new Harbor releases, periodically and on
// demand, and notifies the user once per new version.
package update

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/harbor/internal/gateway"
	"github.com/five82/harbor/internal/logging"
	"github.com/five82/harbor/internal/notify"
	"github.com/five82/harbor/internal/version"
)

// DefaultInterval is the automatic check cadence.
const DefaultInterval = 3 * time.Hour

// Settings holds the durable update flags. Both the service client and the
// local prefs store implement it.
type Settings interface {
	FetchCheckForUpdates(ctx context.Context) (bool, error)
	SetCheckForUpdates(ctx context.Context, enabled bool) error
	FetchLastNotifiedVersion(ctx context.Context) (string, error)
	SetLastNotifiedVersion(ctx context.Context, v string) error
}

// State describes the outcome of the most recent check.
type State struct {
	// Available drives the "update available" badge. DismissNotification
	// clears it while HasUpdate keeps reporting the check result.
	Available bool
	HasUpdate bool
	Version   string
	URL       string
	Loading   bool
	Error     string
	Checked   bool
}

// Snapshot is the read model handed to the UI.
type Snapshot struct {
	CheckForUpdates     bool
	LastNotifiedVersion string
	Loaded              bool
	State               State
}

// Options tunes a Store. Zero values select defaults.
type Options struct {
	Interval       time.Duration
	CurrentVersion string
}

// Store owns the update-check slice of state.
type Store struct {
	settings Settings
	source   ReleaseSource
	notifier notify.Notifier
	interval time.Duration
	current  string

	mu              sync.Mutex
	ctx             context.Context
	checkForUpdates bool
	lastNotified    string
	loaded          bool
	state           State
	inflight        chan struct{} // closed when the running check finishes
	lastErr         error
	schedule        chan struct{}
	disposed        bool
}

var logger = logging.NewLogger("update")

// NewStore wires a store. Nothing runs until Start.
func NewStore(settings Settings, source ReleaseSource, notifier notify.Notifier, opts Options) *Store {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if strings.TrimSpace(opts.CurrentVersion) == "" {
		opts.CurrentVersion = version.Current()
	}
	return &Store{
		settings:        settings,
		source:          source,
		notifier:        notifier,
		interval:        opts.Interval,
		current:         opts.CurrentVersion,
		ctx:             context.Background(),
		checkForUpdates: true,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CheckForUpdates:     s.checkForUpdates,
		LastNotifiedVersion: s.lastNotified,
		Loaded:              s.loaded,
		State:               s.state,
	}
}

// Start reads the persisted flags, opens the loaded gate and, when enabled,
// schedules the automatic check. A failed read is logged and defaults are
// kept.
func (s *Store) Start(ctx context.Context) {
	var (
		g          errgroup.Group
		enabled    bool
		last       string
		enabledErr error
		lastErr    error
	)
	g.Go(func() error {
		enabled, enabledErr = s.settings.FetchCheckForUpdates(ctx)
		return enabledErr
	})
	g.Go(func() error {
		last, lastErr = s.settings.FetchLastNotifiedVersion(ctx)
		return lastErr
	})
	if err := g.Wait(); err != nil {
		logger.WithError(err).Warn("Failed to load update settings, using defaults")
	}

	s.mu.Lock()
	if s.disposed || s.loaded {
		s.mu.Unlock()
		return
	}
	s.ctx = ctx
	if enabledErr == nil {
		s.checkForUpdates = enabled
	}
	if lastErr == nil {
		s.lastNotified = strings.TrimSpace(last)
	}
	s.loaded = true
	s.mu.Unlock()

	s.reschedule()
}

// Dispose stops the automatic check. A check already running finishes.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.stopLocked()
}

// SetCheckForUpdates changes the opt-in immediately and persists it in the
// background. A failed write is logged and not reverted.
func (s *Store) SetCheckForUpdates(enabled bool) {
	s.mu.Lock()
	changed := s.checkForUpdates != enabled
	s.checkForUpdates = enabled
	if changed {
		s.stopLocked()
	}
	ctx := s.ctx
	s.mu.Unlock()

	if changed {
		s.reschedule()
	}

	go func() {
		if err := s.settings.SetCheckForUpdates(context.WithoutCancel(ctx), enabled); err != nil {
			logger.WithError(err).Warn("Failed to persist update check preference")
		}
	}()
}

// DismissNotification hides the badge. HasUpdate, Version and URL are kept.
func (s *Store) DismissNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Available = false
}

// CheckNow runs one manual check. It never notifies. When a check is
// already running it returns immediately.
func (s *Store) CheckNow(ctx context.Context) error {
	_, err := s.check(ctx, false)
	return err
}

// reschedule starts the automatic loop when the gate is open, the opt-in is
// on and no loop is running.
func (s *Store) reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || !s.loaded || !s.checkForUpdates || s.schedule != nil {
		return
	}
	stop := make(chan struct{})
	s.schedule = stop
	go s.run(s.ctx, stop)
}

func (s *Store) stopLocked() {
	if s.schedule != nil {
		close(s.schedule)
		s.schedule = nil
	}
}

func (s *Store) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.autoCheck(ctx, stop)
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *Store) autoCheck(ctx context.Context, stop <-chan struct{}) {
	if stopped(stop) {
		return
	}

	release, err := s.check(ctx, true)
	if err != nil || release == "" || stopped(stop) {
		return
	}

	s.mu.Lock()
	already := release == s.lastNotified
	s.mu.Unlock()
	if already {
		logger.WithField("version", release).Debug("Already notified about this release")
		return
	}

	granted := s.notifier.IsPermissionGranted()
	if !granted {
		granted = s.notifier.RequestPermission()
	}
	if !granted {
		logger.Debug("Notification permission not granted")
		return
	}

	if stopped(stop) {
		logger.WithField("version", release).Debug("Update checks turned off, not notifying")
		return
	}
	s.notifier.Send(notify.Notification{
		Title: "Harbor update available",
		Body:  fmt.Sprintf("Harbor %s is available", release),
	})

	s.mu.Lock()
	s.lastNotified = release
	s.mu.Unlock()
	if err := s.settings.SetLastNotifiedVersion(ctx, release); err != nil {
		logger.WithError(err).Warn("Failed to persist last notified version")
	}
}

// stopped reports whether the schedule that owns stop was cancelled.
func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// check fetches the latest release and returns its version when it is newer
// than the running build. If a check is already running, check returns
// ("", nil) at once, or with wait set blocks until that check ends and
// reports its outcome.
func (s *Store) check(ctx context.Context, wait bool) (string, error) {
	s.mu.Lock()
	if running := s.inflight; running != nil {
		s.mu.Unlock()
		if !wait {
			return "", nil
		}
		select {
		case <-running:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.newerLocked(), s.lastErr
	}
	done := make(chan struct{})
	s.inflight = done
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	release, err := s.source.Latest(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = nil
	s.lastErr = err
	defer close(done)
	if err != nil {
		s.state.Loading = false
		s.state.Error = gateway.Message(err)
		s.state.Checked = true
		logger.WithError(err).Warn("Update check failed")
		return "", err
	}

	v := strings.TrimPrefix(strings.TrimSpace(release.Tag), "v")
	newer := IsNewer(v, s.current)
	s.state = State{
		Available: newer,
		HasUpdate: newer,
		Version:   v,
		URL:       release.URL,
		Checked:   true,
	}
	logger.WithFields(logrus.Fields{"latest": v, "current": s.current, "newer": newer}).Debug("Update check finished")
	return s.newerLocked(), nil
}

// newerLocked returns the version found by the last check when it succeeded
// and is newer than the running build.
func (s *Store) newerLocked() string {
	if s.lastErr != nil || !s.state.HasUpdate {
		return ""
	}
	return s.state.Version
}
