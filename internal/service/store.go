// Package service tracks the background service's status, the
// launch-at-startup flag and the download directory. Status is polled on a
// fixed interval; the two toggles are applied optimistically and confirmed
// against the service.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/gateway"
	"github.com/five82/harbor/internal/logging"
	"github.com/five82/harbor/internal/state"
)

// DefaultPollInterval is used when NewStore is given a non-positive interval.
const DefaultPollInterval = 5 * time.Second

// ErrBusy is returned when the same operation is already running.
var ErrBusy = errors.New("operation already in progress")

// Backend is the subset of the service API the store needs.
type Backend interface {
	FetchServiceStatus(ctx context.Context) (api.ServiceStatus, error)
	StartService(ctx context.Context) error
	StopService(ctx context.Context) error
	FetchStartupEnabled(ctx context.Context) (bool, error)
	SetStartupEnabled(ctx context.Context, enabled bool) error
	FetchDownloadDir(ctx context.Context) (string, error)
	OrganizeNow(ctx context.Context) (int, error)
	ReloadConfig(ctx context.Context) error
	ResetToDefaults(ctx context.Context) error
}

// Snapshot is the read model handed to the UI.
type Snapshot struct {
	Status              api.ServiceStatus
	StartupEnabled      bool
	DownloadDir         string
	Loading             bool
	Organizing          bool
	TogglingService     bool
	TogglingStartup     bool
	Error               string
	LastPolled          time.Time
	ConsecutiveFailures int
}

// Store owns the service slice of state.
type Store struct {
	backend  Backend
	interval time.Duration

	status  *state.Cell[api.ServiceStatus]
	startup *state.Cell[bool]
	dir     *state.Cell[string]

	mu              sync.Mutex
	loading         bool
	organizing      bool
	togglingService bool
	togglingStartup bool
	errMsg          string
	lastPolled      time.Time
	failures        int

	started  bool
	stop     chan struct{}
	stopOnce sync.Once
}

var logger = logging.NewLogger("service")

// NewStore returns a store that polls status every interval once started.
func NewStore(b Backend, interval time.Duration) *Store {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Store{
		backend:  b,
		interval: interval,
		status:   state.NewCell(api.ServiceStatus{}, cloneStatus),
		startup:  state.NewCell[bool](false, nil),
		dir:      state.NewCell[string]("", nil),
		stop:     make(chan struct{}),
	}
}

func cloneStatus(s api.ServiceStatus) api.ServiceStatus {
	if s.UptimeSeconds != nil {
		v := *s.UptimeSeconds
		s.UptimeSeconds = &v
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:              s.status.Get(),
		StartupEnabled:      s.startup.Get(),
		DownloadDir:         s.dir.Get(),
		Loading:             s.loading,
		Organizing:          s.organizing,
		TogglingService:     s.togglingService,
		TogglingStartup:     s.togglingStartup,
		Error:               s.errMsg,
		LastPolled:          s.lastPolled,
		ConsecutiveFailures: s.failures,
	}
}

// Start launches a background goroutine that loads once and then polls the
// service status at a fixed cadence. It returns immediately.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		s.Load(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.poll(ctx)
			}
		}
	}()
}

// Dispose stops the poller. Requests already in flight are not cancelled.
func (s *Store) Dispose() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) poll(ctx context.Context) {
	token := s.status.Token()
	status, err := s.backend.FetchServiceStatus(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPolled = time.Now()
	if err != nil {
		s.failures++
		logger.WithError(err).WithField("failures", s.failures).Warn("Status poll failed")
		return
	}
	s.failures = 0
	s.status.SetIfCurrent(token, status)
}

// Load fetches status, startup flag and download directory together. Any
// failure leaves the previous values in place and sets Error.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	s.load(ctx)
}

// Refresh is an alias of Load.
func (s *Store) Refresh(ctx context.Context) {
	s.Load(ctx)
}

func (s *Store) load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	statusToken := s.status.Token()
	startupToken := s.startup.Token()
	dirToken := s.dir.Token()

	var (
		status  api.ServiceStatus
		startup bool
		dir     string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		status, err = s.backend.FetchServiceStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		startup, err = s.backend.FetchStartupEnabled(gctx)
		return err
	})
	g.Go(func() (err error) {
		dir, err = s.backend.FetchDownloadDir(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = gateway.Message(err)
		logger.WithError(err).Warn("Failed to load service state")
		return
	}
	s.status.SetIfCurrent(statusToken, status)
	s.startup.SetIfCurrent(startupToken, startup)
	s.dir.SetIfCurrent(dirToken, dir)
}

// ToggleService starts a stopped service or stops a running one. The flip
// is shown immediately and then confirmed by re-reading the status.
func (s *Store) ToggleService(ctx context.Context) error {
	if !s.acquire(&s.togglingService) {
		return ErrBusy
	}
	defer s.release(&s.togglingService)

	var confirmed api.ServiceStatus
	_, err := state.Optimistic(ctx, s.status,
		func(st api.ServiceStatus) api.ServiceStatus {
			st.Running = !st.Running
			if !st.Running {
				st.UptimeSeconds = nil
			}
			return st
		},
		func(ctx context.Context, applied api.ServiceStatus) error {
			var err error
			if applied.Running {
				err = s.backend.StartService(ctx)
			} else {
				err = s.backend.StopService(ctx)
			}
			if err != nil {
				return err
			}
			confirmed, err = s.backend.FetchServiceStatus(ctx)
			return err
		},
	)
	if err != nil {
		return s.fail(ctx, "toggle service", err)
	}
	s.status.Set(confirmed)
	return nil
}

// ToggleStartup flips the launch-at-startup flag and confirms it.
func (s *Store) ToggleStartup(ctx context.Context) error {
	if !s.acquire(&s.togglingStartup) {
		return ErrBusy
	}
	defer s.release(&s.togglingStartup)

	var confirmed bool
	_, err := state.Optimistic(ctx, s.startup,
		func(v bool) bool { return !v },
		func(ctx context.Context, applied bool) error {
			if err := s.backend.SetStartupEnabled(ctx, applied); err != nil {
				return err
			}
			var err error
			confirmed, err = s.backend.FetchStartupEnabled(ctx)
			return err
		},
	)
	if err != nil {
		return s.fail(ctx, "toggle startup", err)
	}
	s.startup.Set(confirmed)
	return nil
}

// OrganizeNow asks the service to organize the download directory and
// returns how many files were moved.
func (s *Store) OrganizeNow(ctx context.Context) (int, error) {
	if !s.acquire(&s.organizing) {
		return 0, ErrBusy
	}
	defer s.release(&s.organizing)

	moved, err := s.backend.OrganizeNow(ctx)
	if err != nil {
		s.setError(err)
		return 0, fmt.Errorf("organize now: %w", err)
	}
	logger.WithField("moved", moved).Info("Organize finished")
	return moved, nil
}

// Reload makes the service re-read its configuration, then reloads.
func (s *Store) Reload(ctx context.Context) error {
	if err := s.backend.ReloadConfig(ctx); err != nil {
		s.setError(err)
		return fmt.Errorf("reload config: %w", err)
	}
	s.Load(ctx)
	return nil
}

// ResetToDefaults restores the service's default rules and settings, then
// reloads.
func (s *Store) ResetToDefaults(ctx context.Context) error {
	if err := s.backend.ResetToDefaults(ctx); err != nil {
		s.setError(err)
		return fmt.Errorf("reset to defaults: %w", err)
	}
	s.Load(ctx)
	return nil
}

// fail reconciles every field from the service after a failed toggle and
// records err as the store error.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	logger.WithError(err).Warnf("%s failed, reconciling", op)
	s.load(ctx)
	s.setError(err)
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = gateway.Message(err)
}

func (s *Store) acquire(flag *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *flag {
		return false
	}
	*flag = true
	return true
}

func (s *Store) release(flag *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*flag = false
}
