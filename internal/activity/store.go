// Package activity caches the paginated activity log and its statistics.
package activity

import (
	"context"
	"slices"
	"sync"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/gateway"
	"github.com/five82/harbor/internal/logging"
)

// DefaultPageSize is used when NewStore is given a non-positive size.
const DefaultPageSize = 50

// Backend is the subset of the service API the store needs.
type Backend interface {
	FetchActivityLogs(ctx context.Context, limit, offset int) (api.LogPage, error)
	FetchActivityStats(ctx context.Context) (api.Stats, error)
	ClearActivityLogs(ctx context.Context) error
}

// Snapshot is the read model handed to the UI.
type Snapshot struct {
	Entries []api.LogEntry
	Stats   *api.Stats
	Loading bool
	Error   string
	Total   int
	HasMore bool
}

// Store accumulates log pages. Entries are only ever appended by LoadMore
// or replaced wholesale by Refresh.
type Store struct {
	backend  Backend
	pageSize int

	mu         sync.Mutex
	entries    []api.LogEntry
	stats      *api.Stats
	loading    bool
	errMsg     string
	total      int
	hasMore    bool
	cursor     int
	generation uint64

	startOnce sync.Once
}

var logger = logging.NewLogger("activity")

// NewStore returns a store fetching pageSize entries per request.
func NewStore(b Backend, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{backend: b, pageSize: pageSize}
}

// PageSize returns the fixed page size.
func (s *Store) PageSize() int {
	return s.pageSize
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Entries: slices.Clone(s.entries),
		Loading: s.loading,
		Error:   s.errMsg,
		Total:   s.total,
		HasMore: s.hasMore,
	}
	if s.stats != nil {
		stats := *s.stats
		snap.Stats = &stats
	}
	return snap
}

// Start runs the first Refresh. Later calls do nothing.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() { s.Refresh(ctx) })
}

// Dispose releases nothing; the store owns no goroutines.
func (s *Store) Dispose() {}

// Refresh resets the cursor and replaces the entries with the first page,
// then fetches stats. A LoadMore still in flight is discarded.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	page, err := s.backend.FetchActivityLogs(ctx, s.pageSize, 0)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		s.errMsg = gateway.Message(err)
		s.mu.Unlock()
		logger.WithError(err).Warn("Failed to refresh activity log")
		return
	}
	s.entries = slices.Clone(page.Logs)
	s.total = page.Total
	s.hasMore = page.HasMore
	s.cursor = 0
	s.mu.Unlock()

	stats, err := s.backend.FetchActivityStats(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		s.errMsg = gateway.Message(err)
		logger.WithError(err).Warn("Failed to fetch activity stats")
		return
	}
	s.stats = &stats
}

// LoadMore appends the next page. It does nothing when no pages remain or
// a fetch is already running.
func (s *Store) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if !s.hasMore || s.loading {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	next := s.cursor + 1
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	page, err := s.backend.FetchActivityLogs(ctx, s.pageSize, next*s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		logger.Debug("Discarding activity page fetched before a refresh")
		return
	}
	s.loading = false
	if err != nil {
		s.errMsg = gateway.Message(err)
		logger.WithError(err).WithField("page", next).Warn("Failed to load activity page")
		return
	}
	s.entries = append(s.entries, page.Logs...)
	s.total = page.Total
	s.hasMore = page.HasMore
	s.cursor = next
}

// Clear removes every log entry on the service and refreshes. A remote
// failure is returned as-is and local state is left untouched.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.ClearActivityLogs(ctx); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}
