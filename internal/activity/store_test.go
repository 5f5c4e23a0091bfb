package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/harbor/internal/api"
)

type pageRequest struct {
	limit, offset int
}

type fakeBackend struct {
	mu       sync.Mutex
	entries  []api.LogEntry
	requests []pageRequest
	pageErr  error
	statsErr error
	clearErr error
	stats    int

	// gate, when set, blocks the next page fetch until it is closed.
	gate    chan struct{}
	started chan struct{}
}

func entriesNamed(names ...string) []api.LogEntry {
	out := make([]api.LogEntry, len(names))
	for i, n := range names {
		out[i] = api.LogEntry{ID: n, Filename: n + ".pdf", Status: api.StatusSuccess}
	}
	return out
}

func (f *fakeBackend) FetchActivityLogs(_ context.Context, limit, offset int) (api.LogPage, error) {
	f.mu.Lock()
	f.requests = append(f.requests, pageRequest{limit, offset})
	gate, started := f.gate, f.started
	f.gate, f.started = nil, nil
	err := f.pageErr
	all := f.entries
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return api.LogPage{}, err
	}
	end := min(offset+limit, len(all))
	var logs []api.LogEntry
	if offset < end {
		logs = append(logs, all[offset:end]...)
	}
	return api.LogPage{Logs: logs, Total: len(all), HasMore: end < len(all)}, nil
}

func (f *fakeBackend) FetchActivityStats(context.Context) (api.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats++
	if f.statsErr != nil {
		return api.Stats{}, f.statsErr
	}
	return api.Stats{TotalFilesMoved: len(f.entries)}, nil
}

func (f *fakeBackend) ClearActivityLogs(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.entries = nil
	return nil
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func ids(entries []api.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestStore_PageSizeOneScenario(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{entries: entriesNamed("x", "y")}
	s := NewStore(b, 1)

	s.Start(ctx)
	snap := s.Snapshot()
	require.Equal(t, []string{"x"}, ids(snap.Entries))
	require.Equal(t, 2, snap.Total)
	require.True(t, snap.HasMore)

	s.LoadMore(ctx)
	snap = s.Snapshot()
	assert.Equal(t, []string{"x", "y"}, ids(snap.Entries))
	assert.False(t, snap.HasMore)
	assert.Equal(t, []pageRequest{{1, 0}, {1, 1}}, b.requests)
}

func TestStore_StartRunsOnce(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a")}
	s := NewStore(b, 10)
	s.Start(context.Background())
	s.Start(context.Background())
	assert.Equal(t, 1, b.requestCount())
	require.NotNil(t, s.Snapshot().Stats)
	assert.Equal(t, 1, s.Snapshot().Stats.TotalFilesMoved)
}

func TestLoadMore_NoCallWhenNothingRemains(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a", "b")}
	s := NewStore(b, 5)
	s.Refresh(context.Background())
	require.False(t, s.Snapshot().HasMore)

	s.LoadMore(context.Background())
	assert.Equal(t, 1, b.requestCount())
}

func TestLoadMore_NoCallWhileLoading(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a", "b", "c")}
	s := NewStore(b, 1)
	s.Refresh(context.Background())

	b.mu.Lock()
	b.gate = make(chan struct{})
	b.started = make(chan struct{})
	gate, started := b.gate, b.started
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.LoadMore(context.Background())
		close(done)
	}()
	<-started
	require.True(t, s.Snapshot().Loading)

	s.LoadMore(context.Background())
	assert.Equal(t, 2, b.requestCount())

	close(gate)
	<-done
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot().Entries))
}

func TestRefresh_AfterPagesKeepsOnlyFirstPage(t *testing.T) {
	var names []string
	for i := range 7 {
		names = append(names, fmt.Sprintf("e%d", i))
	}
	b := &fakeBackend{entries: entriesNamed(names...)}
	s := NewStore(b, 2)
	ctx := context.Background()

	s.Refresh(ctx)
	s.LoadMore(ctx)
	s.LoadMore(ctx)
	require.Len(t, s.Snapshot().Entries, 6)

	s.Refresh(ctx)
	snap := s.Snapshot()
	assert.Equal(t, []string{"e0", "e1"}, ids(snap.Entries))
	assert.True(t, snap.HasMore)

	s.LoadMore(ctx)
	assert.Equal(t, []string{"e0", "e1", "e2", "e3"}, ids(s.Snapshot().Entries))
}

func TestLoadMore_FailureDoesNotAdvanceCursor(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a", "b", "c")}
	s := NewStore(b, 1)
	ctx := context.Background()
	s.Refresh(ctx)

	b.mu.Lock()
	b.pageErr = errors.New("gateway timeout")
	b.mu.Unlock()
	s.LoadMore(ctx)
	snap := s.Snapshot()
	assert.Equal(t, "gateway timeout", snap.Error)
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"a"}, ids(snap.Entries))

	b.mu.Lock()
	b.pageErr = nil
	b.mu.Unlock()
	s.LoadMore(ctx)
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot().Entries))
	assert.Equal(t, pageRequest{1, 1}, b.requests[len(b.requests)-1])
}

func TestRefresh_DiscardsInFlightLoadMore(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a", "b", "c")}
	s := NewStore(b, 1)
	ctx := context.Background()
	s.Refresh(ctx)

	b.mu.Lock()
	b.gate = make(chan struct{})
	b.started = make(chan struct{})
	gate, started := b.gate, b.started
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.LoadMore(ctx)
		close(done)
	}()
	<-started

	s.Refresh(ctx)
	close(gate)
	<-done

	snap := s.Snapshot()
	assert.Equal(t, []string{"a"}, ids(snap.Entries))
	assert.False(t, snap.Loading)

	s.LoadMore(ctx)
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot().Entries))
}

func TestRefresh_FailureKeepsEntries(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a")}
	s := NewStore(b, 5)
	s.Refresh(context.Background())

	b.mu.Lock()
	b.pageErr = errors.New("offline")
	b.mu.Unlock()
	s.Refresh(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, "offline", snap.Error)
	assert.Equal(t, []string{"a"}, ids(snap.Entries))
}

func TestRefresh_StatsFailureSetsError(t *testing.T) {
	b := &fakeBackend{entries: entriesNamed("a"), statsErr: errors.New("stats unavailable")}
	s := NewStore(b, 5)
	s.Refresh(context.Background())

	snap := s.Snapshot()
	assert.Equal(t, "stats unavailable", snap.Error)
	assert.Nil(t, snap.Stats)
	assert.Equal(t, []string{"a"}, ids(snap.Entries))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{entries: entriesNamed("a", "b")}
	s := NewStore(b, 5)
	s.Refresh(ctx)

	b.clearErr = errors.New("permission denied")
	err := s.Clear(ctx)
	require.EqualError(t, err, "permission denied")
	assert.Equal(t, []string{"a", "b"}, ids(s.Snapshot().Entries))
	assert.Equal(t, 1, b.requestCount())

	b.clearErr = nil
	require.NoError(t, s.Clear(ctx))
	snap := s.Snapshot()
	assert.Empty(t, snap.Entries)
	assert.Equal(t, 0, snap.Total)
}

func TestNewStore_DefaultPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NewStore(&fakeBackend{}, 0).PageSize())
}
