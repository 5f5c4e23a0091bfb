// Package rules caches the service's rule collection for the UI.
package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/gateway"
	"github.com/five82/harbor/internal/logging"
	"github.com/five82/harbor/internal/state"
)

// ErrReorderInFlight is returned when Reorder is called while a previous
// reorder has not finished.
var ErrReorderInFlight = errors.New("reorder already in progress")

// Backend is the subset of the service API the store needs.
type Backend interface {
	FetchRules(ctx context.Context) ([]api.Rule, error)
	CreateRule(ctx context.Context, draft api.RuleDraft) (api.Rule, error)
	UpdateRule(ctx context.Context, patch api.RulePatch) (api.Rule, error)
	DeleteRule(ctx context.Context, id string) error
	ToggleRule(ctx context.Context, id string, enabled bool) error
	ReorderRules(ctx context.Context, ids []string) error
}

// Snapshot is the read model handed to the UI.
type Snapshot struct {
	Rules   []api.Rule
	Loading bool
	Error   string
}

// Store owns the ordered rule list.
type Store struct {
	backend Backend
	rules   *state.Cell[[]api.Rule]

	mu         sync.Mutex
	loading    bool
	errMsg     string
	reordering bool
}

var logger = logging.NewLogger("rules")

// NewStore returns an empty store backed by b.
func NewStore(b Backend) *Store {
	return &Store{
		backend: b,
		rules:   state.NewCell[[]api.Rule](nil, api.CloneRules),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Rules:   s.rules.Get(),
		Loading: s.loading,
		Error:   s.errMsg,
	}
}

// Start performs the initial load.
func (s *Store) Start(ctx context.Context) {
	s.Load(ctx)
}

// Dispose releases nothing; the store owns no goroutines.
func (s *Store) Dispose() {}

// Load replaces the list with the service's collection. On failure the
// previous list stays visible and Error is set.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	token := s.rules.Token()
	fetched, err := s.backend.FetchRules(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = gateway.Message(err)
		logger.WithError(err).Warn("Failed to load rules")
		return
	}
	if !s.rules.SetIfCurrent(token, fetched) {
		logger.Debug("Discarding rule list fetched before a newer write")
	}
}

// Add creates a rule and appends the service's copy.
func (s *Store) Add(ctx context.Context, draft api.RuleDraft) (api.Rule, error) {
	created, err := s.backend.CreateRule(ctx, draft)
	if err != nil {
		return api.Rule{}, fmt.Errorf("create rule: %w", err)
	}
	s.rules.Update(func(list []api.Rule) []api.Rule {
		return append(list, created)
	})
	return created.Clone(), nil
}

// Edit applies patch and replaces the rule with the service's copy.
func (s *Store) Edit(ctx context.Context, patch api.RulePatch) (api.Rule, error) {
	updated, err := s.backend.UpdateRule(ctx, patch)
	if err != nil {
		return api.Rule{}, fmt.Errorf("update rule: %w", err)
	}
	s.rules.Update(func(list []api.Rule) []api.Rule {
		for i := range list {
			if list[i].ID == patch.ID {
				list[i] = updated
			}
		}
		return list
	})
	return updated.Clone(), nil
}

// Remove deletes the rule identified by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.backend.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	s.rules.Update(func(list []api.Rule) []api.Rule {
		kept := list[:0]
		for _, r := range list {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return kept
	})
	return nil
}

// SetEnabled toggles a single rule.
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.backend.ToggleRule(ctx, id, enabled); err != nil {
		return fmt.Errorf("toggle rule: %w", err)
	}
	s.rules.Update(func(list []api.Rule) []api.Rule {
		for i := range list {
			if list[i].ID == id {
				list[i].Enabled = enabled
			}
		}
		return list
	})
	return nil
}

// Reorder applies ids as the new order immediately and then asks the
// service to persist it. Rules missing from ids keep their relative order at
// the end; unknown ids are ignored and only the first copy of a duplicate
// id counts. On failure the previous order is restored and the error is
// returned.
func (s *Store) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()
	if s.reordering {
		s.mu.Unlock()
		return ErrReorderInFlight
	}
	s.reordering = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.reordering = false
		s.mu.Unlock()
	}()

	outcome, err := state.Optimistic(ctx, s.rules,
		func(list []api.Rule) []api.Rule { return Project(list, ids) },
		func(ctx context.Context, applied []api.Rule) error {
			return s.backend.ReorderRules(ctx, ruleIDs(applied))
		},
	)
	switch outcome {
	case state.Committed:
		return nil
	case state.Superseded:
		logger.WithError(err).Warn("Reorder failed after a concurrent change, reloading")
		s.Load(ctx)
	default:
		logger.WithError(err).Warn("Reorder failed, restored previous order")
	}
	return fmt.Errorf("reorder rules: %w", err)
}

// Project returns list arranged by ids. Rules whose id is not in ids are
// appended in their original order.
func Project(list []api.Rule, ids []string) []api.Rule {
	byID := make(map[string]int, len(list))
	for i, r := range list {
		byID[r.ID] = i
	}

	out := make([]api.Rule, 0, len(list))
	placed := make(map[string]bool, len(list))
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, list[idx])
	}
	for _, r := range list {
		if !placed[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func ruleIDs(list []api.Rule) []string {
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	return ids
}
