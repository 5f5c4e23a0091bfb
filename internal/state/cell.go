package state

import (
	"context"
	"sync"
)

// Cell holds one value shared between background fetches and user actions.
// Every write advances a token; fetches remember the token they started
// with and only commit if nothing was written in the meantime.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	token uint64
	clone func(T) T
}

// NewCell returns a cell holding initial. clone, when non-nil, is used to copy
// values in and out so callers never share memory with the cell.
func NewCell[T any](initial T, clone func(T) T) *Cell[T] {
	c := &Cell[T]{clone: clone}
	c.value = c.copy(initial)
	return c
}

func (c *Cell[T]) copy(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// Get returns a copy of the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copy(c.value)
}

// Token returns the current write token.
func (c *Cell[T]) Token() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Set stores v unconditionally and returns the new token.
func (c *Cell[T]) Set(v T) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = c.copy(v)
	c.token++
	return c.token
}

// SetIfCurrent stores v only when no write happened since token was read.
// It reports whether v was stored.
func (c *Cell[T]) SetIfCurrent(token uint64, v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token {
		return false
	}
	c.value = c.copy(v)
	c.token++
	return true
}

// Update applies fn to the current value under the lock and returns the
// previous value and the new token.
func (c *Cell[T]) Update(fn func(T) T) (prev T, token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev = c.copy(c.value)
	c.value = c.copy(fn(c.copy(c.value)))
	c.token++
	return prev, c.token
}

// Outcome describes how an optimistic write ended.
type Outcome int

const (
	// Committed means the remote call succeeded and the applied value stays.
	Committed Outcome = iota
	// Restored means the remote call failed and the snapshot was put back.
	Restored
	// Superseded means the remote call failed but another write landed in
	// the meantime, so the snapshot was not restored. The caller should
	// reconcile from the server.
	Superseded
)

// Optimistic snapshots the cell, applies mutate immediately, then runs
// commit with the applied value. When commit fails the snapshot is restored,
// unless the cell was written again while commit was running.
func Optimistic[T any](ctx context.Context, c *Cell[T], mutate func(T) T, commit func(context.Context, T) error) (Outcome, error) {
	var applied T
	prev, token := c.Update(func(v T) T {
		applied = mutate(v)
		return applied
	})
	if err := commit(ctx, applied); err != nil {
		if c.SetIfCurrent(token, prev) {
			return Restored, err
		}
		return Superseded, err
	}
	return Committed, nil
}
