// Package state provides the shared value cell used by every Harbor store.
//
// # Overview
//
// Each store keeps a few pieces of server-derived state (the rule list, the
// service status, the startup flag, ...). Those values are written from two
// directions: background fetches (initial load, periodic polling) and user
// actions that apply a value optimistically before the service confirms it.
// A Cell coordinates both.
//
// # Write Tokens
//
// Every write to a Cell advances a monotonic token. A fetch reads the token
// before issuing its request and commits with SetIfCurrent:
//
//	token := cell.Token()
//	status, err := client.FetchServiceStatus(ctx)
//	if err == nil {
//		cell.SetIfCurrent(token, status) // dropped if a newer write landed
//	}
//
// This keeps a slow poll that started before a toggle from overwriting the
// toggle's optimistic value with stale data.
//
// # Optimistic Writes
//
// Optimistic implements snapshot, apply, commit-on-success and
// restore-on-failure:
//
//	outcome, err := state.Optimistic(ctx, cell, flip, callService)
//
// The outcome tells the caller what happened on failure: Restored means the
// exact pre-call value is back; Superseded means something else wrote the
// cell while the call was in flight, so restoring would lose that write and
// the store should reconcile from the server instead.
//
// # Defensive Copying
//
// Cells built with a clone function copy values on the way in and out, the
// same way slices must not be shared between the goroutine that fetched them
// and the UI that renders them.
//
// # Concurrency Model
//
// A Cell uses a readers-writer lock held only while copying. Remote calls are
// never made under the lock.
package state
