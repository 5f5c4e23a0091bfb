// Package notify delivers user-facing notifications such as "a new version
// is available". The terminal front-end shows them as a banner; headless
// commands write them to the log.
package notify

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Notification is a fire-and-forget message.
type Notification struct {
	Title string
	Body  string
}

// Notifier is the permission check plus dispatch used by the update store.
type Notifier interface {
	IsPermissionGranted() bool
	RequestPermission() bool
	Send(Notification)
}

// Msg is delivered to the Bubble Tea program for every sent notification.
type Msg Notification

// Program forwards notifications to a running Bubble Tea program. Until a
// program is attached, notifications are queued and flushed on Attach.
type Program struct {
	enabled bool

	mu      sync.Mutex
	program *tea.Program
	queued  []Notification
}

// NewProgram returns a notifier whose permission is fixed by enabled.
func NewProgram(enabled bool) *Program {
	return &Program{enabled: enabled}
}

// Attach connects the notifier to p and flushes anything queued. It does
// not wait for p to start.
func (n *Program) Attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	queued := n.queued
	n.queued = nil
	n.mu.Unlock()

	if len(queued) == 0 {
		return
	}
	// Program.Send blocks until the event loop runs, and Attach is called
	// before it starts.
	go func() {
		for _, note := range queued {
			p.Send(Msg(note))
		}
	}()
}

// Detach disconnects the program; later notifications are dropped.
func (n *Program) Detach() {
	n.mu.Lock()
	n.program = nil
	n.enabled = false
	n.mu.Unlock()
}

func (n *Program) IsPermissionGranted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// RequestPermission cannot prompt in a terminal, so it reports the
// configured permission.
func (n *Program) RequestPermission() bool {
	return n.IsPermissionGranted()
}

func (n *Program) Send(note Notification) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return
	}
	p := n.program
	if p == nil {
		n.queued = append(n.queued, note)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	// Program.Send blocks until the event loop reads the message.
	go p.Send(Msg(note))
}

// Log writes notifications to a logger. Permission is always granted.
type Log struct {
	Logger *logrus.Entry
}

func (Log) IsPermissionGranted() bool { return true }

func (Log) RequestPermission() bool { return true }

func (n Log) Send(note Notification) {
	if n.Logger == nil {
		return
	}
	n.Logger.WithField("title", note.Title).Info(note.Body)
}
