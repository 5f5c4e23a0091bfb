package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/harbor/internal/activity"
	"github.com/five82/harbor/internal/gateway"
	"github.com/five82/harbor/internal/logging"
	"github.com/five82/harbor/internal/notify"
	"github.com/five82/harbor/internal/prefs"
	"github.com/five82/harbor/internal/rules"
	"github.com/five82/harbor/internal/service"
	"github.com/five82/harbor/internal/update"
)

// Tab identifies one of the top-level screens.
type Tab int

const (
	TabRules Tab = iota
	TabActivity
	TabService
	TabUpdates
)

var tabNames = []string{"Rules", "Activity", "Service", "Updates"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "?"
	}
	return tabNames[t]
}

// Tutorial reads and writes the first-run tutorial flag.
type Tutorial interface {
	FetchTutorialCompleted(ctx context.Context) (bool, error)
	SetTutorialCompleted(ctx context.Context, completed bool) error
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Rules    *rules.Store
	Activity *activity.Store
	Service  *service.Store
	Updates  *update.Store
	Tutorial Tutorial
	Prefs    *prefs.Store
	Tick     time.Duration
}

const (
	defaultTick   = 250 * time.Millisecond
	toastDuration = 5 * time.Second
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	rules    *rules.Store
	activity *activity.Store
	service  *service.Store
	updates  *update.Store
	tutorial Tutorial
	prefs    *prefs.Store
	tick     time.Duration

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	theme      Theme
	windowSize prefs.WindowSize
	tab        Tab
	width      int
	height     int
	ready      bool
	showHelp   bool

	snap snapshots

	ruleCursor     int
	activityOffset int
	form           *ruleForm

	toast        string
	toastExpires time.Time
	banner       string
	showTutorial bool
}

// snapshots holds the last read model of every store.
type snapshots struct {
	rules    rules.Snapshot
	activity activity.Snapshot
	service  service.Snapshot
	updates  update.Snapshot
}

var logger = logging.NewLogger("ui")

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}

	p := prefs.Prefs{Theme: themeOrder[0], WindowSize: prefs.DefaultWindowSize()}
	if opts.Prefs != nil {
		p = opts.Prefs.Get()
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		ctx:        ctx,
		rules:      opts.Rules,
		activity:   opts.Activity,
		service:    opts.Service,
		updates:    opts.Updates,
		tutorial:   opts.Tutorial,
		prefs:      opts.Prefs,
		tick:       tick,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		theme:      GetTheme(p.Theme),
		windowSize: p.WindowSize,
	}
	m.snap = m.readSnapshots()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick), m.spinner.Tick}
	if m.tutorial != nil {
		cmds = append(cmds, fetchTutorialCmd(m.ctx, m.tutorial))
	}
	return tea.Batch(cmds...)
}

// Messages

type tickMsg time.Time

// actionMsg reports the end of a user-triggered write.
type actionMsg struct {
	label string
	info  string
	err   error
}

type tutorialMsg struct {
	completed bool
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchTutorialCmd(ctx context.Context, t Tutorial) tea.Cmd {
	return func() tea.Msg {
		completed, err := t.FetchTutorialCompleted(ctx)
		if err != nil {
			// Upgraded installs have no flag; treat them as completed.
			logger.WithError(err).Debug("Tutorial flag unavailable")
			completed = true
		}
		return tutorialMsg{completed: completed}
	}
}

// run wraps a store write as a command that reports its outcome.
func run(label string, fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		info, err := fn()
		return actionMsg{label: label, info: info, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = m.contentWidth()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.snap = m.readSnapshots()
		m.clampCursors()
		if m.toast != "" && time.Time(msg).After(m.toastExpires) {
			m.toast = ""
		}
		return m, tickCmd(m.tick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionMsg:
		m.snap = m.readSnapshots()
		m.clampCursors()
		switch {
		case errors.Is(msg.err, service.ErrBusy), errors.Is(msg.err, rules.ErrReorderInFlight):
			m.setToast(fmt.Sprintf("%s: still running", msg.label))
		case msg.err != nil:
			m.setToast(fmt.Sprintf("%s failed: %s", msg.label, gateway.Message(msg.err)))
		case msg.info != "":
			m.setToast(msg.info)
		}
		return m, nil

	case notify.Msg:
		m.banner = fmt.Sprintf("%s: %s", msg.Title, msg.Body)
		return m, nil

	case tutorialMsg:
		m.showTutorial = !msg.completed
		return m, nil
	}

	return m, nil
}

func (m *Model) setToast(text string) {
	m.toast = text
	m.toastExpires = time.Now().Add(toastDuration)
}

func (m Model) readSnapshots() snapshots {
	var s snapshots
	if m.rules != nil {
		s.rules = m.rules.Snapshot()
	}
	if m.activity != nil {
		s.activity = m.activity.Snapshot()
	}
	if m.service != nil {
		s.service = m.service.Snapshot()
	}
	if m.updates != nil {
		s.updates = m.updates.Snapshot()
	}
	return s
}

func (m *Model) clampCursors() {
	n := len(m.snap.rules.Rules)
	if m.ruleCursor >= n {
		m.ruleCursor = n - 1
	}
	if m.ruleCursor < 0 {
		m.ruleCursor = 0
	}
	if last := len(m.snap.activity.Entries) - 1; m.activityOffset > last {
		m.activityOffset = last
	}
	if m.activityOffset < 0 {
		m.activityOffset = 0
	}
}

// contentWidth caps the layout at the selected window preset.
func (m Model) contentWidth() int {
	limit := m.windowSize.Width / 8
	if m.width <= 0 || (limit > 0 && m.width > limit) {
		return limit
	}
	return m.width
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.showTutorial && msg.String() == "enter" {
		m.showTutorial = false
		if m.tutorial == nil {
			return m, nil
		}
		ctx, t := m.ctx, m.tutorial
		return m, run("Tutorial", func() (string, error) {
			return "", t.SetTutorialCompleted(ctx, true)
		})
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.toast = ""
		m.banner = ""
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		return m, m.savePrefs(func(p *prefs.Prefs) { p.Theme = name })
	case key.Matches(msg, m.keys.CycleSize):
		m.windowSize = prefs.NextWindowSize(m.windowSize)
		m.help.Width = m.contentWidth()
		size := m.windowSize
		return m, m.savePrefs(func(p *prefs.Prefs) { p.WindowSize = size })
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshTab()
	}

	if n := tabIndex(msg.String()); n >= 0 {
		m.tab = Tab(n)
		return m, nil
	}

	switch m.tab {
	case TabRules:
		return m.handleRulesKey(msg)
	case TabActivity:
		return m.handleActivityKey(msg)
	case TabService:
		return m.handleServiceKey(msg)
	case TabUpdates:
		return m.handleUpdatesKey(msg)
	}
	return m, nil
}

func tabIndex(s string) int {
	if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(tabNames) {
		return int(s[0] - '1')
	}
	return -1
}

func (m Model) savePrefs(fn func(*prefs.Prefs)) tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	store := m.prefs
	return run("Save preferences", func() (string, error) {
		return "", store.Update(fn)
	})
}

func (m Model) refreshTab() tea.Cmd {
	ctx := m.ctx
	switch m.tab {
	case TabRules:
		if m.rules != nil {
			s := m.rules
			return run("Refresh", func() (string, error) { s.Load(ctx); return "", nil })
		}
	case TabActivity:
		if m.activity != nil {
			s := m.activity
			return run("Refresh", func() (string, error) { s.Refresh(ctx); return "", nil })
		}
	case TabService:
		if m.service != nil {
			s := m.service
			return run("Refresh", func() (string, error) { s.Refresh(ctx); return "", nil })
		}
	case TabUpdates:
		if m.updates != nil {
			s := m.updates
			return run("Update check", func() (string, error) { return "", s.CheckNow(ctx) })
		}
	}
	return nil
}

// Run starts the Bubble Tea program. attach, when non-nil, receives the
// program before it starts so notifications can be routed to it.
func Run(opts Options, attach func(*tea.Program)) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	if attach != nil {
		attach(p)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	return err
}
