package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/five82/harbor/internal/activity"
	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/config"
	"github.com/five82/harbor/internal/gateway"
	"github.com/five82/harbor/internal/logging"
	"github.com/five82/harbor/internal/notify"
	"github.com/five82/harbor/internal/prefs"
	"github.com/five82/harbor/internal/rules"
	"github.com/five82/harbor/internal/service"
	"github.com/five82/harbor/internal/ui"
	"github.com/five82/harbor/internal/update"
)

// Options configure the Harbor application.
type Options struct {
	ConfigPath string
	Gateway    string // overrides the configured gateway address
	PollEvery  int    // seconds; zero uses the configured status poll
}

// Components holds one instance of every store, wired to a single gateway.
type Components struct {
	Config   config.Config
	Gateway  gateway.Gateway
	Client   *api.Client
	Prefs    *prefs.Store
	Rules    *rules.Store
	Activity *activity.Store
	Service  *service.Store
	Updates  *update.Store
}

var logger = logging.NewLogger("app")

// LoadConfig reads the config file and applies command-line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load harbor config: %w", err)
	}
	if addr := strings.TrimSpace(opts.Gateway); addr != "" {
		cfg.Gateway = addr
	}
	if opts.PollEvery > 0 {
		cfg.StatusPoll = time.Duration(opts.PollEvery) * time.Second
	}
	return cfg, nil
}

// Build dials the gateway and creates the stores. Nothing is loaded until
// StartStores runs.
func Build(cfg config.Config, notifier notify.Notifier) (*Components, error) {
	gw, err := gateway.Dial(cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("init harbor gateway: %w", err)
	}
	client := api.NewClient(gw)
	userPrefs := prefs.Open(cfg.PrefsPath)

	return &Components{
		Config:   cfg,
		Gateway:  gw,
		Client:   client,
		Prefs:    userPrefs,
		Rules:    rules.NewStore(client),
		Activity: activity.NewStore(client, cfg.ActivityPageSize),
		Service:  service.NewStore(client, cfg.StatusPoll),
		Updates: update.NewStore(
			settingsFor(cfg, client, userPrefs),
			update.NewGitHubSource(cfg.ReleaseURL),
			notifier,
			update.Options{Interval: cfg.UpdateCheck},
		),
	}, nil
}

// settingsFor picks where the update flags are persisted.
func settingsFor(cfg config.Config, client *api.Client, userPrefs *prefs.Store) update.Settings {
	if cfg.SettingsSource == config.SettingsLocal {
		return userPrefs
	}
	return client
}

// Close disposes every store and closes the gateway connection.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	c.Updates.Dispose()
	c.Service.Dispose()
	c.Activity.Dispose()
	c.Rules.Dispose()
	if closer, ok := c.Gateway.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run boots the Harbor TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	if err := logging.Configure(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logging.Close() }()

	notifier := notify.NewProgram(cfg.Notifications)
	c, err := Build(cfg, notifier)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close gateway")
		}
	}()

	logger.WithField("gateway", cfg.Gateway).Info("Starting Harbor")
	StartStores(ctx, c)

	uiOpts := ui.Options{
		Context:  ctx,
		Rules:    c.Rules,
		Activity: c.Activity,
		Service:  c.Service,
		Updates:  c.Updates,
		Tutorial: c.Client,
		Prefs:    c.Prefs,
	}
	err = ui.Run(uiOpts, notifier.Attach)
	notifier.Detach()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
