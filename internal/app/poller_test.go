package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/config"
	"github.com/five82/harbor/internal/notify"
	"github.com/five82/harbor/internal/prefs"
)

// fakeService answers /invoke/<command> with canned JSON.
type fakeService struct {
	mu      sync.Mutex
	results map[string]string
	calls   map[string]int
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{
		results: map[string]string{
			api.CmdGetRules:          `[{"id":"Images","name":"Images","extensions":[".png"],"destination":"~/Pictures","enabled":true}]`,
			api.CmdGetActivityLogs:   `{"logs":[],"total":0,"has_more":false}`,
			api.CmdGetActivityStats:  `{"total_files_moved":0,"files_moved_today":0,"files_moved_this_week":0}`,
			api.CmdGetServiceStatus:  `{"running":true}`,
			api.CmdGetStartupEnabled: `true`,
			api.CmdGetDownloadDir:    `"/home/me/Downloads"`,
			api.CmdGetCheckUpdates:   `false`,
		},
		calls: map[string]int{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		command := strings.TrimPrefix(r.URL.Path, "/invoke/")
		svc.mu.Lock()
		svc.calls[command]++
		body, ok := svc.results[command]
		svc.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_, _ = w.Write([]byte("null"))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return svc, srv
}

func (s *fakeService) count(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[command]
}

func testConfig(t *testing.T, addr string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Gateway = addr
	cfg.StatusPoll = time.Hour
	cfg.ReleaseURL = addr + "/release"
	cfg.PrefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	return cfg
}

func TestStartStores_LoadsEveryStore(t *testing.T) {
	svc, srv := newFakeService(t)
	c, err := Build(testConfig(t, srv.URL), notify.NewProgram(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	StartStores(context.Background(), c)

	require.Eventually(t, func() bool {
		return len(c.Rules.Snapshot().Rules) == 1 &&
			c.Service.Snapshot().DownloadDir == "/home/me/Downloads" &&
			c.Activity.Snapshot().Stats != nil &&
			c.Updates.Snapshot().Loaded
	}, 2*time.Second, 10*time.Millisecond)

	snap := c.Service.Snapshot()
	assert.True(t, snap.Status.Running)
	assert.True(t, snap.StartupEnabled)
	assert.False(t, c.Updates.Snapshot().CheckForUpdates)
	assert.Equal(t, 1, svc.count(api.CmdGetCheckUpdates))
}

func TestBuild_LocalSettingsUsePrefs(t *testing.T) {
	svc, srv := newFakeService(t)
	cfg := testConfig(t, srv.URL)
	cfg.SettingsSource = config.SettingsLocal
	off := false
	require.NoError(t, prefs.Save(cfg.PrefsPath, prefs.Prefs{CheckForUpdates: &off, LastNotifiedVersion: "1.2.0"}))

	c, err := Build(cfg, notify.Log{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Updates.Start(context.Background())
	snap := c.Updates.Snapshot()
	assert.True(t, snap.Loaded)
	assert.False(t, snap.CheckForUpdates)
	assert.Equal(t, "1.2.0", snap.LastNotifiedVersion)
	assert.Equal(t, 0, svc.count(api.CmdGetCheckUpdates))
	assert.Equal(t, 0, svc.count(api.CmdGetLastNotifiedVersion))
}

func TestLoadConfig_AppliesOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig(Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Gateway:    " ws://127.0.0.1:9000/ws ",
		PollEvery:  7,
	})
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:9000/ws", cfg.Gateway)
	assert.Equal(t, 7*time.Second, cfg.StatusPoll)
}

func TestLoadConfig_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("gateway = ["), 0o600))
	_, err := LoadConfig(Options{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load harbor config")
}
