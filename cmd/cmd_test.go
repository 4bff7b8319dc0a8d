package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/seedwarden/checker"
	"github.com/s0up4200/seedwarden/config"
	"github.com/s0up4200/seedwarden/hnr"
)

func testHNR() *hnr.GlobalConfig {
	return hnr.Parse(map[string]any{
		"enabled":              true,
		"hr_active":            true,
		"hr_duration":          72,
		"additional_seed_time": 2,
		"sites":                "alpha.org, beta.net",
		"enable_site_config":   true,
		"site_config":          "- site_name: beta.net\n  hr_duration: 120\n- site_name: gamma.io\n  hr_active: false\n",
	}, zerolog.Nop())
}

func TestSiteNames(t *testing.T) {
	names := siteNames(testHNR(), []string{"alpha.org", "ALPHA.ORG", " delta.com ", ""})
	assert.Equal(t, []string{"alpha.org", "beta.net", "gamma.io", "delta.com"}, names)
}

func TestRenderSitesJSON(t *testing.T) {
	g := testHNR()

	out, err := renderSitesJSON(g, siteNames(g, []string{"delta.com"}))
	require.NoError(t, err)

	var decoded struct {
		Global map[string]any            `json:"global"`
		Sites  map[string]map[string]any `json:"sites"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, 72.0, decoded.Global["hr_duration"])
	assert.Equal(t, 122.0, decoded.Sites["beta.net"]["seed_duration"])
	assert.Equal(t, false, decoded.Sites["gamma.io"]["hr_active"])
	// sites without overrides get the global rules
	assert.Equal(t, 74.0, decoded.Sites["delta.com"]["seed_duration"])
	assert.Equal(t, "delta.com", decoded.Sites["delta.com"]["site_name"])
}

func TestRenderSitesTable(t *testing.T) {
	g := testHNR()

	out := renderSitesTable(g, siteNames(g, nil))
	assert.Contains(t, out, "beta.net")
	assert.Contains(t, out, "122")
	assert.Contains(t, out, "gamma.io")
	assert.Contains(t, out, "Override")
}

func TestWatchLoop(t *testing.T) {
	logger = zerolog.Nop()

	var current atomic.Pointer[hnr.GlobalConfig]
	current.Store(testHNR())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	err := watchLoop(ctx, &current, func(ctx context.Context, g *hnr.GlobalConfig) {
		calls++
		cancel()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWatchLoopSkipsWhenDisabled(t *testing.T) {
	logger = zerolog.Nop()

	var current atomic.Pointer[hnr.GlobalConfig]
	current.Store(hnr.Parse(map[string]any{"enabled": false}, zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	err := watchLoop(ctx, &current, func(context.Context, *hnr.GlobalConfig) { calls++ })
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func testAppConfig() *config.Config {
	return &config.Config{
		QBittorrent: config.QBittorrentConfig{URL: "http://qbit:8080", RateLimit: 5},
		Logging:     config.LoggingConfig{Level: "info", Format: "console"},
		Webhook:     config.WebhookConfig{Format: "json"},
		HNR:         map[string]any{"enabled": true, "check_interval": 30},
	}
}

func TestChangedSections(t *testing.T) {
	prev := testAppConfig()
	assert.Empty(t, changedSections(prev, testAppConfig()))

	next := testAppConfig()
	next.QBittorrent.Password = "new"
	next.Logging.Level = "debug"
	next.HNR["check_interval"] = 10
	assert.Equal(t, []string{"qbittorrent", "logging"}, changedSections(prev, next))
}

func TestWatchReload(t *testing.T) {
	logger = zerolog.Nop()

	original := checker.New(nil, nil, zerolog.Nop())
	state := newWatchState(testAppConfig(), testHNR(), original, false)

	var connects int
	rebuilt := checker.New(nil, nil, zerolog.Nop())
	state.connect = func(context.Context, *config.Config) (*checker.Checker, error) {
		connects++
		return rebuilt, nil
	}

	// hnr only
	next := testAppConfig()
	next.HNR["check_interval"] = 10
	assert.Equal(t, []string{"hnr"}, state.reload(context.Background(), next))
	assert.Equal(t, 10, state.hnr.Load().CheckInterval)
	assert.Same(t, original, state.checker.Load())
	assert.Zero(t, connects)

	// connection and safety settings
	next = testAppConfig()
	next.Webhook.URL = "http://hooks.local"
	next.Safety.DryRun = true
	next.Logging.Level = "debug"
	assert.Equal(t, []string{"hnr", "webhook", "safety"}, state.reload(context.Background(), next))
	assert.Same(t, rebuilt, state.checker.Load())
	assert.True(t, state.dryRun.Load())
	assert.Equal(t, 1, connects)
	// logging is not applied live, so the same change is reported again next time
	assert.Equal(t, "info", state.applied.Logging.Level)
}

func TestWatchReloadKeepsClientOnConnectError(t *testing.T) {
	logger = zerolog.Nop()

	original := checker.New(nil, nil, zerolog.Nop())
	state := newWatchState(testAppConfig(), testHNR(), original, false)
	state.connect = func(context.Context, *config.Config) (*checker.Checker, error) {
		return nil, errors.New("login failed")
	}

	next := testAppConfig()
	next.QBittorrent.Password = "wrong"
	assert.Equal(t, []string{"hnr"}, state.reload(context.Background(), next))
	assert.Same(t, original, state.checker.Load())
	assert.Empty(t, state.applied.QBittorrent.Password)
}

func TestWatchReloadKeepsDryRunFlag(t *testing.T) {
	logger = zerolog.Nop()

	c := testAppConfig()
	c.Safety.DryRun = true
	state := newWatchState(c, testHNR(), checker.New(nil, nil, zerolog.Nop()), true)

	// the file turns dry_run off but --dry-run was given
	state.reload(context.Background(), testAppConfig())
	assert.True(t, state.dryRun.Load())
}
