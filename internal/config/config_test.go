// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pipdeck/internal/model"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PIPDECK_HOME", dir)
	for _, k := range []string{"PIPDECK_SERVER", "PIPDECK_TIMEOUT", "PIPDECK_THEME", "PIPDECK_VERBOSE", "PIPDECK_NO_SNAPSHOT"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, 500*time.Millisecond, cfg.Monitor.PollInterval.Duration)
	require.Equal(t, 60*time.Second, cfg.Monitor.SafetyTimeout.Duration)
	require.Equal(t, 3, cfg.Monitor.MaxConsecutiveErrors)
	require.Equal(t, 2, cfg.Monitor.CompletionStagnantTicks)
	require.Equal(t, 10, cfg.Monitor.AdvisoryStagnantTicks)
	require.Equal(t, 30*time.Second, cfg.Server.RequestTimeout.Duration)
	require.Less(t, cfg.Refresh.DescriptionPollInterval.Duration, 10*time.Second)
	require.True(t, cfg.Storage.SnapshotEnabled)
	require.Equal(t, model.FilterAll, cfg.FilterType())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "https url", mutate: func(c *Config) { c.Server.BaseURL = "https://pkgs.example.com/api" }},
		{name: "ftp url", mutate: func(c *Config) { c.Server.BaseURL = "ftp://host/api" }, field: "server.base_url", wantErr: true},
		{name: "no host", mutate: func(c *Config) { c.Server.BaseURL = "http:///api" }, field: "server.base_url", wantErr: true},
		{name: "poll too fast", mutate: func(c *Config) { c.Monitor.PollInterval = D(10 * time.Millisecond) }, field: "monitor.poll_interval", wantErr: true},
		{name: "poll at minimum", mutate: func(c *Config) { c.Monitor.PollInterval = D(50 * time.Millisecond) }},
		{name: "safety not above poll", mutate: func(c *Config) { c.Monitor.SafetyTimeout = D(500 * time.Millisecond) }, field: "monitor.safety_timeout", wantErr: true},
		{name: "zero error budget", mutate: func(c *Config) { c.Monitor.MaxConsecutiveErrors = 0 }, field: "monitor.max_consecutive_errors", wantErr: true},
		{name: "unknown theme", mutate: func(c *Config) { c.UI.Theme = "neon" }, field: "ui.theme", wantErr: true},
		{name: "theme case", mutate: func(c *Config) { c.UI.Theme = "Light" }},
		{name: "unknown filter", mutate: func(c *Config) { c.UI.DefaultFilter = "games" }, field: "ui.default_filter", wantErr: true},
		{name: "negative history", mutate: func(c *Config) { c.Storage.HistoryLimit = -1 }, field: "storage.history_limit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			require.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_LoadTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
base_url = "http://10.0.0.5:8282/api"
request_timeout = "10s"

[monitor]
poll_interval = "250ms"

[ui]
default_filter = "ai"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:8282/api", cfg.Server.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Server.RequestTimeout.Duration)
	require.Equal(t, 250*time.Millisecond, cfg.Monitor.PollInterval.Duration)
	require.Equal(t, 60*time.Second, cfg.Monitor.SafetyTimeout.Duration, "unset values keep defaults")
	require.True(t, cfg.Storage.SnapshotEnabled, "unset booleans keep defaults")
	require.Equal(t, model.FilterAI, cfg.FilterType())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions are tightened on load")
}

func TestConfig_LoadJSONFallback(t *testing.T) {
	dir := isolate(t)
	data := []byte(`{"ui": {"theme": "light"}, "storage": {"history_limit": 5}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "light", cfg.UI.Theme)
	require.Equal(t, 5, cfg.Storage.HistoryLimit)
}

func TestConfig_LoadInvalidFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nbroken"), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestConfig_LoadRejectsInvalidValues(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[monitor]\npoll_interval = \"5ms\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "monitor.poll_interval")
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Server.BaseURL = "https://pkgs.internal/api"
	cfg.Monitor.SafetyTimeout = D(2 * time.Minute)
	cfg.Storage.SnapshotEnabled = false
	require.NoError(t, Save(cfg))

	path, err := ConfigPathTOML()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.toml"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "# pipdeck configuration file"))
	require.Contains(t, string(raw), `safety_timeout = "2m0s"`)

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Server.BaseURL, loaded.Server.BaseURL)
	require.Equal(t, 2*time.Minute, loaded.Monitor.SafetyTimeout.Duration)
	require.False(t, loaded.Storage.SnapshotEnabled)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	require.Equal(t, cfg.Monitor.SafetyTimeout, fromJSON.Monitor.SafetyTimeout)
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PIPDECK_SERVER", "http://remote:9000/api")
	t.Setenv("PIPDECK_TIMEOUT", "5s")
	t.Setenv("PIPDECK_THEME", "light")
	t.Setenv("PIPDECK_VERBOSE", "yes")
	t.Setenv("PIPDECK_NO_SNAPSHOT", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://remote:9000/api", cfg.Server.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Server.RequestTimeout.Duration)
	require.Equal(t, "light", cfg.UI.Theme)
	require.True(t, cfg.Logging.Verbose)
	require.False(t, cfg.Storage.SnapshotEnabled)
}

func TestConfig_EnvOverrideInvalidTimeoutIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("PIPDECK_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Server.RequestTimeout.Duration)
}

func TestConfig_Migrate(t *testing.T) {
	cfg := Default()
	cfg.Version = "0"
	cfg.Server.BaseURL = "http://127.0.0.1:8282/"
	require.NoError(t, cfg.Migrate())
	require.Equal(t, CurrentVersion, cfg.Version)
	require.Equal(t, "http://127.0.0.1:8282/api", cfg.Server.BaseURL)

	cfg.Version = "99"
	require.Error(t, cfg.Migrate())
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("monitor.poll_interval")
	require.NoError(t, err)
	require.Equal(t, "500ms", v)

	require.NoError(t, cfg.Set("monitor.poll_interval", "750ms"))
	require.Equal(t, 750*time.Millisecond, cfg.Monitor.PollInterval.Duration)

	require.NoError(t, cfg.Set("ui.theme", "light"))
	require.Equal(t, "light", cfg.UI.Theme)

	require.NoError(t, cfg.Set("storage.history_limit", "50"))
	require.Equal(t, 50, cfg.Storage.HistoryLimit)

	require.NoError(t, cfg.Set("server.rate_limit", "2.5"))
	require.Equal(t, 2.5, cfg.Server.RateLimit)

	require.NoError(t, cfg.Set("refresh.enabled", "false"))
	require.False(t, cfg.Refresh.Enabled)

	require.NoError(t, cfg.Set("server.use-cache", "false"))
	require.False(t, cfg.Server.UseCache)

	require.Error(t, cfg.Set("monitor.poll_interval", "quickly"))
	require.Error(t, cfg.Set("monitor.poll_interval.seconds", "1"))
	require.Error(t, cfg.Set("nope.key", "1"))
	require.Error(t, cfg.Set("storage.history_limit", "many"))
	_, err = cfg.Get("")
	require.Error(t, err)
}

func TestConfig_AllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		require.NoError(t, err, key)
	}
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.UI.Theme = "light"
	clone.Monitor.PollInterval = D(time.Second)

	require.Equal(t, "dark", cfg.UI.Theme)
	require.Equal(t, 500*time.Millisecond, cfg.Monitor.PollInterval.Duration)
}

func TestConfig_StringIsJSON(t *testing.T) {
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(Default().String()), &decoded))
	monitor := decoded["monitor"].(map[string]interface{})
	require.Equal(t, "500ms", monitor["poll_interval"])
}

func TestConfig_DerivedSettings(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	logger := log.New(io.Discard, "", 0)

	cc := cfg.ClientConfig(logger)
	require.Equal(t, cfg.Server.BaseURL, cc.BaseURL)
	require.Equal(t, 30*time.Second, cc.Timeout)
	require.Nil(t, cc.Logger, "request logging is off unless verbose")

	cfg.Logging.Verbose = true
	require.Equal(t, logger, cfg.ClientConfig(logger).Logger)

	opts := cfg.MonitorOptions(logger)
	require.Equal(t, 500*time.Millisecond, opts.PollInterval)
	require.Equal(t, 3, opts.Limits.MaxConsecutiveErrors)
	require.NotNil(t, opts.Transient)

	dbPath, err := cfg.StoragePath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "pipdeck.db"), dbPath)

	cfg.Storage.Path = "/tmp/other.db"
	dbPath, err = cfg.StoragePath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/other.db", dbPath)
}
