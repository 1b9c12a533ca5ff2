package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/freezewatch/internal/config"
	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freezewatch.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FREEZEWATCH_CONFIG", path)
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
anr_threshold = "3s"
jank_threshold = "250ms"
jank_detection = false
polling_interval = "50ms"
whitelist = ["^main\\.idle"]

[journal]
enabled = true
path = "/tmp/freezewatch-test/events.db"
batch_size = 4
batch_timeout = "2s"

[workload]
interval = "20ms"
stall_every = 5
stall_duration = "1s"
`)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Watchdog.ANRThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Watchdog.JankThreshold)
	assert.False(t, cfg.Watchdog.JankDetection)
	assert.Equal(t, 50*time.Millisecond, cfg.Watchdog.PollingInterval)
	assert.Equal(t, watchdog.DefaultInfrastructurePrefixes, cfg.Watchdog.InfrastructurePrefixes)
	assert.Equal(t, []string{`^main\.idle`}, cfg.Whitelist)

	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/freezewatch-test/events.db", cfg.Journal.DBPath)
	assert.Equal(t, 4, cfg.Journal.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Journal.BatchTimeout)

	assert.Equal(t, 20*time.Millisecond, cfg.Workload.Interval)
	assert.Equal(t, 5, cfg.Workload.StallEvery)
	assert.Equal(t, time.Second, cfg.Workload.StallDuration)
}

func TestLoadDefaults(t *testing.T) {
	// Ensure no config file is used
	t.Setenv("FREEZEWATCH_CONFIG", "")

	cfg, err := config.Load([]string{})
	require.NoError(t, err, "Failed to load config")

	defaults := watchdog.DefaultConfig()
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, defaults.ANRThreshold, cfg.Watchdog.ANRThreshold)
	assert.Equal(t, defaults.JankThreshold, cfg.Watchdog.JankThreshold)
	assert.Equal(t, defaults.PollingInterval, cfg.Watchdog.PollingInterval)
	assert.True(t, cfg.Watchdog.JankDetection)
	assert.Empty(t, cfg.Whitelist)
	assert.False(t, cfg.Journal.Enabled)
	assert.Positive(t, cfg.Workload.Interval)
}

func TestPrecedence(t *testing.T) {
	writeConfig(t, `
jank_threshold = "200ms"
polling_interval = "40ms"
log_level = "error"
`)
	t.Setenv("FREEZEWATCH_JANK_THRESHOLD", "300ms")
	t.Setenv("FREEZEWATCH_LOG_LEVEL", "warning")
	t.Setenv("FREEZEWATCH_JOURNAL_BATCH_SIZE", "7")

	cfg, err := config.Load([]string{"--log-level", "debug"})
	require.NoError(t, err)

	// file < env < flags
	assert.Equal(t, 40*time.Millisecond, cfg.Watchdog.PollingInterval)
	assert.Equal(t, 300*time.Millisecond, cfg.Watchdog.JankThreshold)
	assert.Equal(t, 7, cfg.Journal.BatchSize)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
}

func TestConfigFlag(t *testing.T) {
	t.Setenv("FREEZEWATCH_CONFIG", "")
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`anr_threshold = "9s"`), 0o600))

	cfg, err := config.Load([]string{"--config", path, "--whitelist", "a,b", "--stall-every", "0"})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 9*time.Second, cfg.Watchdog.ANRThreshold)
	assert.Equal(t, []string{"a", "b"}, cfg.Whitelist)
	assert.Zero(t, cfg.Workload.StallEvery)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		want    errors.ErrorCode
	}{
		{name: "invalid toml", content: "This is not a valid TOML file", want: errors.ErrReadConfig},
		{name: "invalid log level", content: `log_level = "invalid"`, want: errors.ErrInvalidLogLevel},
		{name: "invalid duration", content: `anr_threshold = "soon"`, want: errors.ErrInvalidConfig},
		{name: "threshold order", content: "jank_threshold = \"5s\"\nanr_threshold = \"5s\"", want: watchdog.ErrThresholdOrder},
		{name: "zero polling", args: []string{"--polling-interval", "0s"}, want: watchdog.ErrInvalidPollingInterval},
		{name: "bad whitelist", args: []string{"--whitelist", "("}, want: watchdog.ErrInvalidWhitelist},
		{name: "journal without path", content: "[journal]\nenabled = true\npath = \"\"", want: errors.ErrInvalidConfig},
		{name: "negative stall", args: []string{"--stall-duration=-1s"}, want: errors.ErrInvalidInterval},
		{name: "unknown flag", args: []string{"--frobnicate"}, want: errors.ErrParseFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.content)

			_, err := config.Load(tt.args)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.want), "expected %s, got %v", tt.want, err)
		})
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	t.Setenv("FREEZEWATCH_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := config.Load(nil)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestLogLevelIsValid(t *testing.T) {
	for _, level := range []config.LogLevel{
		config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarning, config.LogLevelError,
	} {
		assert.True(t, level.IsValid(), level.String())
	}
	assert.False(t, config.LogLevel("verbose").IsValid())
}
