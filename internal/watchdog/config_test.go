package watchdog_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := watchdog.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.ANRThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.JankThreshold)
	assert.Equal(t, 100*time.Millisecond, cfg.PollingInterval)
	assert.True(t, cfg.JankDetection)
	assert.Equal(t, watchdog.DefaultInfrastructurePrefixes, cfg.InfrastructurePrefixes)
}

func TestConfigValidate(t *testing.T) {
	ms := time.Millisecond

	tests := []struct {
		name     string
		poll     time.Duration
		jank     time.Duration
		anr      time.Duration
		wantCode errors.ErrorCode
	}{
		{"valid", 100 * ms, 500 * ms, 5000 * ms, ""},
		{"jank equals anr at 500", 100 * ms, 500 * ms, 500 * ms, watchdog.ErrThresholdOrder},
		{"jank equals anr at 5000", 100 * ms, 5000 * ms, 5000 * ms, watchdog.ErrThresholdOrder},
		{"jank above anr", 100 * ms, 6000 * ms, 5000 * ms, watchdog.ErrThresholdOrder},
		{"zero jank", 100 * ms, 0, 5000 * ms, watchdog.ErrInvalidJankThreshold},
		{"negative jank", 100 * ms, -ms, 5000 * ms, watchdog.ErrInvalidJankThreshold},
		{"zero polling", 0, 500 * ms, 5000 * ms, watchdog.ErrInvalidPollingInterval},
		{"negative polling", -ms, 500 * ms, 5000 * ms, watchdog.ErrInvalidPollingInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := watchdog.DefaultConfig()
			cfg.PollingInterval = tt.poll
			cfg.JankThreshold = tt.jank
			cfg.ANRThreshold = tt.anr

			err := cfg.Validate()
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, watchdog.ErrInvalidConfig))
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "none", watchdog.SeverityNone.String())
	assert.Equal(t, "jank", watchdog.SeverityJank.String())
	assert.Equal(t, "anr", watchdog.SeverityANR.String())
	assert.Equal(t, "unknown", watchdog.Severity(9).String())
}
