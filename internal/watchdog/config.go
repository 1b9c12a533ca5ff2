package watchdog

import (
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
)

const (
	defaultANRThreshold    = 5 * time.Second
	defaultJankThreshold   = 500 * time.Millisecond
	defaultPollingInterval = 100 * time.Millisecond
)

// DefaultInfrastructurePrefixes lists the function name prefixes that never
// describe the task a stalled loop was running.
var DefaultInfrastructurePrefixes = []string{
	"runtime.",
	"runtime/",
	"internal/",
	"sync.",
	"sync/",
	"time.",
	"os.",
	"syscall.",
	"reflect.",
	"codeberg.org/mutker/freezewatch/internal/mainloop.",
}

// Config holds the detection thresholds. It is copied into a Protocol when
// the protocol is created.
type Config struct {
	// ANRThreshold is the stall length considered critical.
	ANRThreshold time.Duration
	// JankThreshold is the stall length considered noticeable lag.
	JankThreshold time.Duration
	JankDetection bool
	// PollingInterval is the heartbeat cadence.
	PollingInterval time.Duration
	// InfrastructurePrefixes are skipped when describing the stalled task.
	InfrastructurePrefixes []string
}

func DefaultConfig() Config {
	return Config{
		ANRThreshold:           defaultANRThreshold,
		JankThreshold:          defaultJankThreshold,
		JankDetection:          true,
		PollingInterval:        defaultPollingInterval,
		InfrastructurePrefixes: append([]string(nil), DefaultInfrastructurePrefixes...),
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.PollingInterval <= 0 {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidPollingInterval, struct {
			PollingInterval time.Duration
		}{
			PollingInterval: c.PollingInterval,
		}))
	}

	if c.JankThreshold <= 0 {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrInvalidJankThreshold, struct {
			JankThreshold time.Duration
		}{
			JankThreshold: c.JankThreshold,
		}))
	}

	if c.JankThreshold >= c.ANRThreshold {
		return errFactory.Wrap(ErrInvalidConfig, errFactory.WithData(ErrThresholdOrder, struct {
			JankThreshold time.Duration
			ANRThreshold  time.Duration
		}{
			JankThreshold: c.JankThreshold,
			ANRThreshold:  c.ANRThreshold,
		}))
	}

	return nil
}

func (c Config) clone() Config {
	c.InfrastructurePrefixes = append([]string(nil), c.InfrastructurePrefixes...)
	return c
}
