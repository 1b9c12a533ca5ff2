package journal

import (
	"context"

	"codeberg.org/mutker/freezewatch/internal/watchdog"
)

// Service is a freeze listener that records every event it receives.
type Service interface {
	watchdog.Listener
	// Events returns the most recent events, newest first.
	Events(ctx context.Context, limit int) ([]watchdog.FreezeEvent, error)
	Close() error
}

// Repository stores freeze events.
type Repository interface {
	Record(event *watchdog.FreezeEvent) error
	Events(ctx context.Context, limit int) ([]watchdog.FreezeEvent, error)
	Close() error
}
