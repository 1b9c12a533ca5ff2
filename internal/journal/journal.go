package journal

import (
	"context"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
)

type service struct {
	repo Repository
	log  logger.Logger
}

// NewService returns a journal listener. When the journal is disabled the
// returned service accepts events and discards them.
func NewService(cfg Config, log logger.Logger) (Service, error) {
	if !cfg.Enabled {
		log.Debug().Msg("Journal disabled")
		return disabled{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &service{repo: repo, log: log}, nil
}

// OnFreezeDetected never fails the caller; storage errors are logged.
func (s *service) OnFreezeDetected(event watchdog.FreezeEvent) {
	if err := s.repo.Record(&event); err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			s.log.ErrorWithCode(coded).
				Str("event_id", event.ID.String()).
				Msg("Failed to record freeze event")
			return
		}
		s.log.Error().Err(err).
			Str("event_id", event.ID.String()).
			Msg("Failed to record freeze event")
	}
}

func (s *service) Events(ctx context.Context, limit int) ([]watchdog.FreezeEvent, error) {
	return s.repo.Events(ctx, limit)
}

func (s *service) Close() error {
	return s.repo.Close()
}

type disabled struct{}

func (disabled) OnFreezeDetected(watchdog.FreezeEvent) {}

func (disabled) Events(context.Context, int) ([]watchdog.FreezeEvent, error) {
	return nil, nil
}

func (disabled) Close() error { return nil }
