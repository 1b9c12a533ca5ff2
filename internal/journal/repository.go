package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/snapshot"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type repository struct {
	db     *sql.DB
	cfg    Config
	log    logger.Logger
	mu     sync.Mutex
	buffer []watchdog.FreezeEvent
	closed bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewRepository opens (or creates) the journal database at cfg.DBPath.
func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Path  string
			Error string
		}{
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, err
	}

	r := &repository{
		db:     db,
		cfg:    cfg,
		log:    log,
		buffer: make([]watchdog.FreezeEvent, 0, cfg.BatchSize),
		stop:   make(chan struct{}),
	}

	if cfg.BatchSize > 1 && cfg.BatchTimeout > 0 {
		r.wg.Add(1)
		go r.flushLoop()
	}

	log.Debug().
		Str("path", cfg.DBPath).
		Int("batch_size", cfg.BatchSize).
		Dur("batch_timeout", cfg.BatchTimeout).
		Msg("Journal opened")

	return r, nil
}

func (r *repository) flushLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.BatchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			err := r.flushLocked()
			r.mu.Unlock()
			if err != nil {
				r.log.Error().Err(err).Msg("Failed to flush journal batch")
			}
		}
	}
}

func (r *repository) Record(event *watchdog.FreezeEvent) error {
	errFactory := errors.New()

	if event == nil || event.ID == uuid.Nil {
		return errFactory.New(ErrInvalidEvent)
	}
	if event.Severity != watchdog.SeverityJank && event.Severity != watchdog.SeverityANR {
		return errFactory.WithData(ErrInvalidEvent, struct {
			Severity string
		}{
			Severity: event.Severity.String(),
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errFactory.New(ErrClosed)
	}

	r.buffer = append(r.buffer, *event)
	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flushLocked()
	}

	return nil
}

// flushLocked writes the buffered events in one transaction. The buffer is
// cleared even on failure so a broken database cannot grow it without bound.
func (r *repository) flushLocked() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()
	pending := r.buffer
	r.buffer = make([]watchdog.FreezeEvent, 0, r.cfg.BatchSize)

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				r.log.Debug().Err(err).Msg("Failed to rollback journal batch")
			}
		}
	}()

	eventStmt, err := tx.Prepare(insertEventSQL)
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer eventStmt.Close()

	frameStmt, err := tx.Prepare(insertFrameSQL)
	if err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer frameStmt.Close()

	for i := range pending {
		event := &pending[i]
		if _, err := eventStmt.Exec(
			event.ID.String(),
			event.Severity.String(),
			int64(event.Duration),
			event.TaskDescription,
			event.DetectedAt.UnixNano(),
		); err != nil {
			return errFactory.WithData(ErrTransactionFailed, struct {
				ID    string
				Error string
			}{
				ID:    event.ID.String(),
				Error: err.Error(),
			})
		}

		for pos, frame := range event.Frames {
			if _, err := frameStmt.Exec(
				event.ID.String(), pos, frame.Owner, frame.Symbol, frame.File, frame.Line,
			); err != nil {
				return errFactory.Wrap(ErrTransactionFailed, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	committed = true

	r.log.Debug().Int("events", len(pending)).Msg("Journal batch written")

	return nil
}

func (r *repository) Events(ctx context.Context, limit int) ([]watchdog.FreezeEvent, error) {
	errFactory := errors.New()

	if limit <= 0 {
		return nil, errFactory.WithData(errors.ErrInvalidArgument, struct {
			Limit int
		}{
			Limit: limit,
		})
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errFactory.New(ErrClosed)
	}
	err := r.flushLocked()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectEventsSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	var events []watchdog.FreezeEvent
	for rows.Next() {
		var (
			id, severity, task string
			duration, detected int64
		)
		if err := rows.Scan(&id, &severity, &duration, &task, &detected); err != nil {
			rows.Close()
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			rows.Close()
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		events = append(events, watchdog.FreezeEvent{
			ID:              parsed,
			Severity:        parseSeverity(severity),
			Duration:        time.Duration(duration),
			TaskDescription: task,
			DetectedAt:      time.Unix(0, detected),
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	rows.Close()

	for i := range events {
		frames, err := r.frames(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Frames = frames
	}

	return events, nil
}

func (r *repository) frames(ctx context.Context, id uuid.UUID) ([]snapshot.Frame, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, selectFramesSQL, id.String())
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var frames []snapshot.Frame
	for rows.Next() {
		var f snapshot.Frame
		if err := rows.Scan(&f.Owner, &f.Symbol, &f.File, &f.Line); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return frames, nil
}

func (r *repository) Close() error {
	errFactory := errors.New()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()

	r.mu.Lock()
	flushErr := r.flushLocked()
	r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}

	return flushErr
}

func parseSeverity(name string) watchdog.Severity {
	switch name {
	case "jank":
		return watchdog.SeverityJank
	case "anr":
		return watchdog.SeverityANR
	default:
		return watchdog.SeverityNone
	}
}
