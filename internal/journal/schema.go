package journal

import (
	"database/sql"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS freeze_events (
	       id           TEXT PRIMARY KEY,
	       severity     TEXT NOT NULL CHECK (severity IN ('jank', 'anr')),
	       duration_ns  INTEGER NOT NULL CHECK (typeof(duration_ns) = 'integer'),
	       task         TEXT NOT NULL,
	       detected_at  INTEGER NOT NULL CHECK (typeof(detected_at) = 'integer')
	   );
	   CREATE INDEX IF NOT EXISTS freeze_events_detected_at ON freeze_events (detected_at);
	   CREATE TABLE IF NOT EXISTS freeze_frames (
	       event_id  TEXT NOT NULL REFERENCES freeze_events (id) ON DELETE CASCADE,
	       position  INTEGER NOT NULL,
	       owner     TEXT NOT NULL,
	       symbol    TEXT NOT NULL,
	       file      TEXT NOT NULL,
	       line      INTEGER NOT NULL,
	       PRIMARY KEY (event_id, position)
	   );`

	insertEventSQL = `
    INSERT INTO freeze_events (
        id, severity, duration_ns, task, detected_at
    ) VALUES (?, ?, ?, ?, ?)`

	insertFrameSQL = `
    INSERT INTO freeze_frames (
        event_id, position, owner, symbol, file, line
    ) VALUES (?, ?, ?, ?, ?, ?)`

	selectEventsSQL = `
    SELECT id, severity, duration_ns, task, detected_at
    FROM freeze_events
    ORDER BY detected_at DESC
    LIMIT ?`

	selectFramesSQL = `
    SELECT owner, symbol, file, line
    FROM freeze_frames
    WHERE event_id = ?
    ORDER BY position`
)

var schemaTables = []string{"freeze_frames", "freeze_events", "schema_versions"}

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for an empty database
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
