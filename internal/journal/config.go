package journal

import (
	"path/filepath"
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/freezewatch/events.db"
	defaultBatchSize    = 16
	defaultBatchTimeout = 5 * time.Second
)

type Config struct {
	Enabled bool
	DBPath  string
	// BackupDir receives a copy of the database before an incompatible
	// schema is replaced. Defaults to a backups directory next to DBPath.
	BackupDir string
	// BatchSize events are buffered before they are written; 1 writes
	// every event immediately.
	BatchSize int
	// BatchTimeout flushes a partial batch.
	BatchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:      false, // Disabled by default
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate storage settings if the journal is enabled
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 1 {
		return errFactory.WithData(ErrInvalidBatch, struct {
			BatchSize int
		}{
			BatchSize: c.BatchSize,
		})
	}
	if c.BatchTimeout < 0 {
		return errFactory.WithData(ErrInvalidBatch, struct {
			BatchTimeout time.Duration
		}{
			BatchTimeout: c.BatchTimeout,
		})
	}

	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}

	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}
