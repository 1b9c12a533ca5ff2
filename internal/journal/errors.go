package journal

import "codeberg.org/mutker/freezewatch/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("journal_invalid_db_path")
	ErrInvalidBatch  = errors.ErrorCode("journal_invalid_batch")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("journal_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("journal_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("journal_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("journal_transaction_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("journal_storage_access_failed")
	ErrStorageInit   = errors.ErrorCode("journal_storage_init_failed")
	ErrStorageClose  = errors.ErrorCode("journal_storage_close_failed")
	ErrClosed        = errors.ErrorCode("journal_closed")

	// Record Errors
	ErrInvalidEvent = errors.ErrorCode("journal_invalid_event")
)
