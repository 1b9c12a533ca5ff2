package snapshot

import "codeberg.org/mutker/freezewatch/internal/errors"

const (
	ErrGoroutineNotFound = errors.ErrorCode("snapshot_goroutine_not_found")
	ErrParseFailed       = errors.ErrorCode("snapshot_parse_failed")
	ErrNoTarget          = errors.ErrorCode("snapshot_no_target")
)
