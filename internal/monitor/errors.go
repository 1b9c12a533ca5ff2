package monitor

import "codeberg.org/mutker/freezewatch/internal/errors"

const (
	ErrWrongContext = errors.ErrorCode("monitor_wrong_context")
	ErrInitFailed   = errors.ErrInitWatch
)
