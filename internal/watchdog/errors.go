package watchdog

import "codeberg.org/mutker/freezewatch/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig          = errors.ErrorCode("watchdog_invalid_config")
	ErrInvalidPollingInterval = errors.ErrorCode("watchdog_invalid_polling_interval")
	ErrInvalidJankThreshold   = errors.ErrorCode("watchdog_invalid_jank_threshold")
	ErrThresholdOrder         = errors.ErrorCode("watchdog_threshold_order")
	ErrInvalidWhitelist       = errors.ErrorCode("watchdog_invalid_whitelist")
	ErrMissingCollaborator    = errors.ErrorCode("watchdog_missing_collaborator")

	// Detection Errors
	ErrCaptureFailed   = errors.ErrorCode("watchdog_capture_failed")
	ErrWhitelistFailed = errors.ErrorCode("watchdog_whitelist_failed")
)
