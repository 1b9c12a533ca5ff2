package mainloop

import "codeberg.org/mutker/freezewatch/internal/errors"

const (
	ErrAlreadyRunning = errors.ErrorCode("mainloop_already_running")
)
