package config

import "time"

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Workload drives the synthetic tasks the daemon posts to its main loop.
type Workload struct {
	// Interval between posted tasks.
	Interval time.Duration
	// StallEvery makes every Nth task block the loop; 0 never stalls.
	StallEvery int
	// StallDuration is how long a stalling task blocks.
	StallDuration time.Duration
}
