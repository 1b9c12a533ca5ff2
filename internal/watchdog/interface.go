package watchdog

import (
	"time"

	"codeberg.org/mutker/freezewatch/internal/snapshot"
	"github.com/google/uuid"
)

// Scheduler runs callbacks on the monitored context in FIFO order.
// Post must not block.
type Scheduler interface {
	Post(fn func())
}

// DebuggerProbe reports whether a debugger is attached to the process.
type DebuggerProbe interface {
	Attached() bool
}

// Capturer snapshots what the monitored context is executing.
type Capturer interface {
	Capture() ([]snapshot.Frame, error)
}

// Listener receives detected freezes on the monitor goroutine.
type Listener interface {
	OnFreezeDetected(event FreezeEvent)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(event FreezeEvent)

func (f ListenerFunc) OnFreezeDetected(event FreezeEvent) {
	f(event)
}

// Whitelist returns true for task descriptions whose events are suppressed.
type Whitelist func(task string) bool

// Severity ranks a stall. Within one stall episode it only increases.
type Severity int32

const (
	SeverityNone Severity = iota
	SeverityJank
	SeverityANR
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityJank:
		return "jank"
	case SeverityANR:
		return "anr"
	default:
		return "unknown"
	}
}

// FreezeEvent describes one detected escalation.
type FreezeEvent struct {
	ID              uuid.UUID
	Severity        Severity
	Duration        time.Duration
	TaskDescription string
	Frames          []snapshot.Frame
	DetectedAt      time.Time
}
