package watchdog

import (
	"codeberg.org/mutker/freezewatch/internal/logger"
)

// MultiListener delivers each event to every listener in order. A panic in
// one listener does not keep the others from receiving the event.
type MultiListener []Listener

func (m MultiListener) OnFreezeDetected(event FreezeEvent) {
	for _, l := range m {
		deliverIsolated(l, event)
	}
}

func deliverIsolated(l Listener, event FreezeEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().
				Interface("panic", rec).
				Str("event_id", event.ID.String()).
				Msg("Freeze listener panicked")
		}
	}()

	l.OnFreezeDetected(event)
}

type logListener struct {
	logger logger.Logger
}

// NewLogListener returns a Listener that logs every event, jank as a warning
// and anr as an error.
func NewLogListener(log logger.Logger) Listener {
	return &logListener{logger: log}
}

func (l *logListener) OnFreezeDetected(event FreezeEvent) {
	e := l.logger.Warn()
	if event.Severity == SeverityANR {
		e = l.logger.Error()
	}

	e.Str("event_id", event.ID.String()).
		Str("severity", event.Severity.String()).
		Dur("duration", event.Duration).
		Str("task", event.TaskDescription).
		Int("frames", len(event.Frames)).
		Msg("Main loop freeze detected")
}
