package watchdog

import (
	"strings"
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/snapshot"
	"github.com/google/uuid"
)

// UnknownTask describes a stall for which no frames were captured.
const UnknownTask = "Unknown task"

// Reporter classifies a stall, builds its event and hands it to the listener.
type Reporter struct {
	cfg       Config
	capturer  Capturer
	listener  Listener
	whitelist Whitelist
	logger    logger.Logger
	now       func() time.Time
}

func NewReporter(cfg Config, capturer Capturer, listener Listener, whitelist Whitelist, log logger.Logger) *Reporter {
	return &Reporter{
		cfg:       cfg.clone(),
		capturer:  capturer,
		listener:  listener,
		whitelist: whitelist,
		logger:    log,
		now:       time.Now,
	}
}

// Classify maps an elapsed stall to a severity.
func (r *Reporter) Classify(elapsed time.Duration) Severity {
	switch {
	case elapsed >= r.cfg.ANRThreshold:
		return SeverityANR
	case r.cfg.JankDetection && elapsed >= r.cfg.JankThreshold:
		return SeverityJank
	default:
		return SeverityNone
	}
}

// Evaluate decides whether elapsed escalates past reported. It returns the
// severity the caller should record (SeverityNone for "leave it") and the
// event to deliver, which is nil when the task is whitelisted.
// Capture faults produce neither, so the next cycle tries again.
func (r *Reporter) Evaluate(elapsed time.Duration, reported Severity) (Severity, *FreezeEvent) {
	severity := r.Classify(elapsed)
	if severity <= reported {
		return SeverityNone, nil
	}

	frames, err := r.capture()
	if err != nil {
		r.logger.Debug().Err(err).Str("severity", severity.String()).Msg("Skipping report, capture failed")
		return SeverityNone, nil
	}

	task := DescribeTask(frames, r.cfg.InfrastructurePrefixes)

	suppressed, err := r.suppressed(task)
	if err != nil {
		r.logger.Debug().Err(err).Str("task", task).Msg("Skipping report, whitelist failed")
		return SeverityNone, nil
	}
	if suppressed {
		r.logger.Debug().
			Str("severity", severity.String()).
			Str("task", task).
			Msg("Freeze suppressed by whitelist")
		return severity, nil
	}

	return severity, &FreezeEvent{
		ID:              uuid.New(),
		Severity:        severity,
		Duration:        elapsed,
		TaskDescription: task,
		Frames:          frames,
		DetectedAt:      r.now(),
	}
}

// Deliver hands event to the listener. A panicking listener is logged and
// otherwise ignored.
func (r *Reporter) Deliver(event FreezeEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Str("event_id", event.ID.String()).
				Msg("Freeze listener panicked")
		}
	}()

	r.listener.OnFreezeDetected(event)
}

func (r *Reporter) capture() (frames []snapshot.Frame, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			frames, err = nil, errors.New().WithData(ErrCaptureFailed, rec)
		}
	}()

	frames, err = r.capturer.Capture()
	if err != nil {
		return nil, errors.New().Wrap(ErrCaptureFailed, err)
	}

	return frames, nil
}

func (r *Reporter) suppressed(task string) (ok bool, err error) {
	if r.whitelist == nil {
		return false, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			ok, err = false, errors.New().WithData(ErrWhitelistFailed, rec)
		}
	}()

	return r.whitelist(task), nil
}

// DescribeTask names the task a stalled context was running: the first frame
// outside the infrastructure prefixes with its source position, else the
// first frame without one, else UnknownTask.
func DescribeTask(frames []snapshot.Frame, prefixes []string) string {
	if len(frames) == 0 {
		return UnknownTask
	}

	for _, frame := range frames {
		if !isInfrastructure(frame, prefixes) {
			return frame.String()
		}
	}

	return frames[0].Function()
}

func isInfrastructure(frame snapshot.Frame, prefixes []string) bool {
	name := frame.Function()
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}
