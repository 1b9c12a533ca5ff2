package watchdog

import (
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/freezewatch/internal/debugger"
	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
)

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// Collaborators are the outside pieces a Protocol drives.
type Collaborators struct {
	Scheduler Scheduler
	Capturer  Capturer
	Listener  Listener
	// Debugger defaults to a probe that never reports a debugger.
	Debugger DebuggerProbe
	// Whitelist may be nil.
	Whitelist Whitelist
}

// Protocol is the heartbeat state machine. Each cycle it posts a heartbeat
// onto the monitored context, sleeps one polling interval and accumulates
// the time the heartbeat has gone unanswered; crossing a threshold reports a
// freeze. A Protocol is single-use: once stopped it cannot be restarted.
type Protocol struct {
	cfg       Config
	scheduler Scheduler
	debugger  DebuggerProbe
	reporter  *Reporter
	logger    logger.Logger
	wait      func(time.Duration) bool
	heartbeat func()

	// elapsed and reported are written by the monitored context (reset) and
	// by the monitor goroutine (accumulate, escalate).
	elapsed  atomic.Int64
	reported atomic.Int32
	// episode changes on every reset so an escalation computed across a
	// reset is not recorded over it.
	episode atomic.Uint64
	state   atomic.Int32
	paused  atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewProtocol(cfg Config, c Collaborators, log logger.Logger) (*Protocol, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if c.Scheduler == nil || c.Capturer == nil || c.Listener == nil {
		return nil, errFactory.WithMessage(ErrMissingCollaborator,
			"scheduler, capturer and listener are required")
	}

	if c.Debugger == nil {
		c.Debugger = debugger.Never()
	}

	cfg = cfg.clone()

	if cfg.JankDetection && cfg.PollingInterval >= cfg.JankThreshold {
		log.Warn().
			Dur("polling_interval", cfg.PollingInterval).
			Dur("jank_threshold", cfg.JankThreshold).
			Msg("Polling interval is not below the jank threshold, a healthy loop will report jank")
	}

	p := &Protocol{
		cfg:       cfg,
		scheduler: c.Scheduler,
		debugger:  c.Debugger,
		reporter:  NewReporter(cfg, c.Capturer, c.Listener, c.Whitelist, log),
		logger:    log,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	p.wait = p.sleep
	p.heartbeat = p.reset

	return p, nil
}

// Start launches the monitor goroutine. Only the first call on a new
// protocol has any effect.
func (p *Protocol) Start() {
	if !p.state.CompareAndSwap(stateNew, stateRunning) {
		return
	}

	p.logger.Info().
		Dur("polling_interval", p.cfg.PollingInterval).
		Dur("jank_threshold", p.cfg.JankThreshold).
		Dur("anr_threshold", p.cfg.ANRThreshold).
		Bool("jank_detection", p.cfg.JankDetection).
		Msg("Watchdog started")

	go p.run()
}

// Stop ends monitoring. It is idempotent, safe from any goroutine, and
// interrupts a pending sleep so the monitor goroutine exits promptly.
func (p *Protocol) Stop() {
	prev := p.state.Swap(stateStopped)
	p.stopOnce.Do(func() { close(p.stopCh) })

	if prev == stateNew {
		close(p.doneCh)
	}
}

// Pause suspends heartbeat posting and stall accounting.
func (p *Protocol) Pause() {
	if !p.paused.Swap(true) {
		p.logger.Debug().Msg("Watchdog paused")
	}
}

// Resume starts a fresh detection window. Anything accumulated before the
// pause is discarded.
func (p *Protocol) Resume() {
	p.reset()
	if p.paused.Swap(false) {
		p.logger.Debug().Msg("Watchdog resumed")
	}
}

// Done is closed once the monitor goroutine has exited, or on Stop if the
// protocol was never started.
func (p *Protocol) Done() <-chan struct{} {
	return p.doneCh
}

func (p *Protocol) Running() bool {
	return p.state.Load() == stateRunning
}

func (p *Protocol) Paused() bool {
	return p.paused.Load()
}

// Elapsed returns how long the current heartbeat has gone unanswered.
func (p *Protocol) Elapsed() time.Duration {
	return time.Duration(p.elapsed.Load())
}

// ReportedSeverity returns the highest severity reported in the current
// stall episode.
func (p *Protocol) ReportedSeverity() Severity {
	return Severity(p.reported.Load())
}

func (p *Protocol) Config() Config {
	return p.cfg.clone()
}

func (p *Protocol) reset() {
	p.episode.Add(1)
	p.elapsed.Store(0)
	p.reported.Store(int32(SeverityNone))
}

func (p *Protocol) run() {
	defer close(p.doneCh)
	defer func() { p.logger.Info().Msg("Watchdog stopped") }()

	interval := p.cfg.PollingInterval

	// A false wait means Stop interrupted the sleep; the loop condition
	// decides whether to go on.
	for p.Running() {
		if p.paused.Load() {
			p.wait(interval)
			continue
		}

		if p.debugger.Attached() {
			p.reset()
			p.wait(interval)
			continue
		}

		p.scheduler.Post(p.heartbeat)

		if !p.wait(interval) {
			continue
		}

		elapsed := time.Duration(p.elapsed.Add(int64(interval)))
		if elapsed >= p.cfg.JankThreshold && p.ReportedSeverity() != SeverityANR {
			p.evaluate(elapsed)
		}
	}
}

func (p *Protocol) evaluate(elapsed time.Duration) {
	episode := p.episode.Load()

	severity, event := p.reporter.Evaluate(elapsed, p.ReportedSeverity())
	if severity == SeverityNone {
		return
	}

	if p.episode.Load() == episode {
		p.reported.Store(int32(severity))
	}

	if event != nil {
		p.reporter.Deliver(*event)
	}
}

func (p *Protocol) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-p.stopCh:
		return false
	}
}
