// Package monitor owns the single active watchdog of a process.
package monitor

import (
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/lifecycle"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
)

// ContextOwner reports whether the caller runs on the monitored context.
type ContextOwner interface {
	IsOwner() bool
}

type Options struct {
	// Owner guards Init and Shutdown: both must run on the monitored context.
	Owner ContextOwner
	// Lifecycle, if set, pauses and resumes the watchdog.
	Lifecycle lifecycle.Source
	Watchdog  watchdog.Collaborators
	Logger    logger.Logger
}

// Monitor wires configuration to one running watchdog at a time. Create it
// once and pass the handle to whatever needs to pause or resume monitoring.
type Monitor struct {
	owner     ContextOwner
	lifecycle lifecycle.Source
	collab    watchdog.Collaborators
	logger    logger.Logger

	initialized atomic.Bool

	mu       sync.Mutex
	protocol *watchdog.Protocol
	pauser   *watchdog.PauseController
}

func New(opts Options) *Monitor {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Monitor{
		owner:     opts.Owner,
		lifecycle: opts.Lifecycle,
		collab:    opts.Watchdog,
		logger:    log,
	}
}

// Init starts a watchdog with cfg. It is a no-op when one is already
// running; the running instance keeps its configuration.
func (m *Monitor) Init(cfg watchdog.Config) error {
	errFactory := errors.New()

	if !m.owner.IsOwner() {
		return errFactory.WithMessage(ErrWrongContext, "Init must be called on the monitored context")
	}

	if !m.initialized.CompareAndSwap(false, true) {
		m.logger.Debug().Msg("Watchdog already initialized")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := watchdog.NewProtocol(cfg, m.collab, m.logger)
	if err != nil {
		m.initialized.Store(false)
		return errFactory.Wrap(ErrInitFailed, err)
	}

	p.Start()

	pauser := watchdog.NewPauseController(p)
	if m.lifecycle != nil {
		m.lifecycle.Register(pauser)
	}

	m.protocol = p
	m.pauser = pauser

	return nil
}

// Shutdown stops the running watchdog, after which Init may start a new one.
func (m *Monitor) Shutdown() error {
	errFactory := errors.New()

	if !m.owner.IsOwner() {
		return errFactory.WithMessage(ErrWrongContext, "Shutdown must be called on the monitored context")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol == nil {
		return nil
	}

	if m.lifecycle != nil {
		m.lifecycle.Unregister(m.pauser)
	}
	m.protocol.Stop()

	m.protocol = nil
	m.pauser = nil
	m.initialized.Store(false)

	return nil
}

func (m *Monitor) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol != nil {
		m.protocol.Pause()
	}
}

func (m *Monitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol != nil {
		m.protocol.Resume()
	}
}

// Paused reports whether the running watchdog is paused.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.protocol != nil && m.protocol.Paused()
}

func (m *Monitor) IsInitialized() bool {
	return m.initialized.Load()
}

// Config returns the configuration of the running watchdog.
func (m *Monitor) Config() (watchdog.Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.protocol == nil {
		return watchdog.Config{}, false
	}

	return m.protocol.Config(), true
}
