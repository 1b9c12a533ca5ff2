// Package lifecycle delivers foreground/background transitions to registered
// observers.
package lifecycle

import (
	"sync"

	"codeberg.org/mutker/freezewatch/internal/logger"
)

// Observer receives lifecycle transitions.
type Observer interface {
	OnForeground()
	OnBackground()
}

// Source is anything observers can subscribe to. Observers are keyed by
// identity, so they must be comparable (pointers in practice).
type Source interface {
	Register(o Observer)
	Unregister(o Observer)
}

// Dispatcher is an in-process Source. Foreground and Background fan the
// transition out to every registered observer.
type Dispatcher struct {
	mu        sync.Mutex
	observers map[Observer]struct{}
	order     []Observer
	logger    logger.Logger
}

func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		observers: make(map[Observer]struct{}),
		logger:    log,
	}
}

func (d *Dispatcher) Register(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.observers[o]; ok {
		return
	}
	d.observers[o] = struct{}{}
	d.order = append(d.order, o)
}

func (d *Dispatcher) Unregister(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.observers[o]; !ok {
		return
	}
	delete(d.observers, o)
	for i, existing := range d.order {
		if existing == o {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

func (d *Dispatcher) Foreground() {
	d.logger.Debug().Msg("Entering foreground")
	for _, o := range d.snapshot() {
		o.OnForeground()
	}
}

func (d *Dispatcher) Background() {
	d.logger.Debug().Msg("Entering background")
	for _, o := range d.snapshot() {
		o.OnBackground()
	}
}

// snapshot lets observers unregister themselves from inside a callback.
func (d *Dispatcher) snapshot() []Observer {
	d.mu.Lock()
	defer d.mu.Unlock()

	observers := make([]Observer, len(d.order))
	copy(observers, d.order)
	return observers
}
