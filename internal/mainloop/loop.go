// Package mainloop implements the monitored execution context: a single
// goroutine that runs posted tasks one at a time, in the order they were
// posted.
package mainloop

import (
	"context"
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/snapshot"
	"github.com/eapache/queue"
)

type Loop struct {
	mu      sync.Mutex
	tasks   *queue.Queue
	wake    chan struct{}
	running atomic.Bool
	gid     atomic.Int64
	logger  logger.Logger
}

func New(log logger.Logger) *Loop {
	return &Loop{
		tasks:  queue.New(),
		wake:   make(chan struct{}, 1),
		logger: log,
	}
}

// Post enqueues fn for execution on the loop goroutine. It never blocks.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	l.tasks.Add(fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting to run.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Length()
}

// Run executes posted tasks on the calling goroutine until ctx is done.
// Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	errFactory := errors.New()

	if !l.running.CompareAndSwap(false, true) {
		return errFactory.New(ErrAlreadyRunning)
	}
	defer l.running.Store(false)

	l.gid.Store(int64(snapshot.CurrentGoroutineID()))
	defer l.gid.Store(0)

	l.logger.Debug().Int("goroutine", l.GoroutineID()).Msg("Main loop started")

	for {
		for {
			if ctx.Err() != nil {
				return nil
			}
			fn, ok := l.next()
			if !ok {
				break
			}
			l.dispatch(fn)
		}

		select {
		case <-ctx.Done():
			l.logger.Debug().Int("dropped", l.Len()).Msg("Main loop stopped")
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tasks.Length() == 0 {
		return nil, false
	}

	return l.tasks.Remove().(func()), true
}

func (l *Loop) dispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Main loop task panicked")
		}
	}()

	fn()
}

// GoroutineID returns the runtime ID of the loop goroutine, or 0 when the
// loop is not running.
func (l *Loop) GoroutineID() int {
	return int(l.gid.Load())
}

// IsOwner reports whether the caller is running on the loop goroutine.
func (l *Loop) IsOwner() bool {
	id := l.GoroutineID()
	return id != 0 && id == snapshot.CurrentGoroutineID()
}
