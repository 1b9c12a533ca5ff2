package watchdog_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/snapshot"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
	"github.com/stretchr/testify/require"
)

var stalledFrames = []snapshot.Frame{
	{Owner: "runtime", Symbol: "gopark", File: "proc.go", Line: 398},
	{Owner: "time", Symbol: "Sleep", File: "time.go", Line: 195},
	{Owner: "example.com/app/render.(*Canvas)", Symbol: "Draw", File: "canvas.go", Line: 42},
	{Owner: "codeberg.org/mutker/freezewatch/internal/mainloop.(*Loop)", Symbol: "dispatch", File: "loop.go", Line: 110},
}

// stalledScheduler never runs what is posted.
type stalledScheduler struct {
	posts atomic.Int64
}

func (s *stalledScheduler) Post(func()) { s.posts.Add(1) }

// responsiveScheduler runs every heartbeat before the monitor goes to sleep.
type responsiveScheduler struct{}

func (responsiveScheduler) Post(fn func()) { fn() }

type fixedCapturer struct {
	frames []snapshot.Frame
	err    error
	calls  atomic.Int64
}

func (c *fixedCapturer) Capture() ([]snapshot.Frame, error) {
	c.calls.Add(1)
	return c.frames, c.err
}

type toggleProbe struct {
	attached atomic.Bool
}

func (p *toggleProbe) Attached() bool { return p.attached.Load() }

type collector struct {
	mu     sync.Mutex
	events []watchdog.FreezeEvent
}

func (c *collector) OnFreezeDetected(event watchdog.FreezeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *collector) Events() []watchdog.FreezeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]watchdog.FreezeEvent(nil), c.events...)
}

func testConfig() watchdog.Config {
	cfg := watchdog.DefaultConfig()
	cfg.PollingInterval = 100 * time.Millisecond
	cfg.JankThreshold = 500 * time.Millisecond
	cfg.ANRThreshold = 5000 * time.Millisecond
	cfg.JankDetection = true
	return cfg
}

// stepper replaces the protocol's sleep. Every call is one polling cycle;
// hooks run at the end of the numbered cycle, and the protocol is stopped
// after limit cycles.
type stepper struct {
	p     *watchdog.Protocol
	limit int
	n     int
	hooks map[int]func()
}

func (s *stepper) wait(time.Duration) bool {
	s.n++
	if hook := s.hooks[s.n]; hook != nil {
		hook()
	}
	if s.n > s.limit {
		s.p.Stop()
		return false
	}
	return true
}

// runCycles runs p for limit cycles and waits for the monitor to exit.
func runCycles(t *testing.T, p *watchdog.Protocol, limit int, hooks map[int]func()) {
	t.Helper()

	s := &stepper{p: p, limit: limit, hooks: hooks}
	watchdog.SetWaiter(p, s.wait)
	p.Start()

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		p.Stop()
		t.Fatal("protocol did not finish")
	}
}

func newProtocol(t *testing.T, cfg watchdog.Config, c watchdog.Collaborators) *watchdog.Protocol {
	t.Helper()

	p, err := watchdog.NewProtocol(cfg, c, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return p
}
