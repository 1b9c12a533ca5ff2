package watchdog

import "time"

// SetWaiter replaces the protocol's interruptible sleep. Call before Start.
func SetWaiter(p *Protocol, wait func(time.Duration) bool) {
	p.wait = wait
}

// SetClock replaces the reporter's time source.
func SetClock(r *Reporter, now func() time.Time) {
	r.now = now
}
