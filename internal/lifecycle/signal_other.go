//go:build !unix

package lifecycle

import "context"

// WatchSignals blocks until ctx is done; job control signals do not exist here.
func (d *Dispatcher) WatchSignals(ctx context.Context) {
	<-ctx.Done()
}
