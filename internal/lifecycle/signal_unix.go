//go:build unix

package lifecycle

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// WatchSignals maps job control onto lifecycle transitions until ctx is
// done: SIGTSTP moves to the background and then stops the process, SIGCONT
// brings it back to the foreground.
func (d *Dispatcher) WatchSignals(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTSTP, unix.SIGCONT)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case unix.SIGTSTP:
				d.Background()
				if err := unix.Kill(unix.Getpid(), unix.SIGSTOP); err != nil {
					d.logger.Error().Err(err).Msg("Failed to stop process")
				}
			case unix.SIGCONT:
				d.Foreground()
			}
		}
	}
}
