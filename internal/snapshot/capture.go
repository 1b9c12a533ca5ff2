package snapshot

import (
	"bytes"
	"io"
	"path/filepath"
	"runtime"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"github.com/maruel/panicparse/v2/stack"
)

const (
	initialDumpSize = 64 << 10
	maxDumpSize     = 64 << 20
)

// Target identifies the goroutine to capture.
type Target interface {
	// GoroutineID returns the goroutine's runtime ID, or 0 when it is not running.
	GoroutineID() int
}

// Capturer snapshots the stack of a single target goroutine.
type Capturer struct {
	target Target
}

func NewCapturer(target Target) *Capturer {
	return &Capturer{target: target}
}

// Capture dumps every goroutine and returns the target's frames.
func (c *Capturer) Capture() ([]Frame, error) {
	errFactory := errors.New()

	id := c.target.GoroutineID()
	if id == 0 {
		return nil, errFactory.New(ErrNoTarget)
	}

	snap, err := parse(dump(true))
	if err != nil {
		return nil, err
	}

	for _, g := range snap.Goroutines {
		if g.ID == id {
			return framesOf(g.Stack.Calls), nil
		}
	}

	return nil, errFactory.WithData(ErrGoroutineNotFound, id)
}

// CurrentGoroutineID returns the runtime ID of the calling goroutine.
func CurrentGoroutineID() int {
	snap, err := parse(dump(false))
	if err != nil || len(snap.Goroutines) == 0 {
		return 0
	}

	return snap.Goroutines[0].ID
}

func dump(all bool) []byte {
	buf := make([]byte, initialDumpSize)
	for {
		n := runtime.Stack(buf, all)
		if n < len(buf) || len(buf) >= maxDumpSize {
			return buf[:n]
		}
		buf = make([]byte, len(buf)*2)
	}
}

func parse(raw []byte) (*stack.Snapshot, error) {
	errFactory := errors.New()

	snap, _, err := stack.ScanSnapshot(bytes.NewReader(raw), io.Discard, &stack.Opts{})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errFactory.Wrap(ErrParseFailed, err)
	}
	if snap == nil {
		return nil, errFactory.New(ErrParseFailed)
	}

	return snap, nil
}

func framesOf(calls []stack.Call) []Frame {
	frames := make([]Frame, 0, len(calls))
	for _, call := range calls {
		owner, symbol := SplitFunc(call.Func.Complete)
		frames = append(frames, Frame{
			Owner:  owner,
			Symbol: symbol,
			File:   filepath.Base(call.RemoteSrcPath),
			Line:   call.Line,
		})
	}

	return frames
}
