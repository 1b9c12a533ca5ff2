// Package debugger reports whether a tracer is attached to the process.
package debugger

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

const statusPath = "/proc/self/status"

// Probe answers whether a debugger is attached.
type Probe interface {
	Attached() bool
}

type procProbe struct {
	path string
}

// Proc returns a Probe backed by the TracerPid field of /proc/self/status.
// On systems without procfs it always reports false.
func Proc() Probe {
	return procProbe{path: statusPath}
}

func (p procProbe) Attached() bool {
	f, err := os.Open(p.path)
	if err != nil {
		return false
	}
	defer f.Close()

	pid, ok := TracerPid(f)
	return ok && pid != 0
}

// TracerPid extracts the TracerPid value from a proc status listing.
func TracerPid(r io.Reader) (int, bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		value, found := strings.CutPrefix(scanner.Text(), "TracerPid:")
		if !found {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return pid, true
	}

	return 0, false
}

type never struct{}

// Never returns a Probe that never reports a debugger.
func Never() Probe {
	return never{}
}

func (never) Attached() bool { return false }
