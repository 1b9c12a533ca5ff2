// Package snapshot captures what a goroutine is executing as an ordered list
// of frames.
package snapshot

import (
	"fmt"
	"strings"
)

// Frame is one call in a captured stack, innermost first.
type Frame struct {
	// Owner is the import path, plus the receiver for methods
	// (example.com/pkg.(*T)).
	Owner  string
	Symbol string
	File   string
	Line   int
}

// Function returns the fully qualified function name.
func (f Frame) Function() string {
	if f.Owner == "" {
		return f.Symbol
	}

	return f.Owner + "." + f.Symbol
}

func (f Frame) String() string {
	return fmt.Sprintf("%s(%s:%d)", f.Function(), f.File, f.Line)
}

// SplitFunc splits a fully qualified Go function name into owner and symbol.
//
//	example.com/pkg.(*T).Method -> example.com/pkg.(*T), Method
//	example.com/pkg.Func.func1  -> example.com/pkg, Func.func1
func SplitFunc(complete string) (owner, symbol string) {
	pkgStart := strings.LastIndex(complete, "/") + 1
	dot := strings.Index(complete[pkgStart:], ".")
	if dot < 0 {
		return "", complete
	}

	pkg := complete[:pkgStart+dot]
	rest := complete[pkgStart+dot+1:]

	if strings.HasPrefix(rest, "(") {
		if end := strings.Index(rest, ")."); end > 0 {
			return pkg + "." + rest[:end+1], rest[end+2:]
		}
	}

	return pkg, rest
}
