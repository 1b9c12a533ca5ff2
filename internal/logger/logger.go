package logger

import (
	"io"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"github.com/rs/zerolog"
)

var log atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	log.Store(&nop)
}

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// ParseLevel maps a configured level name to a LogLevel.
func ParseLevel(name string) (LogLevel, bool) {
	switch name {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warning", "warn":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	default:
		return WarnLevel, false
	}
}

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the logger based on the given configuration
func Init(level LogLevel, isService bool) {
	InitWithWriter(os.Stdout, level, isService)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(out io.Writer, level LogLevel, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	l := zerolog.New(output).With().Timestamp().Logger()
	log.Store(&l)

	SetLogLevel(level)
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Load().Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Load().Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Load().Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Load().Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Load().Error(), err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Load().Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return withCode(log.Load().Fatal(), err)
}

func withCode(e *zerolog.Event, err errors.Error) *LogEvent {
	return &LogEvent{e.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// component tags every event with the component that emitted it. The global
// logger is resolved per event so components created before Init still log.
type component struct {
	name string
}

// New returns a Logger whose events carry a component field.
func New(name string) Logger {
	return component{name: name}
}

func (c component) Debug() *LogEvent {
	return &LogEvent{log.Load().Debug().Str("component", c.name)}
}

func (c component) Info() *LogEvent {
	return &LogEvent{log.Load().Info().Str("component", c.name)}
}

func (c component) Warn() *LogEvent {
	return &LogEvent{log.Load().Warn().Str("component", c.name)}
}

func (c component) Error() *LogEvent {
	return &LogEvent{log.Load().Error().Str("component", c.name)}
}

func (c component) ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Load().Error().Str("component", c.name), err)
}

type nop struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nop{}
}

func (nop) Debug() *LogEvent { return &LogEvent{} }

func (nop) Info() *LogEvent { return &LogEvent{} }

func (nop) Warn() *LogEvent { return &LogEvent{} }

func (nop) Error() *LogEvent { return &LogEvent{} }

func (nop) ErrorWithCode(errors.Error) *LogEvent { return &LogEvent{} }
