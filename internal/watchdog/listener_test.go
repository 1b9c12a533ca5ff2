package watchdog_test

import (
	"testing"

	"codeberg.org/mutker/freezewatch/internal/errors"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"codeberg.org/mutker/freezewatch/internal/watchdog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiListenerIsolatesPanics(t *testing.T) {
	first, last := &collector{}, &collector{}
	multi := watchdog.MultiListener{
		first,
		watchdog.ListenerFunc(func(watchdog.FreezeEvent) { panic("broken") }),
		last,
	}

	event := watchdog.FreezeEvent{Severity: watchdog.SeverityJank, TaskDescription: "main.work"}
	assert.NotPanics(t, func() { multi.OnFreezeDetected(event) })

	assert.Equal(t, []watchdog.FreezeEvent{event}, first.Events())
	assert.Equal(t, []watchdog.FreezeEvent{event}, last.Events())
}

func TestLogListener(t *testing.T) {
	l := watchdog.NewLogListener(logger.Nop())
	assert.NotPanics(t, func() {
		l.OnFreezeDetected(watchdog.FreezeEvent{Severity: watchdog.SeverityJank})
		l.OnFreezeDetected(watchdog.FreezeEvent{Severity: watchdog.SeverityANR})
	})
}

func TestCompileWhitelist(t *testing.T) {
	wl, err := watchdog.CompileWhitelist(nil)
	require.NoError(t, err)
	assert.Nil(t, wl)

	wl, err = watchdog.CompileWhitelist([]string{`^example\.com/app/splash\.`, `\(startup\.go:\d+\)$`})
	require.NoError(t, err)
	require.NotNil(t, wl)

	assert.True(t, wl("example.com/app/splash.Show(splash.go:3)"))
	assert.True(t, wl("example.com/app.Init(startup.go:12)"))
	assert.False(t, wl("example.com/app.Load(load.go:7)"))

	_, err = watchdog.CompileWhitelist([]string{"("})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, watchdog.ErrInvalidWhitelist))
}

type pauseRecorder struct {
	calls []string
}

func (p *pauseRecorder) Pause()  { p.calls = append(p.calls, "pause") }
func (p *pauseRecorder) Resume() { p.calls = append(p.calls, "resume") }

func TestPauseControllerForwards(t *testing.T) {
	rec := &pauseRecorder{}
	c := watchdog.NewPauseController(rec)

	c.OnBackground()
	c.OnForeground()

	assert.Equal(t, []string{"pause", "resume"}, rec.calls)
}

func TestPauseControllerDrivesProtocol(t *testing.T) {
	p := newProtocol(t, testConfig(), watchdog.Collaborators{
		Scheduler: &stalledScheduler{},
		Capturer:  &fixedCapturer{},
		Listener:  &collector{},
	})
	c := watchdog.NewPauseController(p)

	c.OnBackground()
	assert.True(t, p.Paused())
	c.OnForeground()
	assert.False(t, p.Paused())
}
