package lifecycle_test

import (
	"testing"

	"codeberg.org/mutker/freezewatch/internal/lifecycle"
	"codeberg.org/mutker/freezewatch/internal/logger"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	calls []string
}

func (r *recorder) OnForeground() { r.calls = append(r.calls, "foreground") }
func (r *recorder) OnBackground() { r.calls = append(r.calls, "background") }

func TestDispatcherFansOut(t *testing.T) {
	d := lifecycle.NewDispatcher(logger.Nop())
	a, b := &recorder{}, &recorder{}
	d.Register(a)
	d.Register(b)

	d.Background()
	d.Foreground()

	assert.Equal(t, []string{"background", "foreground"}, a.calls)
	assert.Equal(t, []string{"background", "foreground"}, b.calls)
}

func TestRegisterIsKeyedByIdentity(t *testing.T) {
	d := lifecycle.NewDispatcher(logger.Nop())
	a := &recorder{}

	d.Register(a)
	d.Register(a)
	assert.Equal(t, 1, d.Len())

	d.Foreground()
	assert.Equal(t, []string{"foreground"}, a.calls)
}

func TestUnregister(t *testing.T) {
	d := lifecycle.NewDispatcher(logger.Nop())
	a, b := &recorder{}, &recorder{}
	d.Register(a)
	d.Register(b)

	d.Unregister(a)
	d.Unregister(a)
	d.Background()

	assert.Empty(t, a.calls)
	assert.Equal(t, []string{"background"}, b.calls)
	assert.Equal(t, 1, d.Len())
}

type selfRemoving struct {
	d     *lifecycle.Dispatcher
	calls int
}

func (s *selfRemoving) OnForeground() {
	s.calls++
	s.d.Unregister(s)
}
func (s *selfRemoving) OnBackground() {}

func TestObserverMayUnregisterDuringDispatch(t *testing.T) {
	d := lifecycle.NewDispatcher(logger.Nop())
	s := &selfRemoving{d: d}
	d.Register(s)

	d.Foreground()
	d.Foreground()

	assert.Equal(t, 1, s.calls)
	assert.Zero(t, d.Len())
}
