package watchdog

// Pausable is the part of a Protocol a PauseController drives.
type Pausable interface {
	Pause()
	Resume()
}

// PauseController forwards lifecycle transitions to a protocol: foreground
// resumes it, background pauses it.
type PauseController struct {
	target Pausable
}

func NewPauseController(target Pausable) *PauseController {
	return &PauseController{target: target}
}

func (c *PauseController) OnForeground() {
	c.target.Resume()
}

func (c *PauseController) OnBackground() {
	c.target.Pause()
}
