package trigger

import "sync"

// Exit fires on the first pointer-leave event at the top edge of the
// viewport. Pointer-leave anywhere else is ignored.
type Exit struct {
	mu    sync.Mutex
	fire  func()
	fired bool
}

func NewExit() *Exit {
	return &Exit{}
}

func (e *Exit) Name() string { return TypeExit }

func (e *Exit) Arm(fire func()) {
	e.mu.Lock()
	e.fire = fire
	e.mu.Unlock()
}

func (e *Exit) Disarm() {
	e.mu.Lock()
	e.fire = nil
	e.mu.Unlock()
}

// PointerLeave processes one pointer-leave event at vertical coordinate y.
func (e *Exit) PointerLeave(y float64) {
	if y > ExitTopThresholdPx {
		return
	}

	e.mu.Lock()
	if e.fired || e.fire == nil {
		e.mu.Unlock()
		return
	}
	e.fired = true
	fire := e.fire
	e.mu.Unlock()

	fire()
}
