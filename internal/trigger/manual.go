package trigger

import "sync"

// Manual arms a caller-designated on-page element. Unlike the automatic
// strategies it stays live for the whole page: the visitor may close the
// popup and deliberately reopen it. Only the purchase check, applied by
// the caller, blocks it.
type Manual struct {
	mu   sync.Mutex
	fire func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Name() string { return TypeClick }

func (m *Manual) Arm(fire func()) {
	m.mu.Lock()
	m.fire = fire
	m.mu.Unlock()
}

func (m *Manual) Disarm() {
	m.mu.Lock()
	m.fire = nil
	m.mu.Unlock()
}

// Click processes a click on the trigger element.
func (m *Manual) Click() {
	m.mu.Lock()
	fire := m.fire
	m.mu.Unlock()
	if fire != nil {
		fire()
	}
}
