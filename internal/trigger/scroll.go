package trigger

import (
	"math"
	"sync"
)

// Scroll fires when the page scroll depth first reaches the configured
// percentage. Pages with no scrollable range count as fully scrolled, so
// the first scroll event fires immediately.
type Scroll struct {
	threshold float64

	mu      sync.Mutex
	fire    func()
	fired   bool
	percent float64
}

func NewScroll(threshold float64) *Scroll {
	return &Scroll{threshold: threshold}
}

func (s *Scroll) Name() string { return TypeScroll }

func (s *Scroll) Arm(fire func()) {
	s.mu.Lock()
	s.fire = fire
	s.mu.Unlock()
}

func (s *Scroll) Disarm() {
	s.mu.Lock()
	s.fire = nil
	s.mu.Unlock()
}

// Observe processes one scroll event. scrollY is the current offset,
// docHeight the full document height, viewport the window height.
func (s *Scroll) Observe(scrollY, docHeight, viewport float64) {
	percent := scrollPercent(scrollY, docHeight, viewport)

	s.mu.Lock()
	s.percent = percent
	if s.fired || s.fire == nil || percent < s.threshold {
		s.mu.Unlock()
		return
	}
	s.fired = true
	fire := s.fire
	s.mu.Unlock()

	fire()
}

// Percent reports the latest observed scroll depth, rounded, for status
// displays.
func (s *Scroll) Percent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(math.Round(s.percent))
}

func scrollPercent(scrollY, docHeight, viewport float64) float64 {
	scrollable := docHeight - viewport
	if scrollable <= 0 {
		return 100
	}
	return scrollY / scrollable * 100
}
