package trigger

import (
	"sync"
	"time"
)

// Timed fires once after the configured number of seconds. A parallel
// per-second counter can drive a live status display through OnTick; it
// never fires the trigger itself.
type Timed struct {
	after time.Duration

	mu      sync.Mutex
	fired   bool
	timer   *time.Timer
	ticker  *time.Ticker
	done    chan struct{}
	elapsed int
	onTick  func(seconds int)
}

func NewTimed(seconds float64) *Timed {
	return &Timed{after: time.Duration(seconds * float64(time.Second))}
}

func (t *Timed) Name() string { return TypeTime }

// OnTick installs the status callback; must be called before Arm.
func (t *Timed) OnTick(fn func(seconds int)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

func (t *Timed) Arm(fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil || t.fired {
		return
	}

	t.timer = time.AfterFunc(t.after, func() {
		t.mu.Lock()
		if t.fired {
			t.mu.Unlock()
			return
		}
		t.fired = true
		t.mu.Unlock()
		fire()
	})

	t.startCounter()
}

// startCounter runs the per-second status counter until the threshold or
// Disarm. It feeds Elapsed and the optional OnTick callback and never
// fires the trigger itself. Caller holds t.mu.
func (t *Timed) startCounter() {
	limit := int(t.after / time.Second)
	t.ticker = time.NewTicker(time.Second)
	t.done = make(chan struct{})
	ticker, done := t.ticker, t.done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				t.mu.Lock()
				t.elapsed++
				elapsed, notify := t.elapsed, t.onTick
				stop := elapsed >= limit
				t.mu.Unlock()
				if notify != nil {
					notify(elapsed)
				}
				if stop {
					ticker.Stop()
					return
				}
			}
		}
	}()
}

func (t *Timed) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
	}
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
}

// Elapsed reports the counted seconds for status displays.
func (t *Timed) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}
