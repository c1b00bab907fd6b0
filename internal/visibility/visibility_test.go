package visibility

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mysellkit/popup-engine/pkg/config"
)

type fakeSurface struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSurface) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSurface) ShowPopup()        { f.record("show_popup") }
func (f *fakeSurface) HidePopup()        { f.record("hide_popup") }
func (f *fakeSurface) ShowFloating()     { f.record("show_floating") }
func (f *fakeSurface) HideFloating()     { f.record("hide_floating") }
func (f *fakeSurface) EnablePaneScroll() { f.record("enable_pane_scroll") }

func (f *fakeSurface) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakePage struct {
	mu       sync.Mutex
	scrollY  float64
	locked   bool
	restored float64
}

func (f *fakePage) ScrollPosition() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrollY
}

func (f *fakePage) LockScroll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = true
}

func (f *fakePage) UnlockScroll(restoreTo float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = false
	f.restored = restoreTo
}

func newController(t *testing.T, persistent bool) (*Controller, *fakeSurface, *fakePage) {
	t.Helper()

	surface := &fakeSurface{}
	page := &fakePage{scrollY: 420}
	ctrl, err := NewController(surface, page, config.WidgetConfig{
		FloatingShowDelay: 10 * time.Millisecond,
		PaneScrollDelay:   5 * time.Millisecond,
	}, persistent, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl, surface, page
}

func TestOpenPopupLocksScrollAndEnablesPane(t *testing.T) {
	t.Parallel()

	ctrl, surface, page := newController(t, false)
	ctx := context.Background()

	if !ctrl.OpenPopup(ctx) {
		t.Fatal("first open should succeed")
	}
	if ctrl.OpenPopup(ctx) {
		t.Fatal("second open should be a no-op")
	}
	if ctrl.State() != StatePopupOpen {
		t.Fatalf("state = %v", ctrl.State())
	}
	if !page.locked {
		t.Fatal("page scroll not locked")
	}

	deadline := time.After(time.Second)
	for surface.count("enable_pane_scroll") == 0 {
		select {
		case <-deadline:
			t.Fatal("pane scroll never enabled")
		case <-time.After(time.Millisecond):
		}
	}

	if got := surface.count("show_popup"); got != 1 {
		t.Fatalf("show_popup called %d times", got)
	}
}

func TestCloseRestoresScrollPosition(t *testing.T) {
	t.Parallel()

	ctrl, _, page := newController(t, false)
	ctx := context.Background()

	ctrl.OpenPopup(ctx)
	if !ctrl.CloseFromUser(ctx) {
		t.Fatal("close should succeed while open")
	}
	if ctrl.CloseFromUser(ctx) {
		t.Fatal("close while hidden should be a no-op")
	}
	if ctrl.State() != StateHidden {
		t.Fatalf("state = %v", ctrl.State())
	}
	if page.locked {
		t.Fatal("scroll still locked after close")
	}
	if page.restored != 420 {
		t.Fatalf("restored scroll = %v, want 420", page.restored)
	}
}

func TestPersistentModeShowsFloatingOnClose(t *testing.T) {
	t.Parallel()

	ctrl, surface, _ := newController(t, true)
	ctx := context.Background()

	ctrl.OpenPopup(ctx)
	ctrl.CloseFromUser(ctx)

	// The floating button comes back after the show delay, not in the
	// same frame as the close.
	if surface.count("show_floating") != 0 {
		t.Fatal("floating button shown synchronously with close")
	}

	deadline := time.After(time.Second)
	for surface.count("show_floating") == 0 {
		select {
		case <-deadline:
			t.Fatal("floating button never shown after close")
		case <-time.After(time.Millisecond):
		}
	}
	if ctrl.State() != StateFloatingVisible {
		t.Fatalf("state = %v, want floating", ctrl.State())
	}
}

func TestFloatingDelayedShowIsCancelledByOpen(t *testing.T) {
	t.Parallel()

	ctrl, surface, _ := newController(t, false)
	ctx := context.Background()

	ctrl.ShowFloatingSoon(ctx)
	ctrl.OpenPopup(ctx)
	time.Sleep(50 * time.Millisecond)

	if surface.count("show_floating") != 0 {
		t.Fatal("scheduled floating show should have been cancelled")
	}
	if ctrl.State() != StatePopupOpen {
		t.Fatalf("state = %v", ctrl.State())
	}
}

func TestFloatingDelayedShowFiresWhenStillHidden(t *testing.T) {
	t.Parallel()

	ctrl, surface, _ := newController(t, false)
	ctx := context.Background()

	ctrl.ShowFloatingSoon(ctx)

	deadline := time.After(time.Second)
	for surface.count("show_floating") == 0 {
		select {
		case <-deadline:
			t.Fatal("floating never shown")
		case <-time.After(time.Millisecond):
		}
	}
	if ctrl.State() != StateFloatingVisible {
		t.Fatalf("state = %v", ctrl.State())
	}
}

func TestOpenFromFloatingReplacesIt(t *testing.T) {
	t.Parallel()

	ctrl, surface, _ := newController(t, false)
	ctx := context.Background()

	ctrl.ShowFloatingNow(ctx)
	if ctrl.State() != StateFloatingVisible {
		t.Fatalf("state = %v", ctrl.State())
	}

	ctrl.OpenPopup(ctx)
	if surface.count("hide_floating") != 1 {
		t.Fatal("floating not hidden when popup opened")
	}
	if ctrl.State() != StatePopupOpen {
		t.Fatalf("state = %v", ctrl.State())
	}
}

func TestHideAllFromEachState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("from popup", func(t *testing.T) {
		t.Parallel()
		ctrl, surface, page := newController(t, true)
		ctrl.OpenPopup(ctx)
		ctrl.HideAll(ctx)
		if ctrl.State() != StateHidden {
			t.Fatalf("state = %v", ctrl.State())
		}
		if page.locked {
			t.Fatal("scroll still locked")
		}
		if surface.count("show_floating") != 0 {
			t.Fatal("HideAll must not show floating even in persistent mode")
		}
	})

	t.Run("from floating", func(t *testing.T) {
		t.Parallel()
		ctrl, surface, _ := newController(t, false)
		ctrl.ShowFloatingNow(ctx)
		ctrl.HideAll(ctx)
		if ctrl.State() != StateHidden {
			t.Fatalf("state = %v", ctrl.State())
		}
		if surface.count("hide_floating") != 1 {
			t.Fatal("floating not hidden")
		}
	})
}
