// Package visibility owns the widget's single visibility state machine:
// at most one of the popup or the floating button is showing, and every
// transition goes through the controller so competing timers and clicks
// cannot double-show.
package visibility

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mysellkit/popup-engine/pkg/config"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// State is the controller's current visible element.
type State string

const (
	StateHidden          State = "hidden"
	StatePopupOpen       State = "popup_open"
	StateFloatingVisible State = "floating_visible"
)

// Surface renders and removes the widget's visible elements. Implemented
// by the host; every method is a plain UI effect with no return path.
type Surface interface {
	ShowPopup()
	HidePopup()
	ShowFloating()
	HideFloating()
	EnablePaneScroll()
}

// Page controls the page behind the popup. Scroll position is captured
// before locking so closing restores the visitor exactly where they were.
type Page interface {
	ScrollPosition() float64
	LockScroll()
	UnlockScroll(restoreTo float64)
}

// Controller serializes visibility transitions. All public methods are
// safe for concurrent use; UI effects run outside the lock.
type Controller struct {
	surface        Surface
	page           Page
	floatingDelay  time.Duration
	paneDelay      time.Duration
	persistentMode bool
	logg           *logger.Logger

	mu            sync.Mutex
	state         State
	savedScroll   float64
	floatingTimer *time.Timer
	paneTimer     *time.Timer
}

func NewController(surface Surface, page Page, cfg config.WidgetConfig, persistentMode bool, logg *logger.Logger) (*Controller, error) {
	if surface == nil {
		return nil, fmt.Errorf("surface required")
	}
	if page == nil {
		return nil, fmt.Errorf("page required")
	}
	return &Controller{
		surface:        surface,
		page:           page,
		floatingDelay:  cfg.FloatingShowDelay,
		paneDelay:      cfg.PaneScrollDelay,
		persistentMode: persistentMode,
		logg:           logg,
		state:          StateHidden,
	}, nil
}

// State reports the current visibility state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OpenPopup shows the popup, replacing the floating button if it is up.
// Reports false when the popup is already open.
func (c *Controller) OpenPopup(ctx context.Context) bool {
	c.mu.Lock()
	if c.state == StatePopupOpen {
		c.mu.Unlock()
		return false
	}
	wasFloating := c.state == StateFloatingVisible
	c.cancelTimersLocked()
	c.state = StatePopupOpen
	c.savedScroll = c.page.ScrollPosition()
	c.paneTimer = time.AfterFunc(c.paneDelay, c.enablePaneScroll)
	c.mu.Unlock()

	if wasFloating {
		c.surface.HideFloating()
	}
	c.page.LockScroll()
	c.surface.ShowPopup()
	c.debug(ctx, "popup opened")
	return true
}

// enablePaneScroll lets the popup's content pane scroll once the open
// animation settles. Skipped if the popup closed in the meantime.
func (c *Controller) enablePaneScroll() {
	c.mu.Lock()
	open := c.state == StatePopupOpen
	c.mu.Unlock()
	if open {
		c.surface.EnablePaneScroll()
	}
}

// ShowFloatingSoon schedules the floating button after the configured
// delay. The show is abandoned if anything else changes visibility first.
func (c *Controller) ShowFloatingSoon(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHidden {
		return
	}
	if c.floatingTimer != nil {
		c.floatingTimer.Stop()
	}
	c.floatingTimer = time.AfterFunc(c.floatingDelay, func() {
		c.showFloatingIfHidden(ctx)
	})
}

// ShowFloatingNow shows the floating button immediately when hidden.
func (c *Controller) ShowFloatingNow(ctx context.Context) {
	c.showFloatingIfHidden(ctx)
}

func (c *Controller) showFloatingIfHidden(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateHidden {
		c.mu.Unlock()
		return
	}
	c.state = StateFloatingVisible
	c.mu.Unlock()

	c.surface.ShowFloating()
	c.debug(ctx, "floating button shown")
}

// CloseFromUser handles the visitor dismissing the popup. In persistent
// mode the floating button takes the popup's place so the offer stays
// reachable, after the usual delay so it does not collide with the
// close animation. Reports false when the popup was not open.
func (c *Controller) CloseFromUser(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != StatePopupOpen {
		c.mu.Unlock()
		return false
	}
	c.cancelTimersLocked()
	restoreTo := c.savedScroll
	c.state = StateHidden
	c.mu.Unlock()

	c.surface.HidePopup()
	c.page.UnlockScroll(restoreTo)
	if c.persistentMode {
		c.ShowFloatingSoon(ctx)
	}
	c.debug(ctx, "popup closed by visitor")
	return true
}

// HideAll tears down every visible element and pending timer. Used when
// the visitor purchases or checkout navigates away.
func (c *Controller) HideAll(ctx context.Context) {
	c.mu.Lock()
	prev := c.state
	restoreTo := c.savedScroll
	c.cancelTimersLocked()
	c.state = StateHidden
	c.mu.Unlock()

	switch prev {
	case StatePopupOpen:
		c.surface.HidePopup()
		c.page.UnlockScroll(restoreTo)
	case StateFloatingVisible:
		c.surface.HideFloating()
	}
	c.debug(ctx, "widget hidden")
}

func (c *Controller) cancelTimersLocked() {
	if c.floatingTimer != nil {
		c.floatingTimer.Stop()
		c.floatingTimer = nil
	}
	if c.paneTimer != nil {
		c.paneTimer.Stop()
		c.paneTimer = nil
	}
}

func (c *Controller) debug(ctx context.Context, msg string) {
	if c.logg != nil {
		c.logg.Debug(ctx, msg)
	}
}
