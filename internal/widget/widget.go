// Package widget is the engine facade the host embeds: it wires the
// config fetch, display rules, trigger strategies, visibility machine,
// and checkout flow behind a small event-driven API. The host forwards
// page events (scroll, pointer, clicks) and implements the narrow output
// interfaces; everything in between is the engine's job.
package widget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mysellkit/popup-engine/internal/checkout"
	"github.com/mysellkit/popup-engine/internal/returns"
	"github.com/mysellkit/popup-engine/internal/rules"
	"github.com/mysellkit/popup-engine/internal/sellkit"
	"github.com/mysellkit/popup-engine/internal/session"
	"github.com/mysellkit/popup-engine/internal/store"
	"github.com/mysellkit/popup-engine/internal/tracking"
	"github.com/mysellkit/popup-engine/internal/trigger"
	"github.com/mysellkit/popup-engine/internal/visibility"
	"github.com/mysellkit/popup-engine/pkg/config"
	"github.com/mysellkit/popup-engine/pkg/errors"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Remote is the full API surface the engine consumes.
type Remote interface {
	FetchPopupConfig(ctx context.Context, popupID string) (*sellkit.PopupConfig, error)
	CheckoutBase() string
	tracking.Remote
	checkout.Remote
}

// Options carries the host environment and collaborators for one engine
// instance. One instance serves one popup on one page load.
type Options struct {
	PopupID       string
	PageURL       string
	UserAgent     string
	ViewportWidth int

	Remote  Remote
	Durable store.DurableStore
	Tab     store.TabStore

	Surface   visibility.Surface
	Page      visibility.Page
	Control   checkout.Control
	Navigator checkout.Navigator
	Notifier  checkout.Notifier
	History   returns.History

	Session config.SessionConfig
	Widget  config.WidgetConfig

	// Diagnostic puts the engine in test mode: fresh session per load,
	// no durable writes for display state, cooldown ignored.
	Diagnostic bool
}

// Engine is the embeddable popup engine.
type Engine struct {
	opts     Options
	logg     *logger.Logger
	identity *session.Identity
	eval     *rules.Evaluator
	control  *visibility.Controller
	retHand  *returns.Handler

	mu          sync.Mutex
	cfg         *sellkit.PopupConfig
	tracker     *tracking.Tracker
	impressions *tracking.Impressions
	orch        *checkout.Orchestrator
	scroll      *trigger.Scroll
	timed       *trigger.Timed
	exit        *trigger.Exit
	manual      *trigger.Manual
	initialized bool
	inert       bool
	inertReason string
}

func New(opts Options, logg *logger.Logger) (*Engine, error) {
	switch {
	case opts.Remote == nil:
		return nil, fmt.Errorf("remote client required")
	case opts.Durable == nil:
		return nil, fmt.Errorf("durable store required")
	case opts.Tab == nil:
		return nil, fmt.Errorf("tab store required")
	case opts.Surface == nil:
		return nil, fmt.Errorf("surface required")
	case opts.Page == nil:
		return nil, fmt.Errorf("page required")
	case opts.Control == nil:
		return nil, fmt.Errorf("button control required")
	case opts.Navigator == nil:
		return nil, fmt.Errorf("navigator required")
	case opts.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case opts.History == nil:
		return nil, fmt.Errorf("history required")
	}

	identity, err := session.NewIdentity(opts.Durable, opts.Session.Duration, opts.Diagnostic, logg)
	if err != nil {
		return nil, err
	}
	eval, err := rules.NewEvaluator(opts.Durable, opts.Tab, opts.Session.Duration, opts.Diagnostic, logg)
	if err != nil {
		return nil, err
	}
	retHand, err := returns.NewHandler(opts.History, logg)
	if err != nil {
		return nil, err
	}

	return &Engine{
		opts:     opts,
		logg:     logg,
		identity: identity,
		eval:     eval,
		retHand:  retHand,
	}, nil
}

// Init runs the page-load sequence: fetch config, consume any checkout
// return marker, evaluate display rules, and arm the configured trigger.
// A missing popup id or failed config fetch is an error; a popup that is
// simply not eligible to show leaves the engine inert without error.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return fmt.Errorf("engine already initialized")
	}
	e.initialized = true

	if e.opts.PopupID == "" {
		return errors.New(errors.CodeValidation, "popup id is required")
	}
	ctx = e.withLogFields(ctx)

	cfg, err := e.opts.Remote.FetchPopupConfig(ctx, e.opts.PopupID)
	if err != nil {
		if e.logg != nil {
			e.logg.Error(ctx, "popup config fetch failed", err)
		}
		return err
	}
	e.cfg = cfg

	if !e.opts.Diagnostic {
		if !cfg.Live {
			e.becomeInert(ctx, "popup not live")
			return nil
		}
		if !cfg.StripeConnected {
			e.becomeInert(ctx, "payment provider not connected")
			return nil
		}
	}

	if err := e.buildCollaborators(ctx); err != nil {
		return err
	}

	ret := e.retHand.Handle(ctx, e.opts.PageURL)
	if ret.Cancelled {
		e.handleCancelledReturn(ctx)
	}
	if ret.Success {
		e.completePurchase(ctx)
		return nil
	}

	result := e.eval.Evaluate(ctx, cfg.PopupID, cfg.ProductID)
	switch {
	case result.Purchased:
		e.becomeInert(ctx, "product already purchased")
	case trigger.IsManual(cfg.TriggerType):
		// Click mode ignores impressions and cooldown, only the
		// purchase flag above blocks it.
		e.armManual(ctx)
	case result.ShouldShowFloating && cfg.PersistentMode:
		e.control.ShowFloatingSoon(ctx)
	case result.CanAutoTrigger:
		if e.showFloatingInstead() {
			e.control.ShowFloatingSoon(ctx)
		} else {
			e.armAuto(ctx)
		}
	default:
		e.becomeInert(ctx, "cooldown active")
	}
	return nil
}

// buildCollaborators wires the config-dependent pieces once the popup
// configuration is known. Caller holds the lock.
func (e *Engine) buildCollaborators(ctx context.Context) error {
	var err error
	e.tracker, err = tracking.NewTracker(e.opts.Remote, e.identity, tracking.TrackerOptions{
		PopupID:    e.cfg.PopupID,
		ProductID:  e.cfg.ProductID,
		PageURL:    e.opts.PageURL,
		UserAgent:  e.opts.UserAgent,
		Diagnostic: e.opts.Diagnostic,
	}, e.logg)
	if err != nil {
		return err
	}
	e.impressions, err = tracking.NewImpressions(e.opts.Durable, e.opts.Tab, e.tracker, e.opts.Diagnostic, e.logg)
	if err != nil {
		return err
	}
	e.control, err = visibility.NewController(e.opts.Surface, e.opts.Page, e.opts.Widget, e.cfg.PersistentMode, e.logg)
	if err != nil {
		return err
	}
	e.orch, err = checkout.NewOrchestrator(checkout.Options{
		Remote:        e.opts.Remote,
		Sessions:      e.identity,
		Durable:       e.opts.Durable,
		Tab:           e.opts.Tab,
		Tracker:       e.tracker,
		Control:       e.opts.Control,
		Navigator:     e.opts.Navigator,
		Notifier:      e.opts.Notifier,
		Hider:         e.control,
		Config:        e.cfg,
		PageURL:       e.opts.PageURL,
		CheckoutBase:  e.opts.Remote.CheckoutBase(),
		Diagnostic:    e.opts.Diagnostic,
		RedirectDelay: e.opts.Widget.RedirectDelay,
	}, e.logg)
	return err
}

// completePurchase handles the success return: the purchase flag is
// written, the completion event is sent with the token minted at click
// time, and the visitor sees a confirmation. Caller holds the lock.
func (e *Engine) completePurchase(ctx context.Context) {
	if err := e.opts.Durable.SetPurchaseFlag(ctx, e.cfg.ProductID); err != nil && e.logg != nil {
		e.logg.Error(ctx, "purchase flag write failed", err)
	}

	var extra map[string]string
	if token := e.opts.Tab.PurchaseToken(); token != "" {
		extra = map[string]string{"purchase_token": token}
	}
	e.tracker.Record(ctx, tracking.EventPurchase, extra)

	e.opts.Notifier.Toast("Purchase successful! You now own this product.")
	e.becomeInert(ctx, "purchase completed")
}

// handleCancelledReturn notifies the visitor and, in persistent mode,
// brings the floating widget back shortly after so the offer stays
// reachable. Normal rule evaluation and arming continue afterwards.
// Caller holds the lock.
func (e *Engine) handleCancelledReturn(ctx context.Context) {
	e.opts.Notifier.Toast("Payment not completed.")
	if !e.cfg.PersistentMode {
		return
	}
	control := e.control
	time.AfterFunc(e.opts.Widget.CancelReshowDelay, func() {
		control.ShowFloatingNow(ctx)
	})
}

func (e *Engine) becomeInert(ctx context.Context, reason string) {
	e.inert = true
	e.inertReason = reason
	if e.logg != nil {
		e.logg.Info(e.logg.WithField(ctx, "reason", reason), "popup will not arm")
	}
}

// showFloatingInstead reports whether the floating button replaces the
// auto-opening popup on small screens.
func (e *Engine) showFloatingInstead() bool {
	return e.cfg.MobileFloating && e.opts.ViewportWidth > 0 && e.opts.ViewportWidth <= e.opts.Widget.MobileBreakpoint
}

// armManual wires the click trigger. Caller holds the lock.
func (e *Engine) armManual(ctx context.Context) {
	e.manual = trigger.NewManual()
	e.manual.Arm(func() { e.openPopup(ctx) })
}

// armAuto wires the configured automatic trigger. Caller holds the lock.
func (e *Engine) armAuto(ctx context.Context) {
	fire := func() { e.openPopup(ctx) }
	switch strat := trigger.ForConfig(e.cfg.TriggerType, e.cfg.TriggerValue).(type) {
	case *trigger.Scroll:
		e.scroll = strat
	case *trigger.Timed:
		e.timed = strat
	case *trigger.Exit:
		e.exit = strat
	default:
		if e.logg != nil {
			e.logg.Warn(ctx, "unrecognized trigger strategy, popup will not arm")
		}
		return
	}
	switch {
	case e.scroll != nil:
		e.scroll.Arm(fire)
	case e.timed != nil:
		e.timed.Arm(fire)
	case e.exit != nil:
		e.exit.Arm(fire)
	}
}

// openPopup shows the popup and records the impression. Safe to call
// from timer goroutines.
func (e *Engine) openPopup(ctx context.Context) {
	e.mu.Lock()
	control, impressions := e.control, e.impressions
	popupID := ""
	if e.cfg != nil {
		popupID = e.cfg.PopupID
	}
	e.mu.Unlock()

	if control == nil {
		return
	}
	if control.OpenPopup(ctx) && impressions != nil {
		impressions.Record(ctx, popupID)
	}
}

// OnScroll forwards a page scroll sample to the scroll trigger.
func (e *Engine) OnScroll(scrollY, docHeight, viewport float64) {
	e.mu.Lock()
	strat := e.scroll
	e.mu.Unlock()
	if strat != nil {
		strat.Observe(scrollY, docHeight, viewport)
	}
}

// OnPointerLeave forwards a pointer-leave event to the exit trigger.
func (e *Engine) OnPointerLeave(y float64) {
	e.mu.Lock()
	strat := e.exit
	e.mu.Unlock()
	if strat != nil {
		strat.PointerLeave(y)
	}
}

// OnTriggerClick handles a click on the host's designated trigger
// element. Only meaningful for click-triggered popups.
func (e *Engine) OnTriggerClick() {
	e.mu.Lock()
	strat := e.manual
	e.mu.Unlock()
	if strat != nil {
		strat.Click()
	}
}

// OnFloatingClick opens the popup from the floating button.
func (e *Engine) OnFloatingClick(ctx context.Context) {
	e.openPopup(e.withLogFields(ctx))
}

// OnClose handles the visitor dismissing the popup.
func (e *Engine) OnClose(ctx context.Context) {
	e.mu.Lock()
	control, tracker := e.control, e.tracker
	e.mu.Unlock()
	if control == nil {
		return
	}
	if control.CloseFromUser(e.withLogFields(ctx)) && tracker != nil {
		tracker.Record(ctx, tracking.EventClose, nil)
	}
}

// OnCheckoutClick starts the checkout flow from the popup's buy button.
func (e *Engine) OnCheckoutClick(ctx context.Context) error {
	e.mu.Lock()
	orch := e.orch
	e.mu.Unlock()
	if orch == nil {
		return errors.New(errors.CodeInternal, "engine not initialized")
	}
	return orch.Start(e.withLogFields(ctx))
}

// Open opens the popup on demand, the programmatic entry point the host
// exposes to merchant pages. The popup id must match the one the engine
// was initialized with, and an owned product never reopens.
func (e *Engine) Open(ctx context.Context, popupID string) bool {
	e.mu.Lock()
	cfg := e.cfg
	e.mu.Unlock()
	if cfg == nil {
		return false
	}
	ctx = e.withLogFields(ctx)

	if popupID != "" && popupID != cfg.PopupID {
		if e.logg != nil {
			e.logg.Warn(e.logg.WithField(ctx, "requested_popup_id", popupID), "open request for a different popup ignored")
		}
		return false
	}

	purchased, err := e.opts.Durable.PurchaseFlag(ctx, cfg.ProductID)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "purchase flag read failed, treating as absent")
		}
		purchased = false
	}
	if purchased {
		e.opts.Notifier.Toast("You already own this product!")
		return false
	}

	e.openPopup(ctx)
	return true
}

// Wait blocks until background tracking sends settle. Shutdown hook.
func (e *Engine) Wait() {
	e.mu.Lock()
	tracker := e.tracker
	e.mu.Unlock()
	if tracker != nil {
		tracker.Wait()
	}
}

func (e *Engine) withLogFields(ctx context.Context) context.Context {
	if e.logg == nil {
		return ctx
	}
	return e.logg.WithPopupID(ctx, e.opts.PopupID)
}
