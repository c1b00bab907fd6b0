// Package checkout runs the purchase flow: precondition gates, the
// remote session request, and the redirect handoff. The checkout button
// is put in a busy state for the duration and restored on any failure.
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mysellkit/popup-engine/internal/returns"
	"github.com/mysellkit/popup-engine/internal/sellkit"
	"github.com/mysellkit/popup-engine/internal/session"
	"github.com/mysellkit/popup-engine/internal/store"
	"github.com/mysellkit/popup-engine/internal/tracking"
	"github.com/mysellkit/popup-engine/pkg/errors"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Remote is the slice of the API client the orchestrator needs.
type Remote interface {
	CreateCheckoutSession(ctx context.Context, req sellkit.CheckoutRequest) (*sellkit.CheckoutSession, error)
}

// Sessions resolves the visitor's session id.
type Sessions interface {
	SessionID(ctx context.Context) string
}

// Control drives the checkout button's busy state.
type Control interface {
	Busy()
	Reset()
}

// Navigator performs the top-level navigation to the payment page.
type Navigator interface {
	Redirect(checkoutURL string)
}

// Notifier surfaces a short user-facing message.
type Notifier interface {
	Toast(message string)
}

// Hider tears the widget down before the page navigates away.
type Hider interface {
	HideAll(ctx context.Context)
}

// Orchestrator owns one popup's checkout flow.
type Orchestrator struct {
	remote        Remote
	sessions      Sessions
	durable       store.DurableStore
	tab           store.TabStore
	tracker       *tracking.Tracker
	control       Control
	navigator     Navigator
	notifier      Notifier
	hider         Hider
	cfg           *sellkit.PopupConfig
	pageURL       string
	checkoutBase  string
	diagnostic    bool
	redirectDelay time.Duration
	newToken      func() string
	logg          *logger.Logger
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Remote        Remote
	Sessions      Sessions
	Durable       store.DurableStore
	Tab           store.TabStore
	Tracker       *tracking.Tracker
	Control       Control
	Navigator     Navigator
	Notifier      Notifier
	Hider         Hider
	Config        *sellkit.PopupConfig
	PageURL       string
	CheckoutBase  string
	Diagnostic    bool
	RedirectDelay time.Duration
}

func NewOrchestrator(opts Options, logg *logger.Logger) (*Orchestrator, error) {
	switch {
	case opts.Remote == nil:
		return nil, fmt.Errorf("remote client required")
	case opts.Sessions == nil:
		return nil, fmt.Errorf("session source required")
	case opts.Durable == nil:
		return nil, fmt.Errorf("durable store required")
	case opts.Tab == nil:
		return nil, fmt.Errorf("tab store required")
	case opts.Tracker == nil:
		return nil, fmt.Errorf("tracker required")
	case opts.Control == nil:
		return nil, fmt.Errorf("button control required")
	case opts.Navigator == nil:
		return nil, fmt.Errorf("navigator required")
	case opts.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case opts.Hider == nil:
		return nil, fmt.Errorf("hider required")
	case opts.Config == nil:
		return nil, fmt.Errorf("popup config required")
	case opts.CheckoutBase == "":
		return nil, fmt.Errorf("checkout base required")
	}
	if opts.RedirectDelay < 0 {
		return nil, fmt.Errorf("redirect delay must not be negative")
	}
	return &Orchestrator{
		remote:        opts.Remote,
		sessions:      opts.Sessions,
		durable:       opts.Durable,
		tab:           opts.Tab,
		tracker:       opts.Tracker,
		control:       opts.Control,
		navigator:     opts.Navigator,
		notifier:      opts.Notifier,
		hider:         opts.Hider,
		cfg:           opts.Config,
		pageURL:       opts.PageURL,
		checkoutBase:  strings.TrimRight(opts.CheckoutBase, "/"),
		diagnostic:    opts.Diagnostic,
		redirectDelay: opts.RedirectDelay,
		newToken:      session.NewPurchaseToken,
		logg:          logg,
	}, nil
}

// Start runs one checkout attempt end to end. On success the widget is
// hidden and the redirect is scheduled; on failure the visitor sees a
// toast, and the button resets if it had gone busy. A gate failure
// short-circuits before any button state change. The returned error
// carries the same public message the toast showed.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.preconditions(ctx); err != nil {
		return o.reject(ctx, err)
	}
	o.control.Busy()

	token := o.newToken()
	o.tracker.Record(ctx, tracking.EventClick, map[string]string{"purchase_token": token})

	sess, err := o.remote.CreateCheckoutSession(ctx, sellkit.CheckoutRequest{
		PopupID:       o.cfg.PopupID,
		ProductID:     o.cfg.ProductID,
		SessionID:     o.sessions.SessionID(ctx),
		PurchaseToken: token,
		DebugMode:     o.diagnostic,
		SuccessURL:    o.checkoutBase + "/payment-processing?token=" + url.QueryEscape(token),
		CancelURL:     returns.AppendCancelMarker(o.pageURL),
	})
	if err != nil {
		return o.fail(ctx, err)
	}

	o.tab.SetPurchaseToken(token)
	o.hider.HideAll(ctx)
	time.AfterFunc(o.redirectDelay, func() {
		o.navigator.Redirect(sess.URL)
	})

	if o.logg != nil {
		o.logg.Info(o.logg.WithPopupID(ctx, o.cfg.PopupID), "checkout session created, redirecting")
	}
	return nil
}

// preconditions re-checks the gates at click time: ownership first, then
// payment configuration, then draft mode.
func (o *Orchestrator) preconditions(ctx context.Context) error {
	purchased, err := o.durable.PurchaseFlag(ctx, o.cfg.ProductID)
	if err != nil {
		if o.logg != nil {
			o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "purchase flag read failed, treating as absent")
		}
		purchased = false
	}
	if purchased {
		return errors.New(errors.CodePurchased, "You already own this product!")
	}
	if !o.cfg.StripeConnected {
		return errors.New(errors.CodeNotConfigured, "Payment processing not configured. Please contact the seller.")
	}
	if !o.cfg.Live {
		return errors.New(errors.CodeDraftMode, "This product is in draft mode. Checkout is disabled.")
	}
	return nil
}

// fail resets the busy button before surfacing the failure. Only used
// once the button has entered the busy state.
func (o *Orchestrator) fail(ctx context.Context, err error) error {
	o.control.Reset()
	return o.reject(ctx, err)
}

// reject surfaces a failure without touching the button. Gate failures
// land here before any state change.
func (o *Orchestrator) reject(ctx context.Context, err error) error {
	o.notifier.Toast(errors.PublicMessage(err))
	if o.logg != nil {
		o.logg.Warn(o.logg.WithField(ctx, "error", err.Error()), "checkout attempt failed")
	}
	return err
}
