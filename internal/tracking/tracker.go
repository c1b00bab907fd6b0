// Package tracking fires analytics events at the remote service and
// records popup impressions. Tracking is strictly best-effort: a failed
// or slow event never surfaces to the visitor.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mysellkit/popup-engine/internal/sellkit"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Event type names sent over the wire.
const (
	EventImpression = "impression"
	EventClick      = "click"
	EventClose      = "close"
	EventPurchase   = "purchase"
)

// Remote is the slice of the API client the tracker needs.
type Remote interface {
	Track(ctx context.Context, event sellkit.TrackEvent) error
}

// Sessions resolves the visitor's session id at send time.
type Sessions interface {
	SessionID(ctx context.Context) string
}

// Tracker sends events asynchronously, detached from the caller's
// context so page teardown cannot cancel an in-flight send.
type Tracker struct {
	remote     Remote
	sessions   Sessions
	popupID    string
	productID  string
	pageURL    string
	userAgent  string
	diagnostic bool
	timeout    time.Duration
	logg       *logger.Logger

	wg sync.WaitGroup
}

// TrackerOptions carries the page-scoped identity stamped on every event.
type TrackerOptions struct {
	PopupID    string
	ProductID  string
	PageURL    string
	UserAgent  string
	Diagnostic bool
	Timeout    time.Duration
}

func NewTracker(remote Remote, sessions Sessions, opts TrackerOptions, logg *logger.Logger) (*Tracker, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session source required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Tracker{
		remote:     remote,
		sessions:   sessions,
		popupID:    opts.PopupID,
		productID:  opts.ProductID,
		pageURL:    opts.PageURL,
		userAgent:  opts.UserAgent,
		diagnostic: opts.Diagnostic,
		timeout:    opts.Timeout,
		logg:       logg,
	}, nil
}

// Record fires one event in the background and returns immediately.
// Diagnostic mode suppresses the send entirely so test visits never
// pollute analytics.
func (t *Tracker) Record(ctx context.Context, eventType string, extra map[string]string) {
	if t.diagnostic {
		if t.logg != nil {
			t.logg.Debug(t.logg.WithEventType(ctx, eventType), "diagnostic mode: event suppressed")
		}
		return
	}

	event := sellkit.TrackEvent{
		PopupID:   t.popupID,
		ProductID: t.productID,
		SessionID: t.sessions.SessionID(ctx),
		EventType: eventType,
		PageURL:   t.pageURL,
		UserAgent: t.userAgent,
		DebugMode: t.diagnostic,
		Extra:     extra,
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := t.remote.Track(sendCtx, event); err != nil && t.logg != nil {
			t.logg.Warn(
				t.logg.WithEventType(t.logg.WithField(sendCtx, "error", err.Error()), eventType),
				"event tracking failed",
			)
		}
	}()
}

// Wait blocks until all in-flight sends settle. Test and shutdown hook.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
