package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/mysellkit/popup-engine/internal/store"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Impressions records that a popup was shown. The impression event and
// the tab flag fire once per browsing session; the durable last-seen
// timestamp refreshes on every show so the cooldown window restarts.
// Diagnostic mode skips the durable write to keep test runs repeatable.
type Impressions struct {
	durable    store.DurableStore
	tab        store.TabStore
	tracker    *Tracker
	diagnostic bool
	logg       *logger.Logger
	now        func() time.Time
}

func NewImpressions(durable store.DurableStore, tab store.TabStore, tracker *Tracker, diagnostic bool, logg *logger.Logger) (*Impressions, error) {
	if durable == nil {
		return nil, fmt.Errorf("durable store required")
	}
	if tab == nil {
		return nil, fmt.Errorf("tab store required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker required")
	}
	return &Impressions{
		durable:    durable,
		tab:        tab,
		tracker:    tracker,
		diagnostic: diagnostic,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// Record marks the popup as seen. Returns true when this was the first
// impression of the browsing session.
func (i *Impressions) Record(ctx context.Context, popupID string) bool {
	first := !i.tab.Impression(popupID)
	if first {
		i.tab.SetImpression(popupID)
		i.tracker.Record(ctx, EventImpression, nil)
	}

	if !i.diagnostic {
		if err := i.durable.SetLastSeen(ctx, popupID, i.now()); err != nil && i.logg != nil {
			i.logg.Warn(
				i.logg.WithPopupID(i.logg.WithField(ctx, "error", err.Error()), popupID),
				"last-seen write failed",
			)
		}
	}
	return first
}
