// Package rules decides whether the popup may auto-trigger and whether
// the floating widget should show, from stored visitor state alone.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/mysellkit/popup-engine/internal/store"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Result is the outcome of one evaluation. Safe to recompute at any time;
// evaluation never mutates storage.
type Result struct {
	Purchased          bool
	HasImpression      bool
	WithinCooldown     bool
	CanAutoTrigger     bool
	ShouldShowFloating bool
}

// Evaluator computes display rules against the two storage scopes.
type Evaluator struct {
	durable    store.DurableStore
	tab        store.TabStore
	cooldown   time.Duration
	diagnostic bool
	logg       *logger.Logger
	now        func() time.Time
}

func NewEvaluator(durable store.DurableStore, tab store.TabStore, cooldown time.Duration, diagnostic bool, logg *logger.Logger) (*Evaluator, error) {
	if durable == nil {
		return nil, fmt.Errorf("durable store required")
	}
	if tab == nil {
		return nil, fmt.Errorf("tab store required")
	}
	if cooldown <= 0 {
		return nil, fmt.Errorf("cooldown must be positive")
	}
	return &Evaluator{
		durable:    durable,
		tab:        tab,
		cooldown:   cooldown,
		diagnostic: diagnostic,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// Evaluate reads current storage and derives the gating flags. A failed
// durable read logs and counts as "flag absent" so a degraded store never
// blocks the page.
func (e *Evaluator) Evaluate(ctx context.Context, popupID, productID string) Result {
	purchased, err := e.durable.PurchaseFlag(ctx, productID)
	if err != nil {
		e.warnRead(ctx, "purchase flag", err)
		purchased = false
	}

	hasImpression := e.tab.Impression(popupID)

	lastSeen, seenOK, err := e.durable.LastSeen(ctx, popupID)
	if err != nil {
		e.warnRead(ctx, "last-seen timestamp", err)
		seenOK = false
	}
	withinCooldown := seenOK && e.now().Sub(lastSeen) < e.cooldown

	return Result{
		Purchased:          purchased,
		HasImpression:      hasImpression,
		WithinCooldown:     withinCooldown,
		CanAutoTrigger:     !purchased && !hasImpression && (!withinCooldown || e.diagnostic),
		ShouldShowFloating: !purchased && hasImpression && !e.diagnostic,
	}
}

// AllowArming reports whether a trigger strategy may be armed at all.
// Manual triggers bypass the impression and cooldown gates: only the
// purchase flag blocks a deliberate click.
func AllowArming(manual bool, r Result) bool {
	if manual {
		return !r.Purchased
	}
	return r.CanAutoTrigger
}

func (e *Evaluator) warnRead(ctx context.Context, what string, err error) {
	if e.logg != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "display rules: "+what+" read failed, treating as absent")
	}
}
