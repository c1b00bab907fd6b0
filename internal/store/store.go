// Package store holds the per-visitor state the widget reads and writes:
// durable flags that survive page loads and tab-scoped flags that die with
// the browsing session.
package store

import (
	"context"
	"time"
)

// DurableStore persists per-visitor state across page loads: the purchase
// flag per product, the last-seen timestamp per popup, and the session
// record. Implementations are keyed to one visitor; concurrent tabs race
// last-writer-wins by design.
type DurableStore interface {
	PurchaseFlag(ctx context.Context, productID string) (bool, error)
	SetPurchaseFlag(ctx context.Context, productID string) error

	LastSeen(ctx context.Context, popupID string) (time.Time, bool, error)
	SetLastSeen(ctx context.Context, popupID string, at time.Time) error

	SessionRecord(ctx context.Context) (id string, createdAt time.Time, ok bool, err error)
	SetSessionRecord(ctx context.Context, id string, createdAt time.Time) error
}

// TabStore holds state scoped to the current browsing session: the
// impression flag per popup and the cached purchase token. It lives and
// dies with the engine instance, so it is in-process and infallible.
type TabStore interface {
	Impression(popupID string) bool
	SetImpression(popupID string)

	PurchaseToken() string
	SetPurchaseToken(token string)
}
