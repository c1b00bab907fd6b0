// Package session derives the stable per-visitor session identifier and
// generates checkout correlation tokens.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mysellkit/popup-engine/internal/store"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

const (
	idPrefix         = "msk_"
	diagnosticPrefix = "msk_debug_"
	tokenPrefix      = "pt_"
)

// Identity resolves the session id for the current page load: cached in
// memory once resolved, reused from durable storage while younger than
// the session duration, regenerated otherwise. Diagnostic mode always
// synthesizes a fresh id and never touches durable storage.
type Identity struct {
	durable    store.DurableStore
	duration   time.Duration
	diagnostic bool
	logg       *logger.Logger
	now        func() time.Time

	mu     sync.Mutex
	cached string
}

func NewIdentity(durable store.DurableStore, duration time.Duration, diagnostic bool, logg *logger.Logger) (*Identity, error) {
	if durable == nil {
		return nil, fmt.Errorf("durable store required")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("session duration must be positive")
	}
	return &Identity{
		durable:    durable,
		duration:   duration,
		diagnostic: diagnostic,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// SessionID returns the session identifier, idempotent within one page load.
func (i *Identity) SessionID(ctx context.Context) string {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cached != "" {
		return i.cached
	}

	now := i.now()

	if i.diagnostic {
		i.cached = newID(diagnosticPrefix, now, 9)
		i.debug(ctx, "diagnostic mode: new session per page load")
		return i.cached
	}

	id, createdAt, ok, err := i.durable.SessionRecord(ctx)
	if err != nil {
		i.warn(ctx, "session record read failed, regenerating", err)
		ok = false
	}
	if ok && now.Sub(createdAt) < i.duration {
		i.cached = id
		i.debug(ctx, "reusing stored session")
		return i.cached
	}

	i.cached = newID(idPrefix, now, 9)
	if err := i.durable.SetSessionRecord(ctx, i.cached, now); err != nil {
		i.warn(ctx, "session record write failed", err)
	}
	return i.cached
}

func (i *Identity) debug(ctx context.Context, msg string) {
	if i.logg != nil {
		i.logg.Debug(i.logg.WithSessionID(ctx, i.cached), msg)
	}
}

func (i *Identity) warn(ctx context.Context, msg string, err error) {
	if i.logg != nil {
		i.logg.Warn(i.logg.WithField(ctx, "error", err.Error()), msg)
	}
}

// NewPurchaseToken mints an opaque correlation id for one checkout
// attempt. Not a security credential.
func NewPurchaseToken() string {
	return newID(tokenPrefix, time.Now(), 12)
}

func newID(prefix string, at time.Time, suffixLen int) string {
	return fmt.Sprintf("%s%d_%s", prefix, at.UnixMilli(), randomSuffix(suffixLen))
}

func randomSuffix(length int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if length > len(raw) {
		length = len(raw)
	}
	return raw[:length]
}
