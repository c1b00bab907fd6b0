package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mysellkit/popup-engine/pkg/redis"
)

// Redis implements DurableStore on a per-visitor redis keyspace for
// server-side hosts that track visitors across devices/processes.
type Redis struct {
	client    *redis.Client
	visitorID string
	ttl       time.Duration
}

// NewRedis binds the durable store to one visitor's keyspace. ttl bounds
// how long untouched visitor state lingers; zero keeps it forever.
func NewRedis(client *redis.Client, visitorID string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if visitorID == "" {
		return nil, fmt.Errorf("visitor id required")
	}
	return &Redis{client: client, visitorID: visitorID, ttl: ttl}, nil
}

func (r *Redis) key(name string) string {
	return r.client.VisitorKey(r.visitorID, name)
}

func (r *Redis) getOptional(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) PurchaseFlag(ctx context.Context, productID string) (bool, error) {
	_, ok, err := r.getOptional(ctx, r.key(purchasedKey(productID)))
	return ok, err
}

func (r *Redis) SetPurchaseFlag(ctx context.Context, productID string) error {
	// Purchase flags are permanent regardless of the visitor-state TTL.
	return r.client.Set(ctx, r.key(purchasedKey(productID)), "true", 0)
}

func (r *Redis) LastSeen(ctx context.Context, popupID string) (time.Time, bool, error) {
	raw, ok, err := r.getOptional(ctx, r.key(seenKey(popupID)))
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, valid := parseMillis(raw)
	if !valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (r *Redis) SetLastSeen(ctx context.Context, popupID string, at time.Time) error {
	return r.client.Set(ctx, r.key(seenKey(popupID)), formatMillis(at.UnixMilli()), r.ttl)
}

func (r *Redis) SessionRecord(ctx context.Context) (string, time.Time, bool, error) {
	id, ok, err := r.getOptional(ctx, r.key(keySession))
	if err != nil || !ok {
		return "", time.Time{}, false, err
	}
	raw, ok, err := r.getOptional(ctx, r.key(keySessionTime))
	if err != nil || !ok {
		return "", time.Time{}, false, err
	}
	ms, valid := parseMillis(raw)
	if !valid {
		return "", time.Time{}, false, nil
	}
	return id, time.UnixMilli(ms), true, nil
}

func (r *Redis) SetSessionRecord(ctx context.Context, id string, createdAt time.Time) error {
	if err := r.client.Set(ctx, r.key(keySession), id, r.ttl); err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(keySessionTime), formatMillis(createdAt.UnixMilli()), r.ttl)
}
