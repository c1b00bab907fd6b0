package store

import (
	"context"
	"sync"
	"time"
)

// Memory implements both stores in process. It backs the tab scope in
// every deployment and the durable scope in tests and the simulator.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.values[key]
	return val, ok
}

func (m *Memory) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *Memory) PurchaseFlag(_ context.Context, productID string) (bool, error) {
	_, ok := m.get(purchasedKey(productID))
	return ok, nil
}

func (m *Memory) SetPurchaseFlag(_ context.Context, productID string) error {
	m.set(purchasedKey(productID), "true")
	return nil
}

func (m *Memory) LastSeen(_ context.Context, popupID string) (time.Time, bool, error) {
	raw, ok := m.get(seenKey(popupID))
	if !ok {
		return time.Time{}, false, nil
	}
	ms, ok := parseMillis(raw)
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (m *Memory) SetLastSeen(_ context.Context, popupID string, at time.Time) error {
	m.set(seenKey(popupID), formatMillis(at.UnixMilli()))
	return nil
}

func (m *Memory) SessionRecord(_ context.Context) (string, time.Time, bool, error) {
	id, ok := m.get(keySession)
	if !ok {
		return "", time.Time{}, false, nil
	}
	raw, ok := m.get(keySessionTime)
	if !ok {
		return "", time.Time{}, false, nil
	}
	ms, ok := parseMillis(raw)
	if !ok {
		return "", time.Time{}, false, nil
	}
	return id, time.UnixMilli(ms), true, nil
}

func (m *Memory) SetSessionRecord(_ context.Context, id string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[keySession] = id
	m.values[keySessionTime] = formatMillis(createdAt.UnixMilli())
	return nil
}

func (m *Memory) Impression(popupID string) bool {
	_, ok := m.get(impressionKey(popupID))
	return ok
}

func (m *Memory) SetImpression(popupID string) {
	m.set(impressionKey(popupID), "true")
}

func (m *Memory) PurchaseToken() string {
	token, _ := m.get(keyToken)
	return token
}

func (m *Memory) SetPurchaseToken(token string) {
	m.set(keyToken, token)
}
