package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mysellkit/popup-engine/internal/sellkit"
	"github.com/mysellkit/popup-engine/internal/store"
)

type stubRemote struct {
	mu     sync.Mutex
	events []sellkit.TrackEvent
	err    error
}

func (s *stubRemote) Track(_ context.Context, event sellkit.TrackEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *stubRemote) recorded() []sellkit.TrackEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sellkit.TrackEvent, len(s.events))
	copy(out, s.events)
	return out
}

type stubSessions struct{ id string }

func (s *stubSessions) SessionID(context.Context) string { return s.id }

func newTracker(t *testing.T, remote Remote, diagnostic bool) *Tracker {
	t.Helper()

	tracker, err := NewTracker(remote, &stubSessions{id: "msk_1_abc"}, TrackerOptions{
		PopupID:    "pop-1",
		ProductID:  "prod-1",
		PageURL:    "https://shop.example.com/page",
		UserAgent:  "test-agent",
		Diagnostic: diagnostic,
		Timeout:    time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	return tracker
}

func TestRecordStampsPageIdentity(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	tracker := newTracker(t, remote, false)

	tracker.Record(context.Background(), EventClick, map[string]string{"purchase_token": "pt_1_xyz"})
	tracker.Wait()

	events := remote.recorded()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	got := events[0]
	if got.EventType != EventClick || got.PopupID != "pop-1" || got.SessionID != "msk_1_abc" {
		t.Fatalf("event = %+v", got)
	}
	if got.Extra["purchase_token"] != "pt_1_xyz" {
		t.Fatalf("extra = %v", got.Extra)
	}
	if got.DebugMode {
		t.Fatal("debug mode should be off")
	}
}

func TestRecordSwallowsSendFailure(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{err: errors.New("network down")}
	tracker := newTracker(t, remote, false)

	tracker.Record(context.Background(), EventImpression, nil)
	tracker.Wait()

	if len(remote.recorded()) != 1 {
		t.Fatal("send should still have been attempted")
	}
}

func TestImpressionsFireOncePerTab(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	tracker := newTracker(t, remote, false)
	mem := store.NewMemory()

	imp, err := NewImpressions(mem, mem, tracker, false, nil)
	if err != nil {
		t.Fatalf("NewImpressions: %v", err)
	}

	ctx := context.Background()
	if !imp.Record(ctx, "pop-1") {
		t.Fatal("first record should report first impression")
	}
	if imp.Record(ctx, "pop-1") {
		t.Fatal("second record should not report first impression")
	}
	tracker.Wait()

	if got := len(remote.recorded()); got != 1 {
		t.Fatalf("impression event fired %d times, want 1", got)
	}
	if !mem.Impression("pop-1") {
		t.Fatal("tab impression flag not set")
	}
	if _, ok, _ := mem.LastSeen(ctx, "pop-1"); !ok {
		t.Fatal("last-seen not written")
	}
}

func TestImpressionsRefreshLastSeenOnEveryShow(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	tracker := newTracker(t, remote, false)
	mem := store.NewMemory()

	imp, err := NewImpressions(mem, mem, tracker, false, nil)
	if err != nil {
		t.Fatalf("NewImpressions: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	imp.now = func() time.Time { return current }

	ctx := context.Background()
	imp.Record(ctx, "pop-1")
	current = base.Add(2 * time.Hour)
	imp.Record(ctx, "pop-1")

	at, ok, err := mem.LastSeen(ctx, "pop-1")
	if err != nil || !ok {
		t.Fatalf("LastSeen: ok=%v err=%v", ok, err)
	}
	if !at.Equal(current) {
		t.Fatalf("last-seen = %v, want refreshed to %v", at, current)
	}
}

func TestImpressionsDiagnosticSkipsDurableWrite(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{}
	tracker := newTracker(t, remote, true)
	mem := store.NewMemory()

	imp, err := NewImpressions(mem, mem, tracker, true, nil)
	if err != nil {
		t.Fatalf("NewImpressions: %v", err)
	}

	ctx := context.Background()
	imp.Record(ctx, "pop-1")
	tracker.Wait()

	if _, ok, _ := mem.LastSeen(ctx, "pop-1"); ok {
		t.Fatal("diagnostic mode must not write last-seen")
	}
	if got := len(remote.recorded()); got != 0 {
		t.Fatalf("diagnostic mode sent %d events, want none", got)
	}
	if !mem.Impression("pop-1") {
		t.Fatal("tab impression flag should still be set in diagnostic mode")
	}
}
