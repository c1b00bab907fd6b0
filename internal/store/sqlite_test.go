package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newSQLiteStore(t *testing.T, visitorID string) *SQLite {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s, err := NewSQLite(db, visitorID)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	return s
}

func TestSQLitePurchaseFlag(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t, "visitor-1")
	ctx := context.Background()

	ok, err := s.PurchaseFlag(ctx, "prod-1")
	if err != nil || ok {
		t.Fatalf("fresh flag: ok=%v err=%v", ok, err)
	}
	if err := s.SetPurchaseFlag(ctx, "prod-1"); err != nil {
		t.Fatalf("SetPurchaseFlag: %v", err)
	}
	ok, err = s.PurchaseFlag(ctx, "prod-1")
	if err != nil || !ok {
		t.Fatalf("set flag: ok=%v err=%v", ok, err)
	}
	ok, _ = s.PurchaseFlag(ctx, "prod-other")
	if ok {
		t.Fatal("flag leaked across products")
	}
}

func TestSQLiteLastSeenRoundTrip(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t, "visitor-1")
	ctx := context.Background()

	if _, ok, err := s.LastSeen(ctx, "pop-1"); ok || err != nil {
		t.Fatalf("fresh last-seen: ok=%v err=%v", ok, err)
	}

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if err := s.SetLastSeen(ctx, "pop-1", at); err != nil {
		t.Fatalf("SetLastSeen: %v", err)
	}

	got, ok, err := s.LastSeen(ctx, "pop-1")
	if err != nil || !ok {
		t.Fatalf("LastSeen: ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Fatalf("last-seen = %v, want %v", got, at)
	}

	// Overwrite path exercises the upsert.
	later := at.Add(3 * time.Hour)
	if err := s.SetLastSeen(ctx, "pop-1", later); err != nil {
		t.Fatalf("SetLastSeen overwrite: %v", err)
	}
	got, _, _ = s.LastSeen(ctx, "pop-1")
	if !got.Equal(later) {
		t.Fatalf("last-seen after overwrite = %v, want %v", got, later)
	}
}

func TestSQLiteSessionRecordPerVisitor(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	first, err := NewSQLite(db, "visitor-1")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	second, err := NewSQLite(db, "visitor-2")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}

	ctx := context.Background()
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := first.SetSessionRecord(ctx, "msk_1_abc", createdAt); err != nil {
		t.Fatalf("SetSessionRecord: %v", err)
	}

	id, got, ok, err := first.SessionRecord(ctx)
	if err != nil || !ok {
		t.Fatalf("SessionRecord: ok=%v err=%v", ok, err)
	}
	if id != "msk_1_abc" || !got.Equal(createdAt) {
		t.Fatalf("record = %q at %v", id, got)
	}

	if _, _, ok, _ := second.SessionRecord(ctx); ok {
		t.Fatal("session record leaked across visitors")
	}
}
