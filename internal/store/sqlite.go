package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StateEntry is one durable key/value row scoped to a visitor.
type StateEntry struct {
	VisitorID string `gorm:"primaryKey;size:128"`
	Key       string `gorm:"primaryKey;size:256"`
	Value     string
	UpdatedAt time.Time
}

func (StateEntry) TableName() string { return "visitor_state" }

// SQLite implements DurableStore on an embedded database for
// single-process hosts, selected by the UseSQLite feature flag.
type SQLite struct {
	db        *gorm.DB
	visitorID string
}

// OpenSQLite opens (and migrates) the embedded database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite store: %w", err)
	}
	return db, nil
}

// NewSQLite binds the durable store to one visitor's rows.
func NewSQLite(db *gorm.DB, visitorID string) (*SQLite, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	if visitorID == "" {
		return nil, fmt.Errorf("visitor id required")
	}
	return &SQLite{db: db, visitorID: visitorID}, nil
}

func (s *SQLite) get(ctx context.Context, key string) (string, bool, error) {
	var entry StateEntry
	err := s.db.WithContext(ctx).
		Where("visitor_id = ? AND key = ?", s.visitorID, key).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SQLite) set(ctx context.Context, key, value string) error {
	entry := StateEntry{
		VisitorID: s.visitorID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *SQLite) PurchaseFlag(ctx context.Context, productID string) (bool, error) {
	_, ok, err := s.get(ctx, purchasedKey(productID))
	return ok, err
}

func (s *SQLite) SetPurchaseFlag(ctx context.Context, productID string) error {
	return s.set(ctx, purchasedKey(productID), "true")
}

func (s *SQLite) LastSeen(ctx context.Context, popupID string) (time.Time, bool, error) {
	raw, ok, err := s.get(ctx, seenKey(popupID))
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ms, valid := parseMillis(raw)
	if !valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *SQLite) SetLastSeen(ctx context.Context, popupID string, at time.Time) error {
	return s.set(ctx, seenKey(popupID), formatMillis(at.UnixMilli()))
}

func (s *SQLite) SessionRecord(ctx context.Context) (string, time.Time, bool, error) {
	id, ok, err := s.get(ctx, keySession)
	if err != nil || !ok {
		return "", time.Time{}, false, err
	}
	raw, ok, err := s.get(ctx, keySessionTime)
	if err != nil || !ok {
		return "", time.Time{}, false, err
	}
	ms, valid := parseMillis(raw)
	if !valid {
		return "", time.Time{}, false, nil
	}
	return id, time.UnixMilli(ms), true, nil
}

func (s *SQLite) SetSessionRecord(ctx context.Context, id string, createdAt time.Time) error {
	if err := s.set(ctx, keySession, id); err != nil {
		return err
	}
	return s.set(ctx, keySessionTime, formatMillis(createdAt.UnixMilli()))
}
