package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one cached value in the SQL fallback store.
type Entry struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:512"`
	Value     []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName pins the table name regardless of naming strategy.
func (Entry) TableName() string { return "cache_entries" }

// SQLStore is a Store backed by a relational table, used when no Redis backend is available.
// Expired rows are reported as misses and removed lazily on read.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates the store. Call Migrate once before use.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Migrate creates or updates the cache_entries table.
func (s *SQLStore) Migrate() error {
	return s.db.AutoMigrate(&Entry{})
}

// Get returns the value when the row exists and has not expired.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	if !s.now().Before(e.ExpiresAt) {
		_ = s.Delete(ctx, key) // best effort
		return nil, ErrMiss
	}
	return e.Value, nil
}

// Set upserts the row with a new expiry.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := Entry{Key: key, Value: value, ExpiresAt: s.now().Add(ttl)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
		}).
		Create(&e).Error
}

// Delete removes the row for key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&Entry{}).Error
}

// Name returns "sql".
func (s *SQLStore) Name() string { return "sql" }
