package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSQLStore はテスト用のインメモリSQLiteを使ったストアを準備します。
func setupSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	s := NewSQLStore(db)
	require.NoError(t, s.Migrate(), "failed to migrate table")
	return s
}

// TestSQLStore_SetGet は保存した値を期限内に取得できることを検証します。
func TestSQLStore_SetGet(t *testing.T) {
	t.Parallel()

	s := setupSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "md:k", []byte("v1"), time.Minute))
	b, err := s.Get(ctx, "md:k")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(b))

	// 同一キーへの再書き込みは上書きされる
	require.NoError(t, s.Set(ctx, "md:k", []byte("v2"), time.Minute))
	b, err = s.Get(ctx, "md:k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))
}

// TestSQLStore_Expired は期限切れの行がミスとして扱われ削除されることを検証します。
func TestSQLStore_Expired(t *testing.T) {
	t.Parallel()

	s := setupSQLStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	require.NoError(t, s.Set(ctx, "md:k", []byte("v"), time.Minute))

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := s.Get(ctx, "md:k")
	assert.ErrorIs(t, err, ErrMiss)

	var count int64
	require.NoError(t, s.db.Model(&Entry{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

// TestSQLStore_MissingAndDelete は存在しないキーと削除の挙動を検証します。
func TestSQLStore_MissingAndDelete(t *testing.T) {
	t.Parallel()

	s := setupSQLStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "md:k", []byte("v"), time.Minute))
	require.NoError(t, s.Delete(ctx, "md:k"))
	_, err = s.Get(ctx, "md:k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, s.Delete(ctx, "md:k"))
	assert.Equal(t, "sql", s.Name())
}
