package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore はテスト用のインメモリStore実装です。
type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) Name() string { return "fake" }

type payload struct {
	Scanner string   `json:"scanner"`
	Results []string `json:"results"`
}

// TestNewMemo_Defaults はTTLの既定値とStaleTTLの下限が適用されることを検証します。
func TestNewMemo_Defaults(t *testing.T) {
	t.Parallel()

	m := NewMemo(nil, Options{})
	assert.Equal(t, 5*time.Minute, m.opts.TTL)
	assert.Equal(t, 5*time.Minute, m.opts.StaleTTL)
	assert.Equal(t, "none", m.Backend())

	m = NewMemo(newFakeStore(), Options{TTL: time.Minute, StaleTTL: time.Hour})
	assert.Equal(t, time.Hour, m.opts.StaleTTL)
	assert.Equal(t, "fake", m.Backend())
}

// TestDo_NilMemoComputes はキャッシュ無効時に毎回計算されることを検証します。
func TestDo_NilMemoComputes(t *testing.T) {
	t.Parallel()

	calls := 0
	compute := func(context.Context) (int, error) { calls++; return 42, nil }

	var m *Memo
	v, info, err := Do(context.Background(), m, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, SourceLive, info.Source)

	_, _, _ = Do(context.Background(), m, "k", compute)
	assert.Equal(t, 2, calls)
}

// TestDo_WriteThenReadFresh は書き込んだ値が新鮮なヒットとして返ることを検証します。
func TestDo_WriteThenReadFresh(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewMemo(store, Options{TTL: time.Minute})
	want := payload{Scanner: "day_gainers", Results: []string{"AAA"}}

	calls := 0
	compute := func(context.Context) (payload, error) { calls++; return want, nil }

	got, info, err := Do(context.Background(), m, "md:test:scan", compute)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, SourceLive, info.Source)
	assert.Equal(t, time.Minute, store.ttls["md:test:scan"])

	got, info, err = Do(context.Background(), m, "md:test:scan", compute)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, SourceCache, info.Source)
	assert.False(t, info.IsStale)
	assert.False(t, info.WillRevalidate)
	assert.Equal(t, 1, calls)
}

// TestDo_ComputeErrorNotCached は計算エラーが伝播され、キャッシュされないことを検証します。
func TestDo_ComputeErrorNotCached(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewMemo(store, Options{})
	expectedErr := errors.New("provider down")

	_, _, err := Do(context.Background(), m, "k", func(context.Context) (payload, error) {
		return payload{}, expectedErr
	})
	assert.ErrorIs(t, err, expectedErr)
	assert.Empty(t, store.data)
}

// TestDo_StoreFailuresAreMisses はストア障害がエラーにならず計算へフォールバックすることを検証します。
func TestDo_StoreFailuresAreMisses(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	m := NewMemo(store, Options{})

	v, info, err := Do(context.Background(), m, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, SourceLive, info.Source)
}

// TestDo_CorruptedEntry は破損したエントリを削除して再計算することを検証します。
func TestDo_CorruptedEntry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.data["k"] = []byte("invalid json")
	m := NewMemo(store, Options{})

	v, _, err := Do(context.Background(), m, "k", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Contains(t, store.deleted, "k")
}

// TestDo_LegacyPayloadWithoutEnvelope は封筒なしの旧形式ペイロードを新鮮なヒットとして扱うことを検証します。
func TestDo_LegacyPayloadWithoutEnvelope(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	legacy := payload{Scanner: "day_gainers", Results: []string{}}
	b, _ := json.Marshal(legacy)
	store.data["k"] = b
	m := NewMemo(store, Options{})

	got, info, err := Do(context.Background(), m, "k", func(context.Context) (payload, error) {
		t.Fatal("compute should not be called")
		return payload{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, legacy, got)
	assert.Equal(t, SourceCache, info.Source)
	assert.False(t, info.IsStale)
}

// TestDo_ExpiredEntry は期限切れエントリの扱いがServeStaleフラグで切り替わることを検証します。
func TestDo_ExpiredEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serveStale bool
		wantStale  bool
	}{
		{name: "stale served and revalidated when enabled", serveStale: true, wantStale: true},
		{name: "stale treated as miss when disabled", serveStale: false, wantStale: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			m := NewMemo(store, Options{
				TTL:        time.Minute,
				StaleTTL:   time.Hour,
				ServeStale: tt.serveStale,
				RetryAfter: 1234 * time.Millisecond,
			})
			base := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
			m.now = func() time.Time { return base }

			_, _, err := Do(context.Background(), m, "k", func(context.Context) (string, error) { return "old", nil })
			require.NoError(t, err)

			// 新鮮期間を過ぎ、保持期間内の時刻へ進める
			m.now = func() time.Time { return base.Add(10 * time.Minute) }

			got, info, err := Do(context.Background(), m, "k", func(context.Context) (string, error) { return "new", nil })
			require.NoError(t, err)
			m.Wait()

			if tt.wantStale {
				assert.Equal(t, "old", got)
				assert.True(t, info.IsStale)
				assert.True(t, info.WillRevalidate)
				require.NotNil(t, info.RetryAfterMs)
				assert.Equal(t, int64(1234), *info.RetryAfterMs)

				// バックグラウンド再計算により新しい値が書き込まれている
				got, info, err = Do(context.Background(), m, "k", func(context.Context) (string, error) { return "unused", nil })
				require.NoError(t, err)
				assert.Equal(t, "new", got)
				assert.False(t, info.IsStale)
				return
			}
			assert.Equal(t, "new", got)
			assert.Equal(t, SourceLive, info.Source)
		})
	}
}
