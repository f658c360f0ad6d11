package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL        = 5 * time.Minute
	revalidateTimeout = 2 * time.Minute
)

// Options controls how Memo stores and serves entries.
type Options struct {
	// TTL is how long an entry is fresh. Defaults to 5 minutes.
	TTL time.Duration
	// StaleTTL is how long an entry is kept in the store when ServeStale is on.
	StaleTTL time.Duration
	// ServeStale serves expired-but-kept entries and refreshes them in the background.
	ServeStale bool
	// RetryAfter is reported to clients that received a stale entry.
	RetryAfter time.Duration
}

// Info describes where a value came from. It is returned to API clients as the "cache" block.
type Info struct {
	Source         string    `json:"source"`
	IsStale        bool      `json:"isStale"`
	FetchedAt      time.Time `json:"fetchedAt"`
	FreshUntil     time.Time `json:"freshUntil"`
	StaleUntil     time.Time `json:"staleUntil"`
	WillRevalidate bool      `json:"willRevalidate"`
	RetryAfterMs   *int64    `json:"retryAfterMs"`
}

// Source values reported in Info.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

type envelopeMeta struct {
	StoredAt   time.Time `json:"storedAt"`
	FreshUntil time.Time `json:"freshUntil"`
	StaleUntil time.Time `json:"staleUntil"`
}

type envelope struct {
	Meta    *envelopeMeta   `json:"__cache,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Memo wraps a Store with cache-or-compute semantics. A nil *Memo or a Memo
// without a store always computes.
type Memo struct {
	store Store
	opts  Options
	now   func() time.Time
	group singleflight.Group
	wg    sync.WaitGroup
}

// NewMemo creates a Memo over store. store may be nil (caching disabled).
func NewMemo(store Store, opts Options) *Memo {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.StaleTTL < opts.TTL {
		opts.StaleTTL = opts.TTL
	}
	return &Memo{store: store, opts: opts, now: time.Now}
}

// Backend names the underlying store, or "none".
func (m *Memo) Backend() string {
	if m == nil || m.store == nil {
		return "none"
	}
	return m.store.Name()
}

// Wait blocks until background revalidations have finished.
func (m *Memo) Wait() {
	if m != nil {
		m.wg.Wait()
	}
}

// Do returns the cached value for key, or runs compute and stores its result.
// Errors from compute are returned and never cached. Store failures are logged and
// treated as misses.
func Do[T any](ctx context.Context, m *Memo, key string, compute func(context.Context) (T, error)) (T, Info, error) {
	if m == nil || m.store == nil {
		v, err := compute(ctx)
		now := time.Now().UTC()
		return v, Info{Source: SourceLive, FetchedAt: now, FreshUntil: now, StaleUntil: now}, err
	}

	if v, info, ok := read[T](ctx, m, key); ok {
		if info.WillRevalidate {
			revalidate(ctx, m, key, compute)
		}
		return v, info, nil
	}

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, Info{}, err
	}
	return v, write(ctx, m, key, v), nil
}

func read[T any](ctx context.Context, m *Memo, key string) (T, Info, bool) {
	var zero T
	b, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			slog.Warn("cache read failed", "backend", m.store.Name(), "key", key, "error", err)
		}
		return zero, Info{}, false
	}

	// Entries written without the envelope are served as fresh hits.
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil || env.Meta == nil {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			m.dropCorrupt(ctx, key, err)
			return zero, Info{}, false
		}
		now := m.now().UTC()
		return v, Info{Source: SourceCache, FetchedAt: now, FreshUntil: now, StaleUntil: now}, true
	}

	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		m.dropCorrupt(ctx, key, err)
		return zero, Info{}, false
	}

	info := Info{
		Source:     SourceCache,
		FetchedAt:  env.Meta.StoredAt,
		FreshUntil: env.Meta.FreshUntil,
		StaleUntil: env.Meta.StaleUntil,
	}
	now := m.now()
	switch {
	case now.Before(env.Meta.FreshUntil):
		return v, info, true
	case m.opts.ServeStale && now.Before(env.Meta.StaleUntil):
		retry := m.opts.RetryAfter.Milliseconds()
		info.IsStale = true
		info.WillRevalidate = true
		info.RetryAfterMs = &retry
		return v, info, true
	default:
		return zero, Info{}, false
	}
}

func write[T any](ctx context.Context, m *Memo, key string, v T) Info {
	now := m.now().UTC()
	meta := envelopeMeta{StoredAt: now, FreshUntil: now.Add(m.opts.TTL), StaleUntil: now.Add(m.opts.TTL)}
	keep := m.opts.TTL
	if m.opts.ServeStale {
		meta.StaleUntil = now.Add(m.opts.StaleTTL)
		keep = m.opts.StaleTTL
	}
	info := Info{Source: SourceLive, FetchedAt: meta.StoredAt, FreshUntil: meta.FreshUntil, StaleUntil: meta.StaleUntil}

	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return info
	}
	b, err := json.Marshal(envelope{Meta: &meta, Payload: payload})
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return info
	}
	if err := m.store.Set(ctx, key, b, keep); err != nil {
		slog.Warn("cache write failed", "backend", m.store.Name(), "key", key, "error", err)
	}
	return info
}

// revalidate recomputes key in the background. Concurrent refreshes of the same key share one run.
func revalidate[T any](ctx context.Context, m *Memo, key string, compute func(context.Context) (T, error)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), revalidateTimeout)
		defer cancel()
		_, err, _ := m.group.Do(key, func() (any, error) {
			v, err := compute(bg)
			if err != nil {
				return nil, err
			}
			write(bg, m, key, v)
			return nil, nil
		})
		if err != nil {
			slog.Warn("cache revalidation failed", "key", key, "error", err)
		}
	}()
}

func (m *Memo) dropCorrupt(ctx context.Context, key string, cause error) {
	slog.Warn("cache entry corrupted", "backend", m.store.Name(), "key", key, "error", cause)
	_ = m.store.Delete(ctx, key) // best effort
}
