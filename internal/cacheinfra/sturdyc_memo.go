package cacheinfra

import (
	"context"
	"errors"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/viccon/sturdyc"
)

// Memo is a typed sturdyc client implementing cache.CacheService.
type Memo[T any] struct {
	client *sturdyc.Client[T]
}

var _ cache.CacheService[int64] = (*Memo[int64])(nil)

// NewMemo validates cfg and builds a sturdyc client.
//
// Capacity, NumShards, TTL and EvictionPercentage go straight to
// sturdyc.New; the rest are applied through sturdycOptions.
func NewMemo[T any](cfg MemoConfig) (*Memo[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[T](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)
	return &Memo[T]{client: client}, nil
}

func (c MemoConfig) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if r := c.EarlyRefresh; r != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			r.MinAsyncRefreshTime,
			r.MaxAsyncRefreshTime,
			r.SyncRefreshTime,
			r.RetryBaseDelay,
		))
	}
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// GetOrFetch returns the memoized value for key, calling fetchFn on a miss.
// A fetchFn failing with cache.ErrNotFound is remembered as a missing record
// when the memo was configured to do so.
func (m *Memo[T]) GetOrFetch(ctx context.Context, key string, fetchFn cache.FetchFn[T]) (T, error) {
	value, err := m.client.GetOrFetch(ctx, key, func(ctx context.Context) (T, error) {
		v, err := fetchFn(ctx)
		if errors.Is(err, cache.ErrNotFound) {
			return v, sturdyc.ErrNotFound
		}
		return v, err
	})
	if errors.Is(err, sturdyc.ErrNotFound) || errors.Is(err, sturdyc.ErrMissingRecord) {
		var zero T
		return zero, cache.ErrNotFound
	}
	return value, err
}

// Delete drops key from the memo. It never fails.
func (m *Memo[T]) Delete(_ context.Context, key string) error {
	m.client.Delete(key)
	return nil
}

// Size reports the number of memoized entries.
func (m *Memo[T]) Size() int {
	return m.client.Size()
}
