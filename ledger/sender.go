package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/model"
	"go.uber.org/zap"
)

// SenderSource answers sender lookups from the relational store.
type SenderSource interface {
	SenderOf(ctx context.Context, post model.ID) (model.UserID, error)
}

// SenderLookup answers "who wrote this post" for notice fan-out.
type SenderLookup struct {
	adapter *cache.Adapter
	source  SenderSource
	memo    cache.CacheService[model.UserID]
	ttl     time.Duration
	logger  *zap.Logger
}

type SenderOption func(*SenderLookup)

// WithSenderMemo puts memo in front of the relational fallback.
func WithSenderMemo(memo cache.CacheService[model.UserID]) SenderOption {
	return func(s *SenderLookup) { s.memo = memo }
}

// WithSenderTTL expires sender keys written by Remember. Zero keeps them.
func WithSenderTTL(ttl time.Duration) SenderOption {
	return func(s *SenderLookup) { s.ttl = ttl }
}

func WithSenderLogger(logger *zap.Logger) SenderOption {
	return func(s *SenderLookup) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSenderLookup resolves post authors from the cache, falling back to
// source.
func NewSenderLookup(adapter *cache.Adapter, source SenderSource, opts ...SenderOption) *SenderLookup {
	s := &SenderLookup{
		adapter: adapter,
		source:  source,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SenderOf reads the cached sender of post. When the key is missing, not a
// number or unreadable it asks the relational store. It fails with
// cache.ErrNotFound when neither side knows the post.
func (s *SenderLookup) SenderOf(ctx context.Context, post model.ID) (model.UserID, error) {
	key := s.adapter.Keys().PostSender(post.Int64())

	n, err := s.adapter.GetInteger(ctx, key)
	if err == nil {
		return model.UserID(n), nil
	}

	var decodeErr *cache.DecodeError
	if !errors.Is(err, cache.ErrNotFound) && !errors.As(err, &decodeErr) {
		s.logger.Warn("sender cache read failed", zap.String("key", key), zap.Error(err))
	}

	sender, err := s.fallback(ctx, key, post)
	if err != nil {
		return 0, fmt.Errorf("sender of post %d: %w", post, err)
	}
	return sender, nil
}

func (s *SenderLookup) fallback(ctx context.Context, key string, post model.ID) (model.UserID, error) {
	fetch := func(ctx context.Context) (model.UserID, error) {
		return s.source.SenderOf(ctx, post)
	}
	if s.memo == nil {
		return fetch(ctx)
	}
	return s.memo.GetOrFetch(ctx, key, fetch)
}

// Remember caches the sender of a newly created post in the background.
func (s *SenderLookup) Remember(post model.ID, sender model.UserID) {
	key := s.adapter.Keys().PostSender(post.Int64())
	cmds := []cache.Command{cache.Set(key, strconv.FormatInt(sender.Int64(), 10))}
	if s.ttl > 0 {
		cmds = append(cmds, cache.Expire(key, s.ttl))
	}
	s.adapter.DispatchAll(cmds...)
}

// Forget drops the memoized sender of post. The cache key itself goes with
// the rest of the post's keys in Ledger.Forget.
func (s *SenderLookup) Forget(ctx context.Context, post model.ID) {
	if s.memo == nil {
		return
	}
	key := s.adapter.Keys().PostSender(post.Int64())
	if err := s.memo.Delete(ctx, key); err != nil {
		s.logger.Warn("sender memo delete failed", zap.String("key", key), zap.Error(err))
	}
}
