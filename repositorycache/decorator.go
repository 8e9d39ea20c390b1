package repositorycache

import (
	"context"

	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/ledger"
	"github.com/goliatone/go-social-cache/model"
	"go.uber.org/zap"
)

var _ store.PostRepository = (*ReconcilingPosts)(nil)

// ReconcilingPosts decorates a post repository. Reads come back reconciled
// against the cache for the viewer in the context; writes pass through and
// then update the cache-side state they affect.
type ReconcilingPosts struct {
	base       store.PostRepository
	reconciler *ledger.Reconciler
	ledger     *ledger.Ledger
	senders    *ledger.SenderLookup
	logger     *zap.Logger
}

// Option configures a ReconcilingPosts.
type Option func(*ReconcilingPosts)

// WithLogger sets the logger used when reconciliation degrades.
func WithLogger(logger *zap.Logger) Option {
	return func(r *ReconcilingPosts) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New wraps base. senders must read through base, not through the returned
// decorator.
func New(base store.PostRepository, reconciler *ledger.Reconciler, l *ledger.Ledger, senders *ledger.SenderLookup, opts ...Option) *ReconcilingPosts {
	r := &ReconcilingPosts{
		base:       base,
		reconciler: reconciler,
		ledger:     l,
		senders:    senders,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InsertPost stores p and caches its sender.
func (r *ReconcilingPosts) InsertPost(ctx context.Context, p *model.Post) error {
	if err := r.base.InsertPost(ctx, p); err != nil {
		return err
	}
	r.senders.Remember(p.ID, p.Sender)
	return nil
}

// InsertComment stores p, caches its sender and counts it on the origin.
func (r *ReconcilingPosts) InsertComment(ctx context.Context, p *model.Post) error {
	if err := r.base.InsertComment(ctx, p); err != nil {
		return err
	}
	r.senders.Remember(p.ID, p.Sender)
	r.ledger.RecordComment(ctx, *p.OriginID)
	return nil
}

// GetPost returns the post with counters patched from the cache.
func (r *ReconcilingPosts) GetPost(ctx context.Context, id model.ID) (*model.Post, error) {
	p, err := r.base.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	r.reconcile(ctx, p)
	return p, nil
}

// GetThread returns the post and its first comments, all reconciled.
func (r *ReconcilingPosts) GetThread(ctx context.Context, id model.ID, commentLimit int) (*model.Thread, error) {
	thread, err := r.base.GetThread(ctx, id, commentLimit)
	if err != nil {
		return nil, err
	}
	r.reconcile(ctx, thread)
	return thread, nil
}

func (r *ReconcilingPosts) ListBySender(ctx context.Context, sender model.UserID, paging model.Paging) ([]*model.Post, error) {
	return r.list(ctx)(r.base.ListBySender(ctx, sender, paging))
}

// Browse lists recent posts, reconciled for the context viewer.
func (r *ReconcilingPosts) Browse(ctx context.Context, paging model.Paging) ([]*model.Post, error) {
	return r.list(ctx)(r.base.Browse(ctx, paging))
}

func (r *ReconcilingPosts) ListComments(ctx context.Context, origin model.ID, paging model.Paging) ([]*model.Post, error) {
	return r.list(ctx)(r.base.ListComments(ctx, origin, paging))
}

// DeletePost deletes the post and then drops its cache keys and memoized
// sender.
func (r *ReconcilingPosts) DeletePost(ctx context.Context, id model.ID, sender model.UserID) error {
	if err := r.base.DeletePost(ctx, id, sender); err != nil {
		return err
	}
	r.ledger.Forget(id)
	r.senders.Forget(ctx, id)
	return nil
}

// SenderOf reads the cached sender first.
func (r *ReconcilingPosts) SenderOf(ctx context.Context, id model.ID) (model.UserID, error) {
	return r.senders.SenderOf(ctx, id)
}

func (r *ReconcilingPosts) list(ctx context.Context) func([]*model.Post, error) ([]*model.Post, error) {
	return func(posts []*model.Post, err error) ([]*model.Post, error) {
		if err != nil {
			return nil, err
		}
		if len(posts) > 0 {
			r.reconcile(ctx, model.Posts(posts))
		}
		return posts, nil
	}
}

func (r *ReconcilingPosts) reconcile(ctx context.Context, rec model.Reconcilable) {
	if err := r.reconciler.Reconcile(ctx, rec, ViewerFromContext(ctx)); err != nil {
		r.logger.Warn("reconcile failed, serving relational counters", zap.Error(err))
	}
}
