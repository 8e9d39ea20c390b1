package ledger

import (
	"context"
	"fmt"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultReconcileConcurrency bounds the batches in flight for one record.
const DefaultReconcileConcurrency = 8

const (
	tagLikes    = "like_count"
	tagHates    = "hate_count"
	tagComments = "comment_count"
	tagLiked    = "liked"
	tagHated    = "hated"
)

// Reconciler overwrites record counters with live cache values.
type Reconciler struct {
	adapter     *cache.Adapter
	logger      *zap.Logger
	concurrency int
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

func WithReconcileLogger(logger *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReconcileConcurrency bounds how many targets of one record are read
// at the same time.
func WithReconcileConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewReconciler builds a Reconciler reading through adapter.
func NewReconciler(adapter *cache.Adapter, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		adapter:     adapter,
		logger:      zap.NewNop(),
		concurrency: DefaultReconcileConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile patches every target of rec. With a viewer, Liked and Hated are
// set when the viewer is in the matching membership set.
//
// A value that is missing or not a number leaves the relational value in
// place. A failed batch leaves its target untouched and is reported, but
// the other targets still complete.
func (r *Reconciler) Reconcile(ctx context.Context, rec model.Reconcilable, viewer *model.UserID) error {
	targets := rec.Targets()
	if len(targets) == 1 {
		return r.reconcileOne(ctx, targets[0], viewer)
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, target := range targets {
		g.Go(func() error {
			return r.reconcileOne(ctx, target, viewer)
		})
	}
	return g.Wait()
}

// BestEffort reconciles rec and logs a failure instead of returning it.
func (r *Reconciler) BestEffort(ctx context.Context, rec model.Reconcilable, viewer *model.UserID) {
	if err := r.Reconcile(ctx, rec, viewer); err != nil {
		r.logger.Warn("reconcile failed, serving relational counters", zap.Error(err))
	}
}

func (r *Reconciler) reconcileOne(ctx context.Context, target model.Target, viewer *model.UserID) error {
	if target.Stats == nil {
		return nil
	}
	keys := r.adapter.Keys()
	id := target.ID.Int64()

	b := cache.NewBatch().
		Add(tagLikes, cache.Get(keys.PostLikeCount(id))).
		Add(tagComments, cache.Get(keys.CommentCount(id))).
		Add(tagHates, cache.Get(keys.PostHateCount(id)))
	if viewer != nil {
		member := cache.Member(viewer.Int64())
		b.Add(tagLiked, cache.SIsMember(keys.PostLikes(id), member)).
			Add(tagHated, cache.SIsMember(keys.PostHates(id), member))
	}

	res, err := r.adapter.ExecuteBatch(ctx, b)
	if err != nil {
		return fmt.Errorf("reconcile post %d: %w", id, err)
	}

	stats := target.Stats
	if n, ok := res.Int64(tagLikes); ok {
		stats.LikeCount = n
	}
	if n, ok := res.Int64(tagComments); ok {
		stats.CommentCount = n
	}
	if n, ok := res.Int64(tagHates); ok {
		stats.HateCount = n
	}
	if viewer != nil {
		if res.Bool(tagLiked) {
			stats.Liked = true
		}
		if res.Bool(tagHated) {
			stats.Hated = true
		}
	}
	return nil
}
