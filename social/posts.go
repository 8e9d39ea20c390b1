package social

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-social-cache/internal/idgen"
	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/ledger"
	"github.com/goliatone/go-social-cache/model"
	"github.com/goliatone/go-social-cache/notify"
	"github.com/goliatone/go-social-cache/repositorycache"
	"go.uber.org/zap"
)

// ErrEmptyContent is returned for posts and comments without text.
var ErrEmptyContent = errors.New("empty content")

// Posts creates, reads and reacts to posts.
type Posts struct {
	repo     store.PostRepository
	ledger   *ledger.Ledger
	notifier *notify.Notifier
	ids      idgen.Generator
	logger   *zap.Logger
}

// Option configures the Posts and Friends services.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for side effects that fail without
// failing the call.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewPosts builds the post service. repo should be the reconciling
// repository so that reads carry live counters.
func NewPosts(repo store.PostRepository, l *ledger.Ledger, notifier *notify.Notifier, ids idgen.Generator, opts ...Option) *Posts {
	o := buildOptions(opts)
	return &Posts{repo: repo, ledger: l, notifier: notifier, ids: ids, logger: o.logger}
}

// Create stores a new top-level post by sender.
func (s *Posts) Create(ctx context.Context, sender model.UserID, content string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	p := &model.Post{ID: s.ids.NextID(), Sender: sender, Content: content}
	if err := s.repo.InsertPost(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("post created", zap.Int64("post_id", p.ID.Int64()), zap.Int64("sender", sender.Int64()))
	return p, nil
}

// Delete removes a post written by user.
func (s *Posts) Delete(ctx context.Context, user model.UserID, id model.ID) error {
	return s.repo.DeletePost(ctx, id, user)
}

// Get returns a post with its first comments. viewer may be nil.
func (s *Posts) Get(ctx context.Context, viewer *model.UserID, id model.ID) (*model.Thread, error) {
	return s.repo.GetThread(withViewer(ctx, viewer), id, model.MaxThreadComments)
}

// Mine lists the posts user wrote, newest first.
func (s *Posts) Mine(ctx context.Context, user model.UserID, paging model.Paging) (model.Page[*model.Post], error) {
	posts, err := s.repo.ListBySender(repositorycache.WithViewer(ctx, user), user, paging)
	if err != nil {
		return model.Page[*model.Post]{}, err
	}
	return model.NewPage(paging, posts), nil
}

// Browse lists every top-level post, newest first.
func (s *Posts) Browse(ctx context.Context, viewer *model.UserID, paging model.Paging) (model.Page[*model.Post], error) {
	posts, err := s.repo.Browse(withViewer(ctx, viewer), paging)
	if err != nil {
		return model.Page[*model.Post]{}, err
	}
	return model.NewPage(paging, posts), nil
}

// Comments pages through the comments on origin, oldest first.
func (s *Posts) Comments(ctx context.Context, viewer *model.UserID, origin model.ID, paging model.Paging) (model.Page[*model.Post], error) {
	posts, err := s.repo.ListComments(withViewer(ctx, viewer), origin, paging)
	if err != nil {
		return model.Page[*model.Post]{}, err
	}
	return model.NewPage(paging, posts), nil
}

// Comment stores a comment by sender on origin and notifies the origin's
// author. The comment stands even if the notice cannot be sent.
func (s *Posts) Comment(ctx context.Context, sender model.UserID, origin model.ID, content string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	c := &model.Post{ID: s.ids.NextID(), Sender: sender, Content: content, OriginID: &origin}
	if err := s.repo.InsertComment(ctx, c); err != nil {
		return nil, err
	}

	author, err := s.repo.SenderOf(ctx, origin)
	if err != nil {
		s.logger.Warn("comment notice dropped", zap.Int64("post_id", origin.Int64()), zap.Error(err))
		return c, nil
	}
	if err := s.notifier.SendCommentNotice(ctx, sender, author, origin); err != nil {
		s.logger.Warn("comment notice not sent", zap.Int64("post_id", origin.Int64()), zap.Error(err))
	}
	return c, nil
}

// Like records that user likes post and notifies its author.
func (s *Posts) Like(ctx context.Context, user model.UserID, post model.ID) error {
	return s.react(ctx, ledger.Like, ledger.Add, user, post)
}

// Unlike withdraws a like. It fails with cache.ErrNotMember when user had
// not liked post.
func (s *Posts) Unlike(ctx context.Context, user model.UserID, post model.ID) error {
	return s.react(ctx, ledger.Like, ledger.Remove, user, post)
}

// Hate records that user hates post and notifies its author.
func (s *Posts) Hate(ctx context.Context, user model.UserID, post model.ID) error {
	return s.react(ctx, ledger.Hate, ledger.Add, user, post)
}

// Unhate withdraws a hate.
func (s *Posts) Unhate(ctx context.Context, user model.UserID, post model.ID) error {
	return s.react(ctx, ledger.Hate, ledger.Remove, user, post)
}

// react applies the ledger change and, for a new like or hate, notifies
// the author. Removals send nothing.
func (s *Posts) react(ctx context.Context, r ledger.Reaction, t ledger.Transition, user model.UserID, post model.ID) error {
	if err := s.ledger.Apply(ctx, r, t, post, user); err != nil {
		return err
	}
	if t != ledger.Add {
		return nil
	}
	if err := s.notifier.SendPostNotice(ctx, r.NoticeType(), user, post); err != nil {
		s.logger.Warn("reaction notice not sent",
			zap.Stringer("reaction", r),
			zap.Int64("post_id", post.Int64()),
			zap.Error(err),
		)
	}
	return nil
}

func withViewer(ctx context.Context, viewer *model.UserID) context.Context {
	if viewer == nil {
		return ctx
	}
	return repositorycache.WithViewer(ctx, *viewer)
}
