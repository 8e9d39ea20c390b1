package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-social-cache/model"
	"github.com/uptrace/bun"
)

// PostRepository is the relational post store. The relational counters it
// returns are fallbacks; callers reconcile them against the cache.
type PostRepository interface {
	InsertPost(ctx context.Context, p *model.Post) error
	// InsertComment stores p as a comment on *p.OriginID and bumps the
	// origin's comment column in the same transaction.
	InsertComment(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id model.ID) (*model.Post, error)
	// GetThread returns a post with its first commentLimit comments.
	GetThread(ctx context.Context, id model.ID, commentLimit int) (*model.Thread, error)
	ListBySender(ctx context.Context, sender model.UserID, paging model.Paging) ([]*model.Post, error)
	Browse(ctx context.Context, paging model.Paging) ([]*model.Post, error)
	ListComments(ctx context.Context, origin model.ID, paging model.Paging) ([]*model.Post, error)
	// DeletePost removes id if sender wrote it, ErrForbidden otherwise.
	DeletePost(ctx context.Context, id model.ID, sender model.UserID) error
	SenderOf(ctx context.Context, id model.ID) (model.UserID, error)
}

// Posts implements PostRepository with bun.
type Posts struct {
	db  bun.IDB
	now func() time.Time
}

var _ PostRepository = (*Posts)(nil)

// NewPosts returns a post repository over db. db may be a transaction.
func NewPosts(db bun.IDB) *Posts {
	return &Posts{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// InsertPost stores p and sets CreatedAt when it is zero.
func (s *Posts) InsertPost(ctx context.Context, p *model.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if _, err := s.db.NewInsert().Model(p).Exec(ctx); err != nil {
		return fmt.Errorf("insert post %d: %w", p.ID, err)
	}
	return nil
}

// InsertComment stores the comment p and bumps the comment column of its
// origin in one transaction. It fails with ErrNotFound when the origin is
// missing.
func (s *Posts) InsertComment(ctx context.Context, p *model.Post) error {
	if p.OriginID == nil {
		return fmt.Errorf("insert comment %d: missing origin", p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	origin := *p.OriginID

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*model.Post)(nil)).
			Set("comments = comments + 1").
			Where("id = ?", origin).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bump comments of %d: %w", origin, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("origin %d: %w", origin, ErrNotFound)
		}
		if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
			return fmt.Errorf("insert comment %d: %w", p.ID, err)
		}
		return nil
	})
}

// GetPost fails with ErrNotFound when no post has id.
func (s *Posts) GetPost(ctx context.Context, id model.ID) (*model.Post, error) {
	p := new(model.Post)
	err := s.db.NewSelect().Model(p).Where("p.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(fmt.Sprintf("post %d", id), err)
	}
	return p, nil
}

// GetThread loads post id with its oldest commentLimit comments.
func (s *Posts) GetThread(ctx context.Context, id model.ID, commentLimit int) (*model.Thread, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if commentLimit <= 0 {
		commentLimit = model.MaxThreadComments
	}
	comments, err := s.ListComments(ctx, id, model.Paging{Page: 1, Limit: commentLimit})
	if err != nil {
		return nil, err
	}
	return &model.Thread{Post: post, Comments: comments}, nil
}

// ListBySender returns one page of the posts of sender, newest first.
func (s *Posts) ListBySender(ctx context.Context, sender model.UserID, paging model.Paging) ([]*model.Post, error) {
	return s.list(ctx, paging, false, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("p.sender = ?", sender).Where("p.origin_id IS NULL")
	})
}

// Browse returns one page of top-level posts, newest first.
func (s *Posts) Browse(ctx context.Context, paging model.Paging) ([]*model.Post, error) {
	return s.list(ctx, paging, false, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("p.origin_id IS NULL")
	})
}

// ListComments returns one page of the comments on origin, oldest first.
func (s *Posts) ListComments(ctx context.Context, origin model.ID, paging model.Paging) ([]*model.Post, error) {
	return s.list(ctx, paging, true, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("p.origin_id = ?", origin)
	})
}

func (s *Posts) list(ctx context.Context, paging model.Paging, oldestFirst bool, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*model.Post, error) {
	posts := make([]*model.Post, 0, paging.Size())
	q := filter(s.db.NewSelect().Model(&posts))
	if oldestFirst {
		q = q.OrderExpr("p.create_time ASC, p.id ASC")
	} else {
		q = q.OrderExpr("p.create_time DESC, p.id DESC")
	}
	if err := q.Limit(paging.Size()).Offset(paging.Offset()).Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes post id. It fails with ErrForbidden when sender is
// not the author and ErrNotFound when the post is missing.
func (s *Posts) DeletePost(ctx context.Context, id model.ID, sender model.UserID) error {
	res, err := s.db.NewDelete().
		Model((*model.Post)(nil)).
		Where("id = ?", id).
		Where("sender = ?", sender).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	exists, err := s.db.NewSelect().Model((*model.Post)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if exists {
		return fmt.Errorf("delete post %d by %d: %w", id, sender, ErrForbidden)
	}
	return fmt.Errorf("post %d: %w", id, ErrNotFound)
}

// SenderOf returns the author of post id.
func (s *Posts) SenderOf(ctx context.Context, id model.ID) (model.UserID, error) {
	var sender model.UserID
	err := s.db.NewSelect().
		Model((*model.Post)(nil)).
		Column("sender").
		Where("id = ?", id).
		Scan(ctx, &sender)
	if err != nil {
		return 0, notFound(fmt.Sprintf("sender of %d", id), err)
	}
	return sender, nil
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
