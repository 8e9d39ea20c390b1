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

// FriendRepository persists directed friend relations.
type FriendRepository interface {
	AddFriend(ctx context.Context, user, friend model.UserID) error
	RemoveFriend(ctx context.Context, user, friend model.UserID) error
	ListFriends(ctx context.Context, user model.UserID, paging model.Paging) ([]model.UserID, error)
}

// Friendships stores friend edges in the friendships table.
type Friendships struct {
	db bun.IDB
}

var _ FriendRepository = (*Friendships)(nil)

// NewFriendships returns a friendship repository over db.
func NewFriendships(db bun.IDB) *Friendships {
	return &Friendships{db: db}
}

// AddFriend fails with ErrDuplicateAction when the relation exists.
func (s *Friendships) AddFriend(ctx context.Context, user, friend model.UserID) error {
	f := &model.Friendship{UserID: user, FriendID: friend, CreatedAt: time.Now().UTC()}
	res, err := s.db.NewInsert().Model(f).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("add friend %d -> %d: %w", user, friend, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("friend %d -> %d: %w", user, friend, ErrDuplicateAction)
	}
	return nil
}

// RemoveFriend fails with ErrNotFound when there is no relation.
func (s *Friendships) RemoveFriend(ctx context.Context, user, friend model.UserID) error {
	res, err := s.db.NewDelete().
		Model((*model.Friendship)(nil)).
		Where("user_id = ?", user).
		Where("friend_id = ?", friend).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remove friend %d -> %d: %w", user, friend, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("friend %d -> %d: %w", user, friend, ErrNotFound)
	}
	return nil
}

// ListFriends returns one page of the friends of user, newest first.
func (s *Friendships) ListFriends(ctx context.Context, user model.UserID, paging model.Paging) ([]model.UserID, error) {
	var ids []model.UserID
	err := s.db.NewSelect().
		Model((*model.Friendship)(nil)).
		Column("friend_id").
		Where("user_id = ?", user).
		OrderExpr("create_time DESC").
		Limit(paging.Size()).
		Offset(paging.Offset()).
		Scan(ctx, &ids)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list friends of %d: %w", user, err)
	}
	return ids, nil
}
