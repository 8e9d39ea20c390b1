package social

import (
	"context"
	"errors"

	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/model"
	"github.com/goliatone/go-social-cache/notify"
	"go.uber.org/zap"
)

// ErrSelfFriendship is returned when a user adds or removes themselves.
var ErrSelfFriendship = errors.New("cannot befriend yourself")

// Friends manages directed friend relations.
type Friends struct {
	repo     store.FriendRepository
	notifier *notify.Notifier
	logger   *zap.Logger
}

// NewFriends builds the friendship service.
func NewFriends(repo store.FriendRepository, notifier *notify.Notifier, opts ...Option) *Friends {
	o := buildOptions(opts)
	return &Friends{repo: repo, notifier: notifier, logger: o.logger}
}

// Add records friend as a friend of user and sends friend msg. An existing
// relation fails with store.ErrDuplicateAction.
func (s *Friends) Add(ctx context.Context, user, friend model.UserID, msg string) error {
	if user == friend {
		return ErrSelfFriendship
	}
	if err := s.repo.AddFriend(ctx, user, friend); err != nil {
		return err
	}
	s.notify(ctx, model.NoticeFriendAdd, user, friend, msg)
	return nil
}

// Remove drops the relation and tells friend. A missing relation fails with
// store.ErrNotFound.
func (s *Friends) Remove(ctx context.Context, user, friend model.UserID, msg string) error {
	if user == friend {
		return ErrSelfFriendship
	}
	if err := s.repo.RemoveFriend(ctx, user, friend); err != nil {
		return err
	}
	s.notify(ctx, model.NoticeFriendRemove, user, friend, msg)
	return nil
}

// List returns one page of the friends of user.
func (s *Friends) List(ctx context.Context, user model.UserID, paging model.Paging) (model.Page[model.UserID], error) {
	ids, err := s.repo.ListFriends(ctx, user, paging)
	if err != nil {
		return model.Page[model.UserID]{}, err
	}
	return model.NewPage(paging, ids), nil
}

func (s *Friends) notify(ctx context.Context, t model.NoticeType, user, friend model.UserID, msg string) {
	if err := s.notifier.SendFriendNotice(ctx, t, user, friend, msg); err != nil {
		s.logger.Warn("friend notice not sent",
			zap.Stringer("notice_type", t),
			zap.Int64("addressee", friend.Int64()),
			zap.Error(err),
		)
	}
}
