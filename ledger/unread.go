package ledger

import (
	"context"
	"fmt"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/model"
	"go.uber.org/zap"
)

var unreadRelations = map[model.NoticeType]cache.Relation{
	model.NoticeComment:      cache.RelUnreadComments,
	model.NoticeLike:         cache.RelUnreadLikes,
	model.NoticeHate:         cache.RelUnreadHates,
	model.NoticeFriendAdd:    cache.RelUnreadFriendAdd,
	model.NoticeFriendRemove: cache.RelUnreadFriendRemove,
}

// UnreadRelation returns the counter relation of notice type t.
func UnreadRelation(t model.NoticeType) (cache.Relation, bool) {
	rel, ok := unreadRelations[t]
	return rel, ok
}

// Unread maintains per-user, per-type unread notice counters.
type Unread struct {
	adapter *cache.Adapter
	logger  *zap.Logger
}

// NewUnread builds the unread counters over adapter. A nil logger
// discards logs.
func NewUnread(adapter *cache.Adapter, logger *zap.Logger) *Unread {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Unread{adapter: adapter, logger: logger}
}

// OnNoticeSent counts a stored notice for addressee. Call it only after the
// notice row was inserted.
func (u *Unread) OnNoticeSent(t model.NoticeType, addressee model.UserID) {
	key, ok := u.key(t, addressee)
	if !ok {
		return
	}
	u.adapter.Dispatch(cache.Incr(key))
}

// OnNoticeListConsumed clears the counter after any successful page read of
// type t, whichever page it was.
func (u *Unread) OnNoticeListConsumed(t model.NoticeType, user model.UserID) {
	key, ok := u.key(t, user)
	if !ok {
		return
	}
	u.adapter.Delete(key)
}

// Summary reads all unread counters of user in one batch. Missing counters
// read as zero.
func (u *Unread) Summary(ctx context.Context, user model.UserID) (model.UnreadSummary, error) {
	b := cache.NewBatch()
	for _, t := range model.NoticeTypes {
		key, _ := u.key(t, user)
		b.Add(t.String(), cache.Get(key))
	}

	res, err := u.adapter.ExecuteBatch(ctx, b)
	if err != nil {
		return model.UnreadSummary{}, fmt.Errorf("unread summary of %d: %w", user, err)
	}

	count := func(t model.NoticeType) int64 {
		n, _ := res.Int64(t.String())
		return n
	}
	return model.UnreadSummary{
		Comments:     count(model.NoticeComment),
		Likes:        count(model.NoticeLike),
		Hates:        count(model.NoticeHate),
		FriendAdd:    count(model.NoticeFriendAdd),
		FriendRemove: count(model.NoticeFriendRemove),
	}, nil
}

func (u *Unread) key(t model.NoticeType, user model.UserID) (string, bool) {
	rel, ok := UnreadRelation(t)
	if !ok {
		u.logger.Error("unknown notice type", zap.Int16("notice_type", int16(t)))
		return "", false
	}
	return u.adapter.Keys().Relation(rel, user.Int64()), true
}
