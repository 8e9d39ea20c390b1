package ledger

import (
	"context"
	"fmt"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/model"
	"go.uber.org/zap"
)

// Reaction is a kind of vote a user casts on a post.
type Reaction int

const (
	Like Reaction = iota
	Hate
)

func (r Reaction) String() string {
	if r == Hate {
		return "hate"
	}
	return "like"
}

// NoticeType is the notice sent to the author when r is cast.
func (r Reaction) NoticeType() model.NoticeType {
	if r == Hate {
		return model.NoticeHate
	}
	return model.NoticeLike
}

// Transition moves a user into or out of a reaction's membership set.
type Transition int

const (
	Add Transition = iota
	Remove
)

func (t Transition) String() string {
	if t == Remove {
		return "remove"
	}
	return "add"
}

// Ledger applies reaction changes and comment counts to the cache.
//
// Membership is checked before the write in a separate round trip, so two
// concurrent identical requests can both pass the check. The membership set
// absorbs the duplicate but the counter moves twice.
type Ledger struct {
	adapter *cache.Adapter
	logger  *zap.Logger
}

// NewLedger builds the mutation ledger over adapter. A nil logger discards
// logs.
func NewLedger(adapter *cache.Adapter, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{adapter: adapter, logger: logger}
}

// Like adds user to the likers of post and bumps the like counter. It
// fails with cache.ErrDuplicateAction when user already likes post.
func (l *Ledger) Like(ctx context.Context, post model.ID, user model.UserID) error {
	return l.Apply(ctx, Like, Add, post, user)
}

// Unlike removes user from the likers of post and decrements the counter.
// It fails with cache.ErrNotMember when user did not like post.
func (l *Ledger) Unlike(ctx context.Context, post model.ID, user model.UserID) error {
	return l.Apply(ctx, Like, Remove, post, user)
}

// Hate is Like for the hate relation.
func (l *Ledger) Hate(ctx context.Context, post model.ID, user model.UserID) error {
	return l.Apply(ctx, Hate, Add, post, user)
}

// Unhate is Unlike for the hate relation.
func (l *Ledger) Unhate(ctx context.Context, post model.ID, user model.UserID) error {
	return l.Apply(ctx, Hate, Remove, post, user)
}

// Apply performs transition t of reaction r for user on post. Adding an
// existing member fails with cache.ErrDuplicateAction, removing a non-member
// with cache.ErrNotMember; neither touches the counter. Membership and
// counter change together in one pipeline.
func (l *Ledger) Apply(ctx context.Context, r Reaction, t Transition, post model.ID, user model.UserID) error {
	setKey, countKey := l.reactionKeys(r, post)
	member := cache.Member(user.Int64())

	reply, err := l.adapter.Execute(ctx, cache.SIsMember(setKey, member))
	if err != nil {
		return fmt.Errorf("%s %s post %d: %w", r, t, post, err)
	}
	isMember := reply.Bool()

	var cmds []cache.Command
	switch t {
	case Add:
		if isMember {
			return fmt.Errorf("%s post %d by %d: %w", r, post, user, cache.ErrDuplicateAction)
		}
		cmds = []cache.Command{cache.SAdd(setKey, member), cache.Incr(countKey)}
	case Remove:
		if !isMember {
			return fmt.Errorf("un%s post %d by %d: %w", r, post, user, cache.ErrNotMember)
		}
		cmds = []cache.Command{cache.SRem(setKey, member), cache.Decr(countKey)}
	default:
		return fmt.Errorf("unknown transition %d", t)
	}

	if _, err := l.adapter.ExecuteAll(ctx, cmds); err != nil {
		return fmt.Errorf("%s %s post %d: %w", r, t, post, err)
	}
	return nil
}

// RecordComment counts a new comment on post. A cache failure is logged;
// the comment itself is already stored.
func (l *Ledger) RecordComment(ctx context.Context, post model.ID) {
	key := l.adapter.Keys().CommentCount(post.Int64())
	if _, err := l.adapter.Execute(ctx, cache.Incr(key)); err != nil {
		l.logger.Warn("comment count not recorded", zap.Int64("post_id", post.Int64()), zap.Error(err))
	}
}

// Forget drops every counter, membership and sender key of post in the
// background.
func (l *Ledger) Forget(post model.ID) {
	l.adapter.Delete(l.adapter.Keys().PostKeys(post.Int64())...)
}

func (l *Ledger) reactionKeys(r Reaction, post model.ID) (set, count string) {
	keys := l.adapter.Keys()
	id := post.Int64()
	if r == Hate {
		return keys.PostHates(id), keys.PostHateCount(id)
	}
	return keys.PostLikes(id), keys.PostLikeCount(id)
}
