package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-social-cache/internal/idgen"
	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/ledger"
	"github.com/goliatone/go-social-cache/model"
	"go.uber.org/zap"
)

// SenderResolver finds the author of a post.
type SenderResolver interface {
	SenderOf(ctx context.Context, post model.ID) (model.UserID, error)
}

// Notifier sends and lists notices.
type Notifier struct {
	notices store.NoticeRepository
	senders SenderResolver
	unread  *ledger.Unread
	ids     idgen.Generator
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger used for dropped notices. A nil logger is
// ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithClock sets the clock stamped on new notices.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New builds a Notifier. Notice rows go to notices, post authors are
// resolved through senders and stored notices are counted on unread.
func New(notices store.NoticeRepository, senders SenderResolver, unread *ledger.Unread, ids idgen.Generator, opts ...Option) *Notifier {
	n := &Notifier{
		notices: notices,
		senders: senders,
		unread:  unread,
		ids:     ids,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendPostNotice tells the author of post that sender liked or hated it.
// When the author cannot be resolved the notice is dropped. Users are not
// notified of their own actions.
func (n *Notifier) SendPostNotice(ctx context.Context, t model.NoticeType, sender model.UserID, post model.ID) error {
	addressee, err := n.senders.SenderOf(ctx, post)
	if err != nil {
		n.logger.Warn("notice dropped, post author unknown",
			zap.Stringer("notice_type", t),
			zap.Int64("post_id", post.Int64()),
			zap.Error(err),
		)
		return nil
	}
	if addressee == sender {
		return nil
	}
	return n.send(ctx, t, sender, post.String(), addressee)
}

// SendCommentNotice tells addressee that sender commented on post.
func (n *Notifier) SendCommentNotice(ctx context.Context, sender, addressee model.UserID, post model.ID) error {
	if addressee == sender {
		return nil
	}
	return n.send(ctx, model.NoticeComment, sender, post.String(), addressee)
}

// SendFriendNotice sends a friend add or remove notice carrying msg.
func (n *Notifier) SendFriendNotice(ctx context.Context, t model.NoticeType, sender, addressee model.UserID, msg string) error {
	if t != model.NoticeFriendAdd && t != model.NoticeFriendRemove {
		return fmt.Errorf("send friend notice: unexpected type %s", t)
	}
	return n.send(ctx, t, sender, msg, addressee)
}

func (n *Notifier) send(ctx context.Context, t model.NoticeType, sender model.UserID, object string, addressee model.UserID) error {
	notice := &model.Notice{
		ID:        n.ids.NextID(),
		Sender:    sender,
		Type:      t,
		Object:    object,
		Addressee: addressee,
		CreatedAt: n.now(),
	}
	if err := n.notices.InsertNotice(ctx, notice); err != nil {
		return fmt.Errorf("send %s notice to %d: %w", t, addressee, err)
	}
	n.unread.OnNoticeSent(t, addressee)
	return nil
}

// List returns one page of user's notices of type t and marks the whole
// type read.
func (n *Notifier) List(ctx context.Context, t model.NoticeType, user model.UserID, paging model.Paging) (model.Page[*model.Notice], error) {
	if !t.Valid() {
		return model.Page[*model.Notice]{}, fmt.Errorf("list notices: invalid type %d", t)
	}
	list, err := n.notices.ListNotices(ctx, t, user, paging)
	if err != nil {
		return model.Page[*model.Notice]{}, err
	}
	n.unread.OnNoticeListConsumed(t, user)
	return model.NewPage(paging, list), nil
}

// Unread returns user's unread counters.
func (n *Notifier) Unread(ctx context.Context, user model.UserID) (model.UnreadSummary, error) {
	return n.unread.Summary(ctx, user)
}
