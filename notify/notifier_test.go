package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/internal/cacheinfra"
	"github.com/goliatone/go-social-cache/internal/idgen"
	"github.com/goliatone/go-social-cache/ledger"
	"github.com/goliatone/go-social-cache/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memNotices struct {
	mu        sync.Mutex
	notices   []*model.Notice
	insertErr error
	listErr   error
}

func (m *memNotices) InsertNotice(ctx context.Context, n *model.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.notices = append(m.notices, n)
	return nil
}

func (m *memNotices) ListNotices(ctx context.Context, typ model.NoticeType, addressee model.UserID, paging model.Paging) ([]*model.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Notice
	for i := len(m.notices) - 1; i >= 0; i-- {
		n := m.notices[i]
		if n.Type == typ && n.Addressee == addressee {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotices) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notices)
}

type staticSenders map[model.ID]model.UserID

func (s staticSenders) SenderOf(ctx context.Context, post model.ID) (model.UserID, error) {
	if sender, ok := s[post]; ok {
		return sender, nil
	}
	return 0, cache.ErrNotFound
}

type fixture struct {
	notices  *memNotices
	adapter  *cache.Adapter
	notifier *Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	adapter := cache.NewAdapter(cacheinfra.NewMemoryExecutor())
	t.Cleanup(func() { _ = adapter.Close() })

	notices := &memNotices{}
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := New(notices, staticSenders{42: 1}, ledger.NewUnread(adapter, nil), idgen.NewSequence(1000),
		WithClock(func() time.Time { return clock }),
	)
	return &fixture{notices: notices, adapter: adapter, notifier: n}
}

func (f *fixture) unread(t *testing.T, user model.UserID) model.UnreadSummary {
	t.Helper()
	f.adapter.Flush()
	s, err := f.notifier.Unread(context.Background(), user)
	require.NoError(t, err)
	return s
}

func TestNotifier_SendPostNotice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.notifier.SendPostNotice(ctx, model.NoticeLike, 7, 42))
	require.NoError(t, f.notifier.SendPostNotice(ctx, model.NoticeHate, 8, 42))

	s := f.unread(t, 1)
	assert.Equal(t, int64(1), s.Likes)
	assert.Equal(t, int64(1), s.Hates)
	assert.Equal(t, int64(0), s.Comments)

	page, err := f.notifier.List(ctx, model.NoticeLike, 1, model.NewPaging(1))
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	n := page.List[0]
	assert.Equal(t, model.ID(1000), n.ID)
	assert.Equal(t, model.UserID(7), n.Sender)
	assert.Equal(t, "42", n.Object)
	assert.False(t, page.Next)
}

func TestNotifier_SkipsSelfAndUnknownAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.notifier.SendPostNotice(ctx, model.NoticeLike, 1, 42))
	require.NoError(t, f.notifier.SendPostNotice(ctx, model.NoticeLike, 7, 404))
	require.NoError(t, f.notifier.SendCommentNotice(ctx, 1, 1, 42))

	assert.Equal(t, 0, f.notices.count())
	assert.Equal(t, model.UnreadSummary{}, f.unread(t, 1))
}

func TestNotifier_FailedInsertLeavesCounter(t *testing.T) {
	f := newFixture(t)
	f.notices.insertErr = errors.New("db down")

	err := f.notifier.SendCommentNotice(context.Background(), 7, 1, 42)
	require.Error(t, err)
	assert.Equal(t, int64(0), f.unread(t, 1).Comments)
}

func TestNotifier_FriendNotices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.notifier.SendFriendNotice(ctx, model.NoticeFriendAdd, 2, 3, "hi"))
	require.NoError(t, f.notifier.SendFriendNotice(ctx, model.NoticeFriendRemove, 2, 3, "bye"))
	require.Error(t, f.notifier.SendFriendNotice(ctx, model.NoticeLike, 2, 3, "x"))

	s := f.unread(t, 3)
	assert.Equal(t, int64(1), s.FriendAdd)
	assert.Equal(t, int64(1), s.FriendRemove)
}

func TestNotifier_ListClearsOnlyItsType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.notifier.SendCommentNotice(ctx, 7, 1, 42))
	}
	require.NoError(t, f.notifier.SendPostNotice(ctx, model.NoticeLike, 7, 42))
	require.Equal(t, int64(3), f.unread(t, 1).Comments)

	// any page, even an empty one, marks the whole type read
	page, err := f.notifier.List(ctx, model.NoticeComment, 1, model.NewPaging(5))
	require.NoError(t, err)
	assert.Equal(t, 5, page.Page)

	s := f.unread(t, 1)
	assert.Equal(t, int64(0), s.Comments)
	assert.Equal(t, int64(1), s.Likes)
}

func TestNotifier_FailedListKeepsCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.notifier.SendCommentNotice(ctx, 7, 1, 42))
	f.notices.listErr = errors.New("db down")

	_, err := f.notifier.List(ctx, model.NoticeComment, 1, model.NewPaging(1))
	require.Error(t, err)
	assert.Equal(t, int64(1), f.unread(t, 1).Comments)

	_, err = f.notifier.List(ctx, model.NoticeType(9), 1, model.NewPaging(1))
	assert.Error(t, err)
}

func TestNotifier_ListRightAfterSendsMarksRead(t *testing.T) {
	ctx := context.Background()
	for run := 0; run < 50; run++ {
		f := newFixture(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, f.notifier.SendFriendNotice(ctx, model.NoticeFriendAdd, 2, 3, "hi"))
		}
		page, err := f.notifier.List(ctx, model.NoticeFriendAdd, 3, model.NewPaging(1))
		require.NoError(t, err)
		require.Len(t, page.List, 3)

		require.Equal(t, int64(0), f.unread(t, 3).FriendAdd, "run %d", run)
	}
}
