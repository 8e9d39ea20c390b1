package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-social-cache/model"
	"github.com/uptrace/bun"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestPosts_InsertAndGet(t *testing.T) {
	posts := NewPosts(openTestDB(t))
	ctx := context.Background()

	p := &model.Post{ID: 42, Sender: 7, Content: "hello", Stats: model.Stats{LikeCount: 5}}
	if err := posts.InsertPost(ctx, p); err != nil {
		t.Fatalf("InsertPost() error = %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on insert")
	}

	got, err := posts.GetPost(ctx, 42)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if got.Sender != 7 || got.Content != "hello" || got.LikeCount != 5 {
		t.Errorf("GetPost() = %+v", got)
	}
	if got.Liked || got.Hated {
		t.Error("membership flags are never stored")
	}

	if _, err := posts.GetPost(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(404) error = %v, want ErrNotFound", err)
	}
}

func TestPosts_SenderOf(t *testing.T) {
	posts := NewPosts(openTestDB(t))
	ctx := context.Background()
	if err := posts.InsertPost(ctx, &model.Post{ID: 1, Sender: 9, Content: "x"}); err != nil {
		t.Fatal(err)
	}

	sender, err := posts.SenderOf(ctx, 1)
	if err != nil || sender != 9 {
		t.Errorf("SenderOf(1) = %d, %v", sender, err)
	}
	if _, err := posts.SenderOf(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("SenderOf(2) error = %v, want ErrNotFound", err)
	}
}

func TestPosts_CommentsAndThread(t *testing.T) {
	db := openTestDB(t)
	posts := NewPosts(db)
	ctx := context.Background()
	if err := posts.InsertPost(ctx, &model.Post{ID: 1, Sender: 1, Content: "origin"}); err != nil {
		t.Fatal(err)
	}

	origin := model.ID(1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		c := &model.Post{
			ID:        model.ID(100 + i),
			Sender:    2,
			Content:   "comment",
			OriginID:  &origin,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := posts.InsertComment(ctx, c); err != nil {
			t.Fatalf("InsertComment(%d) error = %v", c.ID, err)
		}
	}

	var storedAs string
	if err := db.NewRaw("SELECT typeof(origin_id) FROM posts WHERE id = ?", 100).Scan(ctx, &storedAs); err != nil {
		t.Fatal(err)
	}
	if storedAs != "integer" {
		t.Errorf("origin_id stored as %s, want integer", storedAs)
	}

	thread, err := posts.GetThread(ctx, 1, model.MaxThreadComments)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if thread.Post.CommentCount != 12 {
		t.Errorf("relational comment count = %d, want 12", thread.Post.CommentCount)
	}
	if len(thread.Comments) != model.MaxThreadComments {
		t.Fatalf("thread has %d comments, want %d", len(thread.Comments), model.MaxThreadComments)
	}
	if thread.Comments[0].ID != 100 {
		t.Errorf("comments should be oldest first, got %d", thread.Comments[0].ID)
	}

	page2, err := posts.ListComments(ctx, 1, model.Paging{Page: 2, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 2 {
		t.Errorf("page 2 has %d comments, want 2", len(page2))
	}

	missing := model.ID(999)
	err = posts.InsertComment(ctx, &model.Post{ID: 500, Sender: 2, OriginID: &missing})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("comment on missing origin error = %v", err)
	}
	if _, err := posts.GetPost(ctx, 500); !errors.Is(err, ErrNotFound) {
		t.Error("failed comment must not be stored")
	}
}

func TestPosts_Listings(t *testing.T) {
	posts := NewPosts(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		sender := model.UserID(1)
		if i%5 == 0 {
			sender = 2
		}
		p := &model.Post{ID: model.ID(i + 1), Sender: sender, Content: "p", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := posts.InsertPost(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	origin := model.ID(1)
	if err := posts.InsertComment(ctx, &model.Post{ID: 99, Sender: 1, OriginID: &origin}); err != nil {
		t.Fatal(err)
	}

	first, err := posts.Browse(ctx, model.NewPaging(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != model.DefaultPageSize {
		t.Fatalf("first page = %d posts", len(first))
	}
	if first[0].ID != 25 {
		t.Errorf("browse should be newest first, got %d", first[0].ID)
	}
	second, _ := posts.Browse(ctx, model.NewPaging(2))
	if len(second) != 5 {
		t.Errorf("second page = %d posts, want 5 (comments excluded)", len(second))
	}

	mine, err := posts.ListBySender(ctx, 2, model.NewPaging(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 5 {
		t.Errorf("ListBySender(2) = %d posts, want 5", len(mine))
	}
}

func TestPosts_DeletePost(t *testing.T) {
	posts := NewPosts(openTestDB(t))
	ctx := context.Background()
	if err := posts.InsertPost(ctx, &model.Post{ID: 5, Sender: 1, Content: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := posts.DeletePost(ctx, 5, 2); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by stranger error = %v, want ErrForbidden", err)
	}
	if err := posts.DeletePost(ctx, 5, 1); err != nil {
		t.Fatalf("delete by author error = %v", err)
	}
	if err := posts.DeletePost(ctx, 5, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestNotices(t *testing.T) {
	notices := NewNotices(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		n := &model.Notice{
			ID: model.ID(i + 1), Sender: 2, Type: model.NoticeLike, Object: "42",
			Addressee: 7, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := notices.InsertNotice(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	if err := notices.InsertNotice(ctx, &model.Notice{ID: 10, Sender: 2, Type: model.NoticeHate, Object: "42", Addressee: 7}); err != nil {
		t.Fatal(err)
	}
	if err := notices.InsertNotice(ctx, &model.Notice{ID: 11, Type: 42}); err == nil {
		t.Error("expected error for invalid notice type")
	}

	likes, err := notices.ListNotices(ctx, model.NoticeLike, 7, model.NewPaging(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 3 || likes[0].ID != 3 {
		t.Errorf("ListNotices(like) = %d notices, first %v", len(likes), likes)
	}
	none, err := notices.ListNotices(ctx, model.NoticeComment, 7, model.NewPaging(1))
	if err != nil || len(none) != 0 {
		t.Errorf("ListNotices(comment) = %v, %v", none, err)
	}
}

func TestFriendships(t *testing.T) {
	friends := NewFriendships(openTestDB(t))
	ctx := context.Background()

	if err := friends.AddFriend(ctx, 1, 2); err != nil {
		t.Fatalf("AddFriend() error = %v", err)
	}
	if err := friends.AddFriend(ctx, 1, 2); !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("duplicate AddFriend() error = %v", err)
	}
	if err := friends.AddFriend(ctx, 1, 3); err != nil {
		t.Fatal(err)
	}

	ids, err := friends.ListFriends(ctx, 1, model.NewPaging(1))
	if err != nil || len(ids) != 2 {
		t.Errorf("ListFriends() = %v, %v", ids, err)
	}

	if err := friends.RemoveFriend(ctx, 1, 2); err != nil {
		t.Fatalf("RemoveFriend() error = %v", err)
	}
	if err := friends.RemoveFriend(ctx, 1, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("second RemoveFriend() error = %v", err)
	}
}
