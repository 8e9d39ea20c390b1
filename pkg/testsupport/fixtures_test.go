package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/model"
)

func TestLoadFixtureJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.json")
	if err := os.WriteFile(path, []byte(`[{"id":"42","sender":7,"content":"hi"}]`), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var posts []*model.Post
	LoadFixtureJSON(t, path, &posts)
	if len(posts) != 1 || posts[0].ID != 42 || posts[0].Sender != 7 {
		t.Errorf("unexpected fixture: %+v", posts)
	}
}

func TestCompareWithGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "out.json")

	// first call creates the file
	CompareJSONWithGolden(t, path, model.UnreadSummary{Likes: 2})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("golden file not created: %v", err)
	}
	CompareWithGolden(t, path, data)
}

func TestPaths(t *testing.T) {
	if got := FixturePath("posts.json"); got != filepath.Join("testdata", "posts.json") {
		t.Errorf("FixturePath() = %s", got)
	}
	if got := GoldenPath("thread.json"); got != filepath.Join("testdata", "golden", "thread.json") {
		t.Errorf("GoldenPath() = %s", got)
	}
}

func TestSeedPosts(t *testing.T) {
	repo := store.NewPosts(NewSQLite(t))
	origin := model.ID(1)
	SeedPosts(t, repo, []*model.Post{
		{ID: 1, Sender: 1, Content: "post"},
		{ID: 2, Sender: 2, Content: "comment", OriginID: &origin},
	})

	p, err := repo.GetPost(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.CommentCount != 1 {
		t.Errorf("comment column = %d, want 1", p.CommentCount)
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()

	mem, exec := NewMemoryAdapter(t)
	if _, err := mem.Execute(ctx, cache.Incr("k")); err != nil {
		t.Fatal(err)
	}
	if exec.Len() != 1 {
		t.Errorf("memory Len() = %d", exec.Len())
	}

	rds, mr := NewRedisAdapter(t)
	if _, err := rds.Execute(ctx, cache.Set("k", "v")); err != nil {
		t.Fatal(err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Errorf("miniredis k = %q", got)
	}
}
