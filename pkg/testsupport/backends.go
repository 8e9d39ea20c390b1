package testsupport

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/internal/cacheinfra"
	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/model"
	"github.com/uptrace/bun"
)

// NewSQLite opens a migrated in-memory database closed at test end.
func NewSQLite(t testing.TB) *bun.DB {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewMemoryAdapter returns an adapter over a fresh in-process executor.
func NewMemoryAdapter(t testing.TB, opts ...cache.AdapterOption) (*cache.Adapter, *cacheinfra.MemoryExecutor) {
	t.Helper()
	exec := cacheinfra.NewMemoryExecutor()
	adapter := cache.NewAdapter(exec, opts...)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, exec
}

// NewRedisAdapter returns an adapter over a miniredis server. The server
// is returned so tests can inspect keys or simulate an outage.
func NewRedisAdapter(t testing.TB, opts ...cache.AdapterOption) (*cache.Adapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := cacheinfra.DefaultRedisConfig()
	cfg.Addrs = []string{mr.Addr()}
	exec, err := cacheinfra.NewRedisExecutor(cfg)
	if err != nil {
		t.Fatalf("redis executor: %v", err)
	}
	adapter := cache.NewAdapter(exec, opts...)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, mr
}

// SeedPosts inserts posts in order. Comments go through InsertComment.
func SeedPosts(t testing.TB, repo store.PostRepository, posts []*model.Post) {
	t.Helper()
	ctx := context.Background()
	for _, p := range posts {
		insert := repo.InsertPost
		if p.IsComment() {
			insert = repo.InsertComment
		}
		if err := insert(ctx, p); err != nil {
			t.Fatalf("seed post %d: %v", p.ID, err)
		}
	}
}
