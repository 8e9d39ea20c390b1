package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/internal/cacheinfra"
	"github.com/goliatone/go-social-cache/model"
)

func newTestAdapter(t *testing.T, opts ...cacheinfra.MemoryOption) (*cache.Adapter, *cacheinfra.MemoryExecutor) {
	t.Helper()
	exec := cacheinfra.NewMemoryExecutor(opts...)
	adapter := cache.NewAdapter(exec)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, exec
}

func do(t *testing.T, adapter *cache.Adapter, cmd cache.Command) cache.Reply {
	t.Helper()
	reply, err := adapter.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("%s: %v", cmd, err)
	}
	return reply
}

func counter(t *testing.T, adapter *cache.Adapter, key string) (int64, bool) {
	t.Helper()
	return do(t, adapter, cache.Get(key)).Int64()
}

func viewer(id model.UserID) *model.UserID { return &id }

// fakeSenders is a SenderSource backed by a map.
type fakeSenders struct {
	mu      sync.Mutex
	senders map[model.ID]model.UserID
	calls   int
}

func (f *fakeSenders) SenderOf(ctx context.Context, post model.ID) (model.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	sender, ok := f.senders[post]
	if !ok {
		return 0, cache.ErrNotFound
	}
	return sender, nil
}

func (f *fakeSenders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
