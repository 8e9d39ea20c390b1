package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeExecutor answers commands from a fixed reply table and records calls.
type fakeExecutor struct {
	mu       sync.Mutex
	calls    []string
	replies  map[string]Reply
	errs     map[string]error
	delay    time.Duration
	closed   bool
	shortBuf bool
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		replies: make(map[string]Reply),
		errs:    make(map[string]error),
	}
}

func (f *fakeExecutor) Do(ctx context.Context, cmd Command) (Reply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd.String())
	delay := f.delay
	reply, hasReply := f.replies[cmd.String()]
	err := f.errs[cmd.String()]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}
	if err != nil {
		return Reply{}, err
	}
	if !hasReply {
		return NilReply(), nil
	}
	return reply, nil
}

func (f *fakeExecutor) Pipeline(ctx context.Context, cmds []Command) ([]Reply, error) {
	out := make([]Reply, 0, len(cmds))
	for _, cmd := range cmds {
		reply, err := f.Do(ctx, cmd)
		if err != nil {
			return nil, err
		}
		out = append(out, reply)
	}
	if f.shortBuf {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func (f *fakeExecutor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeExecutor) getCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestAdapter_Execute_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantStore bool
	}{
		{name: "store error passes through", err: &StoreError{Command: "INCR", Message: "ERR value is not an integer"}, wantStore: true},
		{name: "plain error becomes transport", err: errors.New("connection refused")},
		{name: "transport error passes through", err: &TransportError{Command: "GET", Err: errors.New("pool closed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecutor()
			exec.errs["INCR k"] = tt.err
			adapter := NewAdapter(exec)

			_, err := adapter.Execute(context.Background(), Incr("k"))
			if err == nil {
				t.Fatal("expected error")
			}

			var storeErr *StoreError
			if got := errors.As(err, &storeErr); got != tt.wantStore {
				t.Errorf("errors.As(*StoreError) = %v, want %v", got, tt.wantStore)
			}
			if !tt.wantStore && !IsTransport(err) {
				t.Errorf("expected transport error, got %T", err)
			}
		})
	}
}

func TestAdapter_Execute_Timeout(t *testing.T) {
	exec := newFakeExecutor()
	exec.delay = time.Second
	adapter := NewAdapter(exec, WithCommandTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := adapter.Execute(context.Background(), Get("slow"))
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not applied, took %v", elapsed)
	}
}

func TestAdapter_ExecuteAll_PreservesOrder(t *testing.T) {
	exec := newFakeExecutor()
	exec.replies["GET a"] = BulkReply("1")
	exec.replies["GET c"] = BulkReply("3")
	adapter := NewAdapter(exec)

	replies, err := adapter.ExecuteAll(context.Background(), []Command{Get("a"), Get("b"), Get("c")})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	if len(replies) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(replies))
	}
	if n, ok := replies[0].Int64(); !ok || n != 1 {
		t.Errorf("reply[0] = %v, %v", n, ok)
	}
	if !replies[1].IsNil() {
		t.Errorf("reply[1] should be nil, got %v", replies[1])
	}
	if n, ok := replies[2].Int64(); !ok || n != 3 {
		t.Errorf("reply[2] = %v, %v", n, ok)
	}
}

func TestAdapter_ExecuteAll_FailsWholeBatch(t *testing.T) {
	exec := newFakeExecutor()
	exec.errs["INCR b"] = &StoreError{Command: "INCR", Message: "WRONGTYPE"}
	adapter := NewAdapter(exec)

	replies, err := adapter.ExecuteAll(context.Background(), []Command{Incr("a"), Incr("b")})
	if err == nil {
		t.Fatal("expected error")
	}
	if replies != nil {
		t.Errorf("expected no replies on failure, got %v", replies)
	}
}

func TestAdapter_ExecuteAll_ShortReply(t *testing.T) {
	exec := newFakeExecutor()
	exec.shortBuf = true
	adapter := NewAdapter(exec)

	_, err := adapter.ExecuteAll(context.Background(), []Command{Get("a"), Get("b")})
	if !IsTransport(err) {
		t.Fatalf("expected transport error for misaligned replies, got %v", err)
	}
}

func TestAdapter_ExecuteAll_Empty(t *testing.T) {
	exec := newFakeExecutor()
	adapter := NewAdapter(exec)

	replies, err := adapter.ExecuteAll(context.Background(), nil)
	if err != nil || replies != nil {
		t.Fatalf("ExecuteAll(nil) = %v, %v", replies, err)
	}
	if calls := exec.getCalls(); len(calls) != 0 {
		t.Errorf("expected no calls, got %v", calls)
	}
}

func TestAdapter_ExecuteBatch_ByTag(t *testing.T) {
	exec := newFakeExecutor()
	exec.replies["GET post_like_count:42"] = BulkReply("9")
	exec.replies["SISMEMBER post_likes:42 7"] = IntegerReply(1)
	exec.replies["SISMEMBER post_hates:42 7"] = IntegerReply(0)
	adapter := NewAdapter(exec)
	keys := adapter.Keys()

	b := NewBatch().
		Add("liked", SIsMember(keys.PostLikes(42), Member(7))).
		Add("likes", Get(keys.PostLikeCount(42))).
		Add("hated", SIsMember(keys.PostHates(42), Member(7))).
		Add("hates", Get(keys.PostHateCount(42)))

	res, err := adapter.ExecuteBatch(context.Background(), b)
	if err != nil {
		t.Fatalf("ExecuteBatch() error = %v", err)
	}
	if n, ok := res.Int64("likes"); !ok || n != 9 {
		t.Errorf("likes = %d, %v; want 9, true", n, ok)
	}
	if _, ok := res.Int64("hates"); ok {
		t.Error("hates should be absent")
	}
	if !res.Bool("liked") {
		t.Error("liked should be true")
	}
	if res.Bool("hated") {
		t.Error("hated should be false")
	}
	if _, ok := res.Int64("unknown"); ok {
		t.Error("unknown tag should report ok=false")
	}
}

func TestBatch_DuplicateTagPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate tag")
		}
	}()
	NewBatch().Add("a", Get("x")).Add("a", Get("y"))
}

func TestAdapter_GetInteger(t *testing.T) {
	exec := newFakeExecutor()
	exec.replies["GET n"] = BulkReply("12")
	exec.replies["GET s"] = BulkReply("twelve")
	adapter := NewAdapter(exec)
	ctx := context.Background()

	n, err := adapter.GetInteger(ctx, "n")
	if err != nil || n != 12 {
		t.Errorf("GetInteger(n) = %d, %v", n, err)
	}

	_, err = adapter.GetInteger(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInteger(missing) error = %v, want ErrNotFound", err)
	}

	_, err = adapter.GetInteger(ctx, "s")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("GetInteger(s) error = %v, want *DecodeError", err)
	}
	if decodeErr.Key != "s" {
		t.Errorf("DecodeError.Key = %q", decodeErr.Key)
	}
}

func TestAdapter_DispatchLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	exec := newFakeExecutor()
	exec.errs["INCR unread_likes:7"] = errors.New("broken pipe")
	adapter := NewAdapter(exec, WithLogger(zap.New(core)))

	adapter.Dispatch(Incr("unread_likes:7"))
	adapter.Flush()

	entries := logs.FilterMessage("cache dispatch failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["key"]; got != "unread_likes:7" {
		t.Errorf("logged key = %v", got)
	}
}

func TestAdapter_DeleteIsAsync(t *testing.T) {
	exec := newFakeExecutor()
	adapter := NewAdapter(exec)

	adapter.Delete("post_likes:1", "post_like_count:1")
	adapter.Delete()
	adapter.Flush()

	calls := exec.getCalls()
	if len(calls) != 1 {
		t.Fatalf("expected a single DEL, got %v", calls)
	}
	if !strings.HasPrefix(calls[0], "DEL post_likes:1 post_like_count:1") {
		t.Errorf("unexpected call %q", calls[0])
	}
}

func TestAdapter_CloseFlushesAndRejects(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	exec := newFakeExecutor()
	exec.delay = 10 * time.Millisecond
	adapter := NewAdapter(exec, WithLogger(zap.New(core)))

	adapter.Dispatch(Incr("a"))
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if calls := exec.getCalls(); len(calls) != 1 {
		t.Errorf("in-flight dispatch not flushed: %v", calls)
	}
	if !exec.closed {
		t.Error("executor not closed")
	}

	adapter.Dispatch(Incr("b"))
	if logs.FilterMessage("cache dispatch after close").Len() != 1 {
		t.Error("expected warning for dispatch after close")
	}
	if err := adapter.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestAdapter_DispatchAllKeepsOrder(t *testing.T) {
	exec := newFakeExecutor()
	adapter := NewAdapter(exec)

	adapter.DispatchAll(Set("post_sender:9", "3"), Expire("post_sender:9", time.Hour))
	adapter.DispatchAll()
	adapter.Flush()

	calls := exec.getCalls()
	want := []string{"SET post_sender:9 3", "EXPIRE post_sender:9 3600"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestAdapter_DispatchesRunInOrder(t *testing.T) {
	exec := newFakeExecutor()
	exec.delay = time.Millisecond
	adapter := NewAdapter(exec, WithDispatchQueue(4))
	defer adapter.Close()

	var want []string
	for i := 0; i < 20; i++ {
		if i%3 == 2 {
			adapter.Delete("unread_likes:7")
			want = append(want, "DEL unread_likes:7")
			continue
		}
		adapter.Dispatch(Incr("unread_likes:7"))
		want = append(want, "INCR unread_likes:7")
	}
	adapter.Flush()

	calls := exec.getCalls()
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call[%d] = %q, want %q (calls %v)", i, calls[i], want[i], calls)
		}
	}
}

func TestAdapter_DeleteRunsAfterEarlierDispatch(t *testing.T) {
	exec := newFakeExecutor()
	adapter := NewAdapter(exec)
	defer adapter.Close()

	adapter.DispatchAll(Set("post_sender:5", "1"), Expire("post_sender:5", time.Minute))
	adapter.Delete("post_sender:5")
	adapter.Flush()

	calls := exec.getCalls()
	if len(calls) != 3 || calls[2] != "DEL post_sender:5" {
		t.Errorf("DEL must run last, calls = %v", calls)
	}
}
