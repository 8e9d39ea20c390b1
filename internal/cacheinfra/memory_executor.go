package cacheinfra

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrExecutorClosed is returned by a MemoryExecutor after Close.
var ErrExecutorClosed = errors.New("executor closed")

const (
	errWrongType   = "WRONGTYPE Operation against a key holding the wrong kind of value"
	errNotInteger  = "ERR value is not an integer or out of range"
	errWrongArity  = "ERR wrong number of arguments"
	errUnknownVerb = "ERR unknown command"
)

type entryKind uint8

const (
	kindString entryKind = iota
	kindSet
	kindList
)

// memoryEntry values are never mutated once stored; writers build a new one.
type memoryEntry struct {
	kind     entryKind
	str      string
	set      map[string]struct{}
	list     []string
	expireAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// MemoryExecutor is an in-process cache.Executor for single-node deployments
// and tests. It understands the commands the cache package builds.
type MemoryExecutor struct {
	data   *xsync.MapOf[string, memoryEntry]
	now    func() time.Time
	closed atomic.Bool
}

var _ cache.Executor = (*MemoryExecutor)(nil)

// MemoryOption configures a MemoryExecutor.
type MemoryOption func(*MemoryExecutor)

// WithClock replaces the clock used for key expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryExecutor) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryExecutor returns an empty executor using the wall clock.
func NewMemoryExecutor(opts ...MemoryOption) *MemoryExecutor {
	m := &MemoryExecutor{
		data: xsync.NewMapOf[string, memoryEntry](),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryExecutor) Do(ctx context.Context, cmd cache.Command) (cache.Reply, error) {
	if m.closed.Load() {
		return cache.Reply{}, &cache.TransportError{Command: cmd.Name, Err: ErrExecutorClosed}
	}
	if err := ctx.Err(); err != nil {
		return cache.Reply{}, &cache.TransportError{Command: cmd.Name, Err: err}
	}
	return m.apply(cmd)
}

// Pipeline applies every command in order, like a Redis pipeline, and
// reports the first failure. Replies are only returned when all succeeded.
func (m *MemoryExecutor) Pipeline(ctx context.Context, cmds []cache.Command) ([]cache.Reply, error) {
	replies := make([]cache.Reply, 0, len(cmds))
	var first error
	for _, cmd := range cmds {
		reply, err := m.Do(ctx, cmd)
		if err != nil {
			if first == nil {
				first = err
			}
			continue
		}
		replies = append(replies, reply)
	}
	if first != nil {
		return nil, first
	}
	return replies, nil
}

func (m *MemoryExecutor) Close() error {
	m.closed.Store(true)
	return nil
}

// Len reports the number of live keys.
func (m *MemoryExecutor) Len() int {
	now := m.now()
	n := 0
	m.data.Range(func(_ string, e memoryEntry) bool {
		if !e.expired(now) {
			n++
		}
		return true
	})
	return n
}

func (m *MemoryExecutor) apply(cmd cache.Command) (cache.Reply, error) {
	args := cmd.Args
	switch cmd.Name {
	case "GET":
		if len(args) != 1 {
			return m.fail(cmd, errWrongArity)
		}
		return m.get(cmd, args[0])
	case "SET":
		if len(args) != 2 {
			return m.fail(cmd, errWrongArity)
		}
		m.data.Store(args[0], memoryEntry{kind: kindString, str: args[1]})
		return cache.BulkReply("OK"), nil
	case "DEL":
		if len(args) == 0 {
			return m.fail(cmd, errWrongArity)
		}
		return m.del(args), nil
	case "INCR":
		if len(args) != 1 {
			return m.fail(cmd, errWrongArity)
		}
		return m.add(cmd, args[0], 1)
	case "DECR":
		if len(args) != 1 {
			return m.fail(cmd, errWrongArity)
		}
		return m.add(cmd, args[0], -1)
	case "SADD", "SREM":
		if len(args) < 2 {
			return m.fail(cmd, errWrongArity)
		}
		return m.setWrite(cmd, args[0], args[1:], cmd.Name == "SADD")
	case "SISMEMBER":
		if len(args) != 2 {
			return m.fail(cmd, errWrongArity)
		}
		return m.isMember(cmd, args[0], args[1])
	case "LPUSH":
		if len(args) < 2 {
			return m.fail(cmd, errWrongArity)
		}
		return m.lpush(cmd, args[0], args[1:])
	case "EXPIRE":
		if len(args) != 2 {
			return m.fail(cmd, errWrongArity)
		}
		secs, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return m.fail(cmd, errNotInteger)
		}
		return m.expire(args[0], time.Duration(secs)*time.Second), nil
	default:
		return m.fail(cmd, errUnknownVerb+" '"+cmd.Name+"'")
	}
}

func (m *MemoryExecutor) fail(cmd cache.Command, msg string) (cache.Reply, error) {
	return cache.Reply{}, &cache.StoreError{Command: cmd.Name, Message: msg}
}

func (m *MemoryExecutor) load(key string) (memoryEntry, bool) {
	e, ok := m.data.Load(key)
	if !ok || e.expired(m.now()) {
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryExecutor) get(cmd cache.Command, key string) (cache.Reply, error) {
	e, ok := m.load(key)
	if !ok {
		return cache.NilReply(), nil
	}
	if e.kind != kindString {
		return m.fail(cmd, errWrongType)
	}
	return cache.BulkReply(e.str), nil
}

func (m *MemoryExecutor) del(keys []string) cache.Reply {
	now := m.now()
	var removed int64
	for _, key := range keys {
		m.data.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
			if loaded && !old.expired(now) {
				removed++
			}
			return old, true
		})
	}
	return cache.IntegerReply(removed)
}

func (m *MemoryExecutor) add(cmd cache.Command, key string, delta int64) (cache.Reply, error) {
	now := m.now()
	var (
		result  int64
		failure string
	)
	m.data.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded || old.expired(now) {
			result = delta
			return memoryEntry{kind: kindString, str: strconv.FormatInt(delta, 10)}, false
		}
		if old.kind != kindString {
			failure = errWrongType
			return old, false
		}
		n, err := strconv.ParseInt(old.str, 10, 64)
		if err != nil {
			failure = errNotInteger
			return old, false
		}
		result = n + delta
		return memoryEntry{kind: kindString, str: strconv.FormatInt(result, 10), expireAt: old.expireAt}, false
	})
	if failure != "" {
		return m.fail(cmd, failure)
	}
	return cache.IntegerReply(result), nil
}

func (m *MemoryExecutor) setWrite(cmd cache.Command, key string, members []string, add bool) (cache.Reply, error) {
	now := m.now()
	var (
		changed int64
		failure string
	)
	m.data.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		live := loaded && !old.expired(now)
		if live && old.kind != kindSet {
			failure = errWrongType
			return old, false
		}
		if !live {
			if !add {
				return old, true
			}
			old = memoryEntry{kind: kindSet}
		}

		next := make(map[string]struct{}, len(old.set)+len(members))
		for k := range old.set {
			next[k] = struct{}{}
		}
		for _, member := range members {
			_, present := next[member]
			switch {
			case add && !present:
				next[member] = struct{}{}
				changed++
			case !add && present:
				delete(next, member)
				changed++
			}
		}
		if len(next) == 0 {
			return memoryEntry{}, true
		}
		return memoryEntry{kind: kindSet, set: next, expireAt: old.expireAt}, false
	})
	if failure != "" {
		return m.fail(cmd, failure)
	}
	return cache.IntegerReply(changed), nil
}

func (m *MemoryExecutor) isMember(cmd cache.Command, key, member string) (cache.Reply, error) {
	e, ok := m.load(key)
	if !ok {
		return cache.IntegerReply(0), nil
	}
	if e.kind != kindSet {
		return m.fail(cmd, errWrongType)
	}
	if _, present := e.set[member]; present {
		return cache.IntegerReply(1), nil
	}
	return cache.IntegerReply(0), nil
}

func (m *MemoryExecutor) lpush(cmd cache.Command, key string, values []string) (cache.Reply, error) {
	now := m.now()
	var (
		length  int64
		failure string
	)
	m.data.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		live := loaded && !old.expired(now)
		if live && old.kind != kindList {
			failure = errWrongType
			return old, false
		}
		if !live {
			old = memoryEntry{kind: kindList}
		}
		next := make([]string, 0, len(old.list)+len(values))
		for i := len(values) - 1; i >= 0; i-- {
			next = append(next, values[i])
		}
		next = append(next, old.list...)
		length = int64(len(next))
		return memoryEntry{kind: kindList, list: next, expireAt: old.expireAt}, false
	})
	if failure != "" {
		return m.fail(cmd, failure)
	}
	return cache.IntegerReply(length), nil
}

func (m *MemoryExecutor) expire(key string, ttl time.Duration) cache.Reply {
	now := m.now()
	var applied bool
	m.data.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded || old.expired(now) {
			return old, true
		}
		applied = true
		if ttl <= 0 {
			return old, true
		}
		old.expireAt = now.Add(ttl)
		return old, false
	})
	if applied {
		return cache.IntegerReply(1)
	}
	return cache.IntegerReply(0)
}
