package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Executor is the backend contract the Adapter drives. Implementations
// report store error replies as *StoreError and channel failures as
// *TransportError; anything else is treated as a transport failure.
type Executor interface {
	Do(ctx context.Context, cmd Command) (Reply, error)
	// Pipeline sends cmds in one round trip. It is not atomic: every command
	// runs even when a sibling fails, and the first failure is returned.
	// Replies are returned in submission order.
	Pipeline(ctx context.Context, cmds []Command) ([]Reply, error)
	Close() error
}

// DefaultCommandTimeout bounds each command when no timeout is configured.
const DefaultCommandTimeout = 2 * time.Second

// DefaultDispatchQueue is the number of background commands that may wait
// for the dispatch worker before Dispatch blocks.
const DefaultDispatchQueue = 1024

// Adapter is the typed client over an Executor used by the ledger.
//
// Commands sent with Dispatch, DispatchAll and Delete go through a single
// FIFO queue drained by one worker, so they reach the store in the order
// they were dispatched. Execute and friends bypass the queue.
type Adapter struct {
	exec      Executor
	keys      Keys
	timeout   time.Duration
	queueSize int
	logger    *zap.Logger

	mu       sync.RWMutex
	closed   bool
	queue    chan []Command
	done     chan struct{}
	inflight sync.WaitGroup
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the logger used to report background failures. A nil
// logger is ignored.
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithCommandTimeout bounds every command; zero or negative disables the
// bound and relies on the backend's own timeouts.
func WithCommandTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) { a.timeout = d }
}

// WithKeys sets the key builder, typically to apply a namespace prefix.
func WithKeys(keys Keys) AdapterOption {
	return func(a *Adapter) { a.keys = keys }
}

// WithDispatchQueue sets how many dispatched commands may be pending before
// Dispatch blocks. Values below one are ignored.
func WithDispatchQueue(size int) AdapterOption {
	return func(a *Adapter) {
		if size > 0 {
			a.queueSize = size
		}
	}
}

// NewAdapter wraps exec and starts the dispatch worker. Call Close to stop
// it.
func NewAdapter(exec Executor, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		exec:      exec,
		timeout:   DefaultCommandTimeout,
		queueSize: DefaultDispatchQueue,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.queue = make(chan []Command, a.queueSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Keys returns the key builder shared by every caller of this adapter.
func (a *Adapter) Keys() Keys { return a.keys }

// Execute runs a single command.
func (a *Adapter) Execute(ctx context.Context, cmd Command) (Reply, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	reply, err := a.exec.Do(ctx, cmd)
	if err != nil {
		return Reply{}, classify(cmd.Name, err)
	}
	return reply, nil
}

// ExecuteAll dispatches cmds together and fails the whole batch if any one
// of them fails. Replies match the order of cmds.
func (a *Adapter) ExecuteAll(ctx context.Context, cmds []Command) ([]Reply, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	ctx, cancel := a.bound(ctx)
	defer cancel()

	replies, err := a.exec.Pipeline(ctx, cmds)
	if err != nil {
		return nil, classify(pipelineName(cmds), err)
	}
	if len(replies) != len(cmds) {
		return nil, &TransportError{
			Command: pipelineName(cmds),
			Err:     fmt.Errorf("got %d replies for %d commands", len(replies), len(cmds)),
		}
	}
	return replies, nil
}

// ExecuteBatch runs a tagged batch.
func (a *Adapter) ExecuteBatch(ctx context.Context, b *Batch) (BatchResult, error) {
	replies, err := a.ExecuteAll(ctx, b.cmds)
	if err != nil {
		return BatchResult{}, err
	}
	return newBatchResult(b, replies), nil
}

// GetInteger reads key as an integer. It fails with ErrNotFound when the key
// is absent and *DecodeError when the value is not a number.
func (a *Adapter) GetInteger(ctx context.Context, key string) (int64, error) {
	reply, err := a.Execute(ctx, Get(key))
	if err != nil {
		return 0, err
	}
	if reply.IsNil() {
		return 0, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	n, ok := reply.Int64()
	if !ok {
		return 0, &DecodeError{Key: key, Want: "integer", Reply: reply}
	}
	return n, nil
}

// Dispatch sends cmd without waiting for the reply. Failures are logged.
func (a *Adapter) Dispatch(cmd Command) {
	a.DispatchAll(cmd)
}

// DispatchAll queues cmds as one pipeline without waiting for the replies.
// The pipeline runs after every earlier dispatch. Failures are logged.
func (a *Adapter) DispatchAll(cmds ...Command) {
	if len(cmds) == 0 {
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Warn("cache dispatch after close",
			zap.String("command", pipelineName(cmds)),
			zap.String("key", cmds[0].Key()),
		)
		return
	}

	a.inflight.Add(1)
	a.queue <- cmds
}

func (a *Adapter) drain() {
	defer close(a.done)
	for cmds := range a.queue {
		a.run(cmds)
		a.inflight.Done()
	}
}

func (a *Adapter) run(cmds []Command) {
	ctx, cancel := a.bound(context.Background())
	defer cancel()

	var err error
	if len(cmds) == 1 {
		_, err = a.exec.Do(ctx, cmds[0])
	} else {
		_, err = a.exec.Pipeline(ctx, cmds)
	}
	if err != nil {
		a.logger.Warn("cache dispatch failed",
			zap.String("command", pipelineName(cmds)),
			zap.String("key", cmds[0].Key()),
			zap.Error(err),
		)
	}
}

// Delete removes keys in the background, after every earlier dispatch.
func (a *Adapter) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	a.Dispatch(Del(keys...))
}

// Flush blocks until every dispatched command has completed.
func (a *Adapter) Flush() {
	a.inflight.Wait()
}

// Close drains the dispatch queue, stops the worker and closes the
// executor. Dispatches after Close are dropped with a warning.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.exec.Close()
}

func (a *Adapter) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

func classify(command string, err error) error {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return err
	}
	return &TransportError{Command: command, Err: err}
}

func pipelineName(cmds []Command) string {
	if len(cmds) == 1 {
		return cmds[0].Name
	}
	return fmt.Sprintf("PIPELINE[%d]", len(cmds))
}
