package cacheinfra

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/redis/go-redis/v9"
)

var _ cache.Executor = (*RedisExecutor)(nil)

// RedisExecutor runs cache commands against Redis through go-redis.
type RedisExecutor struct {
	client redis.UniversalClient
}

// NewRedisExecutor validates cfg and opens a universal client. No
// connection is made until the first command.
func NewRedisExecutor(cfg RedisConfig) (*RedisExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &RedisExecutor{client: client}, nil
}

// NewRedisExecutorFromClient wraps an existing client.
func NewRedisExecutorFromClient(client redis.UniversalClient) *RedisExecutor {
	return &RedisExecutor{client: client}
}

// Ping checks that Redis is reachable.
func (r *RedisExecutor) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return mapRedisError("PING", err)
	}
	return nil
}

// Do sends one command. A missing key is a nil reply, not an error.
func (r *RedisExecutor) Do(ctx context.Context, cmd cache.Command) (cache.Reply, error) {
	return decodeCmd(cmd, r.client.Do(ctx, commandArgs(cmd)...))
}

// Pipeline sends cmds in one round trip. A failing command fails the batch;
// absent keys are not failures.
func (r *RedisExecutor) Pipeline(ctx context.Context, cmds []cache.Command) ([]cache.Reply, error) {
	pipe := r.client.Pipeline()
	results := make([]*redis.Cmd, len(cmds))
	for i, cmd := range cmds {
		results[i] = pipe.Do(ctx, commandArgs(cmd)...)
	}

	// Exec reports redis.Nil for a GET miss, so errors are read per command.
	_, _ = pipe.Exec(ctx)

	replies := make([]cache.Reply, len(cmds))
	for i, res := range results {
		reply, err := decodeCmd(cmds[i], res)
		if err != nil {
			return nil, err
		}
		replies[i] = reply
	}
	return replies, nil
}

func (r *RedisExecutor) Close() error {
	return r.client.Close()
}

func commandArgs(cmd cache.Command) []any {
	args := make([]any, 0, len(cmd.Args)+1)
	args = append(args, cmd.Name)
	for _, a := range cmd.Args {
		args = append(args, a)
	}
	return args
}

func decodeCmd(cmd cache.Command, res *redis.Cmd) (cache.Reply, error) {
	val, err := res.Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cache.NilReply(), nil
		}
		return cache.Reply{}, mapRedisError(cmd.Name, err)
	}

	switch v := val.(type) {
	case nil:
		return cache.NilReply(), nil
	case string:
		return cache.BulkReply(v), nil
	case []byte:
		return cache.Reply{Kind: cache.ReplyBulk, Bulk: v}, nil
	case int64:
		return cache.IntegerReply(v), nil
	case bool:
		if v {
			return cache.IntegerReply(1), nil
		}
		return cache.IntegerReply(0), nil
	default:
		return cache.Reply{}, &cache.StoreError{
			Command: cmd.Name,
			Message: fmt.Sprintf("unsupported reply type %T", val),
		}
	}
}

func mapRedisError(command string, err error) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return &cache.StoreError{Command: command, Message: replyErr.Error()}
	}
	return &cache.TransportError{Command: command, Err: err}
}
