// Package cache is the typed client layer over the key-value store that
// holds post counters, membership sets and unread notice counters.
//
// # Overview
//
// The package exports:
//
//   - Keys: builds {relation}:{id} keys, optionally under a deployment prefix
//   - Command / Reply: the command set (GET, SET, DEL, INCR, DECR, SADD, SREM,
//     SISMEMBER, LPUSH, EXPIRE) and decoded replies
//   - Executor: the backend contract (Redis and in-process backends live in
//     internal/cacheinfra)
//   - Adapter: timeouts, error classification, batches and fire-and-forget
//     dispatch on top of an Executor
//   - CacheService: an in-process memo used in front of relational lookups
//
// # Batches
//
// ExecuteAll keeps the positional contract: replies come back in the order
// commands were submitted. ExecuteBatch pairs every command with a tag so
// callers read replies by name:
//
//	b := cache.NewBatch().
//		Add("likes", cache.Get(keys.PostLikeCount(id))).
//		Add("liked", cache.SIsMember(keys.PostLikes(id), cache.Member(userID)))
//	res, err := adapter.ExecuteBatch(ctx, b)
//	if n, ok := res.Int64("likes"); ok {
//		post.LikeCount = n
//	}
//
// Batches are not transactions. Commands of one batch may interleave with
// commands of other clients.
//
// # Error Handling
//
// Executor failures are classified as *TransportError (the channel to the
// store is unusable) or *StoreError (the store replied with an error).
// GetInteger adds ErrNotFound and *DecodeError. ErrDuplicateAction and
// ErrNotMember are the soft outcomes of membership transitions; IsSoft
// distinguishes them from faults.
//
// Dispatch and Delete never report errors to the caller. They log through the
// adapter's zap logger, and Flush waits for them to finish.
package cache
