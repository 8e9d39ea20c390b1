// Package repositorycache decorates the relational post repository with the
// cache ledger.
//
// # Reads
//
// GetPost, GetThread, ListBySender, Browse and ListComments return records
// whose counters were reconciled against the cache. The acting user is read
// from the context:
//
//	ctx = repositorycache.WithViewer(ctx, userID)
//	thread, err := posts.GetThread(ctx, id, model.MaxThreadComments)
//	// thread.Post.Liked reports whether userID liked the post
//
// A reconciliation failure never fails the read. It is logged at warn and
// the relational counters are returned.
//
// # Writes
//
// Writes reach the base repository first. Only after they succeed does the
// decorator touch the cache:
//
//   - InsertPost caches the sender for notice fan-out
//   - InsertComment also counts the comment on its origin
//   - DeletePost drops every counter, membership and sender key of the post
//
// Errors from the base repository are returned unchanged.
package repositorycache
