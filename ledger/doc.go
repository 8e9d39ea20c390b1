// Package ledger keeps post counters, reaction memberships and unread
// notice counters in the key-value cache, and patches them onto records read
// from the relational store.
//
// The cache is a derived view. Reads degrade to relational values when it
// misses or fails. Reaction writes fail when it fails.
package ledger
