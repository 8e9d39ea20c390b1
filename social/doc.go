// Package social holds the user-facing operations on posts and
// friendships. Counter and membership state lives in the cache ledger; the
// relational store keeps the rows.
package social
