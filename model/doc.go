// Package model holds the records shared by the relational store, the cache
// ledger and the application services.
//
// Post counters (likes, hates, comments) are stored on the relational row and
// overwritten with live cache values by reconciliation before a record is
// handed to callers. Records that can be reconciled implement Reconcilable.
package model
