package model

// Target is one record whose Stats reconciliation may overwrite.
type Target struct {
	ID    ID
	Stats *Stats
}

// Reconcilable is implemented by every record shape whose counters are
// patched from the cache before being returned.
type Reconcilable interface {
	Targets() []Target
}

var (
	_ Reconcilable = (*Post)(nil)
	_ Reconcilable = Posts(nil)
	_ Reconcilable = (*Thread)(nil)
)
