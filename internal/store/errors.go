package store

import (
	"errors"

	"github.com/goliatone/go-social-cache/cache"
)

var (
	// ErrNotFound is cache.ErrNotFound so that callers match one sentinel
	// whichever side missed.
	ErrNotFound = cache.ErrNotFound

	// ErrDuplicateAction reports an existing friendship.
	ErrDuplicateAction = cache.ErrDuplicateAction

	// ErrForbidden is returned when a user deletes a post they did not send.
	ErrForbidden = errors.New("forbidden")
)
