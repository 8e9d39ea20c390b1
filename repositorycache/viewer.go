package repositorycache

import (
	"context"

	"github.com/goliatone/go-social-cache/model"
)

type viewerContextKey struct{}

// WithViewer attaches the acting user to ctx so that reads report whether
// they liked or hated each post.
func WithViewer(ctx context.Context, user model.UserID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, viewerContextKey{}, user)
}

// ViewerFromContext returns the user attached by WithViewer, or nil.
func ViewerFromContext(ctx context.Context) *model.UserID {
	if ctx == nil {
		return nil
	}
	if user, ok := ctx.Value(viewerContextKey{}).(model.UserID); ok {
		return &user
	}
	return nil
}
