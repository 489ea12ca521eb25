package auth

import (
	"context"

	"github.com/vimeoalbum/backend/internal/models"
)

// Viewer identifies who is looking at a page. The zero value is an anonymous viewer.
type Viewer struct {
	UserID string
	Role   string
}

// Anonymous reports whether no account is attached to the request.
func (v Viewer) Anonymous() bool {
	return v.UserID == ""
}

// Privileged reports whether the viewer may purge renders and edit pages.
func (v Viewer) Privileged() bool {
	return v.Role == models.RoleManager
}

type viewerKey struct{}

// WithViewer stores the viewer on the context.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFromContext returns the viewer attached to ctx, or an anonymous viewer.
func ViewerFromContext(ctx context.Context) Viewer {
	if ctx == nil {
		return Viewer{}
	}
	v, _ := ctx.Value(viewerKey{}).(Viewer)
	return v
}
