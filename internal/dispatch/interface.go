package dispatch

import (
	"context"

	"github.com/mattjoyce/intentd/internal/intent"
	"github.com/mattjoyce/intentd/internal/shell"
)

//go:generate mockgen -destination=mocks/mock_capabilities.go -package=mocks github.com/mattjoyce/intentd/internal/dispatch SessionChecker,SurfaceCloser,Composer,PlatformCapabilities

// SessionChecker reports whether a user is currently authenticated.
type SessionChecker interface {
	HasSession(ctx context.Context) bool
}

// SurfaceCloser closes every active modal, overlay and lightbox.
type SurfaceCloser interface {
	CloseAllActive(ctx context.Context)
}

// TeardownAwaiter is an optional SurfaceCloser extension. The returned channel
// is closed once teardown has visibly finished.
type TeardownAwaiter interface {
	CloseAllActiveAndWait(ctx context.Context) <-chan struct{}
}

// Composer opens the composition surface. Fire and forget.
type Composer interface {
	OpenComposer(ctx context.Context, req shell.ComposerRequest)
}

// PlatformCapabilities describes what the client platform can render.
type PlatformCapabilities interface {
	SupportsNativeImageAttachment() bool
}

// Handler performs the final action for one intent kind.
type Handler interface {
	Handle(ctx context.Context, payload intent.Payload) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, payload intent.Payload) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, payload intent.Payload) error {
	return f(ctx, payload)
}
