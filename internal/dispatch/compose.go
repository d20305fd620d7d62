package dispatch

import (
	"context"
	"fmt"

	"github.com/mattjoyce/intentd/internal/intent"
	"github.com/mattjoyce/intentd/internal/shell"
)

// ComposeHandler opens the composer for a validated compose intent.
type ComposeHandler struct {
	composer Composer
	platform PlatformCapabilities
}

var _ Handler = (*ComposeHandler)(nil)

// NewComposeHandler creates a ComposeHandler. Images are forwarded only when
// platform reports native image attachment support.
func NewComposeHandler(composer Composer, platform PlatformCapabilities) *ComposeHandler {
	return &ComposeHandler{composer: composer, platform: platform}
}

// Handle implements Handler.
func (h *ComposeHandler) Handle(ctx context.Context, payload intent.Payload) error {
	p, ok := payload.(intent.ComposePayload)
	if !ok {
		return fmt.Errorf("compose handler: unexpected payload %T", payload)
	}

	req := shell.ComposerRequest{Text: p.Text}
	if h.platform != nil && h.platform.SupportsNativeImageAttachment() {
		req.ImageURIs = p.Images
	}
	h.composer.OpenComposer(ctx, req)
	return nil
}

// RouteDefaults binds the handlers for every built-in intent kind.
func RouteDefaults(d *Dispatcher, composer Composer, platform PlatformCapabilities) {
	d.Route(intent.KindCompose, NewComposeHandler(composer, platform))
}
