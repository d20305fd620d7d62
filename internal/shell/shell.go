// Package shell delivers outbound UI commands to connected clients.
//
// Commands are published on the event hub. A UI client subscribes to
// /v1/events and acts on shell.close_all and shell.open_composer.
package shell

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/intent"
)

// ComposerRequest is the payload of an open-composer command.
type ComposerRequest struct {
	Text      *string           `json:"text,omitempty"`
	ImageURIs []intent.ImageRef `json:"imageUris,omitempty"`
}

// CloseAllCommand is the payload of a close-all command.
type CloseAllCommand struct {
	Reason string `json:"reason"`
}

// Hub publishes shell commands on an event hub. It implements both the
// surface-closing and composer-opening capabilities.
type Hub struct {
	events events.Publisher
	logger *slog.Logger
}

// NewHub creates a shell bound to pub.
func NewHub(pub events.Publisher, logger *slog.Logger) *Hub {
	return &Hub{events: pub, logger: logger.With("component", "shell")}
}

// CloseAllActive asks clients to dismiss every modal, overlay and lightbox.
func (h *Hub) CloseAllActive(ctx context.Context) {
	h.logger.Debug("closing all active surfaces")
	h.events.Publish(events.TypeShellCloseAll, CloseAllCommand{Reason: "intent"})
}

// OpenComposer asks clients to open the composer with req.
func (h *Hub) OpenComposer(ctx context.Context, req ComposerRequest) {
	h.logger.Info("opening composer",
		"has_text", req.Text != nil,
		"images", len(req.ImageURIs),
	)
	h.events.Publish(events.TypeShellOpenCompose, req)
}

// Platform is a static description of the client platform.
type Platform struct {
	NativeImageAttachment bool
}

// SupportsNativeImageAttachment reports whether images may be attached.
func (p Platform) SupportsNativeImageAttachment() bool {
	return p.NativeImageAttachment
}
