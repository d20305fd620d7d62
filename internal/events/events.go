package events

import (
	"encoding/json"
	"time"
)

// Event is one entry on the hub. Data holds a JSON payload and encodes inline.
type Event struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Pipeline and shell event types.
const (
	TypeLinkReceived     = "link.received"
	TypeIntentNone       = "intent.no_intent"
	TypeIntentDropped    = "intent.dropped"
	TypeIntentScheduled  = "intent.scheduled"
	TypeIntentDispatched = "intent.dispatched"
	TypeShellCloseAll    = "shell.close_all"
	TypeShellOpenCompose = "shell.open_composer"
	TypeSessionChanged   = "session.changed"
)

// Publisher is the write side of a Hub.
type Publisher interface {
	Publish(eventType string, data any)
}
