package intent

// Kind names an intent type encoded in the second path segment of a link.
type Kind string

const (
	// KindCompose opens the post composer, optionally prefilled.
	KindCompose Kind = "compose"
)

// Marker is the first path segment every intent link carries.
const Marker = "intent"

// Params is the flat query parameter mapping of a link. Only the first value
// of a repeated key is kept.
type Params map[string]string

// Intent is the result of extraction before kind-specific validation.
type Intent struct {
	Kind   Kind
	Params Params
}

// Payload is a validated, kind-specific intent body.
type Payload interface {
	Kind() Kind
}

// ImageRef is a single validated local image reference.
type ImageRef struct {
	URI    string  `json:"uri"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ComposePayload is the validated body of a compose intent.
type ComposePayload struct {
	// Text is nil when the link carried no text parameter.
	Text   *string    `json:"text,omitempty"`
	Images []ImageRef `json:"images,omitempty"`
}

// Kind implements Payload.
func (ComposePayload) Kind() Kind { return KindCompose }
