package webhook

// LinkSubmitter accepts verified incoming links.
type LinkSubmitter interface {
	Submit(raw string) error
}

// Config holds webhook server configuration.
type Config struct {
	Listen    string
	Endpoints []EndpointConfig
}

// EndpointConfig defines a single signed ingress endpoint.
type EndpointConfig struct {
	// Path is the URL path for this endpoint (e.g., "/links/bridge")
	Path string

	// Secret is the resolved HMAC secret for signature verification
	Secret string

	// SignatureHeader is the HTTP header carrying the HMAC signature
	// (default: X-Intentd-Signature)
	SignatureHeader string

	// MaxBodySize is the maximum allowed request body size in bytes (default: 64KB)
	MaxBodySize int64
}

// LinkPayload is the JSON body a bridge posts.
type LinkPayload struct {
	URL string `json:"url"`
}

// AcceptedResponse is the JSON response for an accepted link.
type AcceptedResponse struct {
	Status   string `json:"status"`
	Endpoint string `json:"endpoint"`
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Default values
const (
	DefaultMaxBodySize     = 64 * 1024
	DefaultSignatureHeader = "X-Intentd-Signature"
)
