package config

import "time"

// Config represents the complete intentd configuration.
type Config struct {
	Service  ServiceConfig     `yaml:"service"`
	Intent   IntentConfig      `yaml:"intent"`
	Dispatch DispatchConfig    `yaml:"dispatch"`
	Platform PlatformConfig    `yaml:"platform"`
	State    StateConfig       `yaml:"state"`
	API      APIConfig         `yaml:"api,omitempty"`
	Webhooks *WebhooksConfig   `yaml:"webhooks,omitempty"`
	Tokens   map[string]string `yaml:"tokens,omitempty"`

	// Path is the absolute path of the file the config was loaded from.
	Path string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// IntentConfig controls link recognition.
type IntentConfig struct {
	// Scheme is the native URL scheme whose "scheme://" prefix gets normalized.
	Scheme string `yaml:"scheme"`
}

// DispatchConfig controls scheduling of intent handlers.
type DispatchConfig struct {
	Delay           time.Duration `yaml:"delay"`
	TeardownTimeout time.Duration `yaml:"teardown_timeout"`
}

// PlatformConfig describes what the host shell can do.
type PlatformConfig struct {
	NativeImageAttachment bool `yaml:"native_image_attachment"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is the single bearer token with full access.
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// WebhooksConfig defines webhook listener settings.
type WebhooksConfig struct {
	Listen    string            `yaml:"listen"`
	Endpoints []WebhookEndpoint `yaml:"endpoints"`
}

// WebhookEndpoint defines a single link ingress endpoint.
type WebhookEndpoint struct {
	Path            string `yaml:"path"`
	Secret          string `yaml:"secret,omitempty"`
	SecretRef       string `yaml:"secret_ref,omitempty"`
	SignatureHeader string `yaml:"signature_header"`
	MaxBodySize     string `yaml:"max_body_size"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "intentd",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Intent: IntentConfig{
			Scheme: "bluesky",
		},
		Dispatch: DispatchConfig{
			Delay:           500 * time.Millisecond,
			TeardownTimeout: 2 * time.Second,
		},
		State: StateConfig{
			Path: "./data/intentd.db",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8480",
		},
	}
}
