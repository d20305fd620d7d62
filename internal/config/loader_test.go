package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file gets defaults",
			yaml: "{}\n",
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.Name != "intentd" {
					t.Errorf("service.name = %q, want intentd", cfg.Service.Name)
				}
				if cfg.Intent.Scheme != "bluesky" {
					t.Errorf("intent.scheme = %q, want bluesky", cfg.Intent.Scheme)
				}
				if cfg.Dispatch.Delay != 500*time.Millisecond {
					t.Errorf("dispatch.delay = %v, want 500ms", cfg.Dispatch.Delay)
				}
				if cfg.Dispatch.TeardownTimeout != 2*time.Second {
					t.Errorf("dispatch.teardown_timeout = %v, want 2s", cfg.Dispatch.TeardownTimeout)
				}
				if cfg.State.Path != "./data/intentd.db" {
					t.Errorf("state.path = %q", cfg.State.Path)
				}
				if cfg.API.Enabled {
					t.Error("api should be disabled by default")
				}
				if cfg.Webhooks != nil {
					t.Error("webhooks should be nil by default")
				}
			},
		},
		{
			name: "full config",
			yaml: `
service:
  name: desk
  log_level: DEBUG
  log_format: text
intent:
  scheme: skyapp
dispatch:
  delay: 250ms
  teardown_timeout: 1s
platform:
  native_image_attachment: true
state:
  path: /tmp/intentd.db
api:
  enabled: true
  listen: 127.0.0.1:9000
  auth:
    api_key: admin
    tokens:
      - token: reader
        scopes: [events:ro]
tokens:
  bridge: s3cret
webhooks:
  listen: 127.0.0.1:9001
  endpoints:
    - path: /links/bridge
      secret_ref: bridge
      signature_header: X-Signature
      max_body_size: 16KB
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.LogLevel != "debug" {
					t.Errorf("log_level = %q, want lowercased debug", cfg.Service.LogLevel)
				}
				if cfg.Intent.Scheme != "skyapp" {
					t.Errorf("scheme = %q", cfg.Intent.Scheme)
				}
				if cfg.Dispatch.Delay != 250*time.Millisecond || cfg.Dispatch.TeardownTimeout != time.Second {
					t.Errorf("dispatch = %+v", cfg.Dispatch)
				}
				if !cfg.Platform.NativeImageAttachment {
					t.Error("native_image_attachment not parsed")
				}
				if cfg.API.Listen != "127.0.0.1:9000" || len(cfg.API.Auth.Tokens) != 1 {
					t.Errorf("api = %+v", cfg.API)
				}
				if cfg.Webhooks == nil || len(cfg.Webhooks.Endpoints) != 1 {
					t.Fatal("webhooks not parsed")
				}
				if cfg.Webhooks.Endpoints[0].SecretRef != "bridge" {
					t.Errorf("secret_ref = %q", cfg.Webhooks.Endpoints[0].SecretRef)
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
state:
  path: ${INTENTD_TEST_DB}
api:
  enabled: true
  auth:
    api_key: ${INTENTD_TEST_KEY}
`,
			env: map[string]string{
				"INTENTD_TEST_DB":  "/tmp/env.db",
				"INTENTD_TEST_KEY": "from-env",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.State.Path != "/tmp/env.db" {
					t.Errorf("state.path = %q", cfg.State.Path)
				}
				if cfg.API.Auth.APIKey != "from-env" {
					t.Errorf("api_key = %q", cfg.API.Auth.APIKey)
				}
				if cfg.API.Listen != "127.0.0.1:8480" {
					t.Errorf("api.listen default = %q", cfg.API.Listen)
				}
			},
		},
		{
			name: "unset env var is reported",
			yaml: `
api:
  enabled: true
  auth:
    api_key: ${INTENTD_TEST_MISSING}
`,
			wantErr: "INTENTD_TEST_MISSING",
		},
		{
			name:    "bad log level",
			yaml:    "service:\n  log_level: loud\n",
			wantErr: "service.log_level",
		},
		{
			name:    "scheme with separator",
			yaml:    "intent:\n  scheme: bluesky://\n",
			wantErr: "intent.scheme",
		},
		{
			name:    "negative delay",
			yaml:    "dispatch:\n  delay: -1s\n",
			wantErr: "dispatch.delay",
		},
		{
			name:    "api enabled without credentials",
			yaml:    "api:\n  enabled: true\n",
			wantErr: "api_key or tokens",
		},
		{
			name: "webhook secret_ref missing from tokens",
			yaml: `
webhooks:
  listen: 127.0.0.1:9001
  endpoints:
    - path: /links
      secret_ref: nope
`,
			wantErr: "secret_ref",
		},
		{
			name: "webhook duplicate path",
			yaml: `
webhooks:
  listen: 127.0.0.1:9001
  endpoints:
    - path: /links
      secret: a
    - path: /links
      secret: b
`,
			wantErr: "duplicated",
		},
		{
			name:    "malformed yaml",
			yaml:    "service: [\n",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, t.TempDir(), tt.yaml)

			cfg, err := Load(path)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Load() error = nil, want containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if cfg.Path != path {
				t.Errorf("cfg.Path = %q, want %q", cfg.Path, path)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "intent:\n  scheme: skyapp\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir) failed: %v", err)
	}
	if cfg.Intent.Scheme != "skyapp" {
		t.Errorf("scheme = %q", cfg.Intent.Scheme)
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load(empty dir) should fail")
	}
}

func TestInterpolateEnv(t *testing.T) {
	t.Setenv("INTENTD_TEST_A", "alpha")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${INTENTD_TEST_A}", "alpha"},
		{"x-${INTENTD_TEST_A}-y", "x-alpha-y"},
		{"${INTENTD_TEST_UNSET_Z}", "${INTENTD_TEST_UNSET_Z}"},
		{"$INTENTD_TEST_A", "$INTENTD_TEST_A"},
	}
	for _, tt := range tests {
		if got := interpolateEnv(tt.in); got != tt.want {
			t.Errorf("interpolateEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDiscoverConfigDirPrefersEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INTENTD_CONFIG_DIR", dir)

	got, err := DiscoverConfigDir()
	if err != nil {
		t.Fatalf("DiscoverConfigDir() failed: %v", err)
	}
	if got != dir {
		t.Errorf("DiscoverConfigDir() = %q, want %q", got, dir)
	}
}
