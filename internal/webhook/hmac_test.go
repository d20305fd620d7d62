package webhook

import (
	"strings"
	"testing"
)

func TestVerifyHMACSignature(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`{"url":"bluesky://intent/compose?text=hi"}`)

	signed := Sign(body, secret)
	bare := strings.TrimPrefix(signed, "sha256=")

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		wantErr   bool
	}{
		{name: "valid signature - prefixed", body: body, signature: signed, secret: secret},
		{name: "valid signature - plain hex", body: body, signature: bare, secret: secret},
		{
			name:      "invalid signature - wrong signature",
			body:      body,
			signature: "sha256=" + strings.Repeat("0", 64),
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - tampered body",
			body:      []byte(`{"url":"bluesky://intent/compose?text=evil"}`),
			signature: signed,
			secret:    secret,
			wantErr:   true,
		},
		{name: "invalid signature - wrong secret", body: body, signature: signed, secret: "wrong", wantErr: true},
		{name: "invalid signature - empty signature", body: body, signature: "", secret: secret, wantErr: true},
		{name: "invalid signature - empty secret", body: body, signature: signed, secret: "", wantErr: true},
		{name: "invalid signature - malformed hex", body: body, signature: "sha256=not-hex", secret: secret, wantErr: true},
		{name: "invalid signature - truncated", body: body, signature: signed[:20], secret: secret, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyHMACSignature(tt.body, tt.signature, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("verifyHMACSignature() error = %v, wantErr %v", err, tt.wantErr)
			}
			// All errors should be generic (no information leakage)
			if err != nil && err != errVerification {
				t.Errorf("error should be generic, got: %v", err)
			}
		})
	}
}

func TestSignIsStable(t *testing.T) {
	a := Sign([]byte("x"), "k")
	b := Sign([]byte("x"), "k")
	if a != b {
		t.Fatalf("Sign() not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "sha256=") || len(a) != len("sha256=")+64 {
		t.Fatalf("Sign() = %q, want sha256=<64 hex>", a)
	}
}
