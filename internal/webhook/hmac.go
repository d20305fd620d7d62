package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// errVerification is the only error verification returns, so callers cannot
// leak why a signature was rejected.
var errVerification = errors.New("webhook verification failed")

// signaturePrefix marks the optional "sha256=<hex>" signature form.
const signaturePrefix = "sha256="

// verifyHMACSignature checks an HMAC-SHA256 signature over body.
// Accepted forms are "sha256=<hex>" and bare "<hex>".
func verifyHMACSignature(body []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return errVerification
	}

	actual, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return errVerification
	}

	if subtle.ConstantTimeCompare(mac(body, secret), actual) != 1 {
		return errVerification
	}
	return nil
}

// Sign returns the "sha256=<hex>" signature a bridge sends for body.
func Sign(body []byte, secret string) string {
	return signaturePrefix + hex.EncodeToString(mac(body, secret))
}

func mac(body []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return h.Sum(nil)
}
