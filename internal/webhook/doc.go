// Package webhook receives deep links from platform bridges over HTTP.
//
// A bridge (the OS-level URL handler, a browser extension, a share sheet)
// posts the link it was opened with as {"url": "..."} and signs the raw body
// with HMAC-SHA256 using a pre-shared secret. A verified link becomes the
// current incoming link and is processed by the intent pipeline.
//
// # Security Model
//
// - HMAC-SHA256 signatures verified using crypto/subtle (constant-time comparison)
// - Body size limits enforced before verification
// - No signature details leaked in error responses (always generic 403)
// - Request logging excludes link contents
//
// # Configuration
//
//	webhooks:
//	  listen: "127.0.0.1:8481"
//	  endpoints:
//	    - path: /links/bridge
//	      secret_ref: bridge_secret  # references the tokens section
//	      signature_header: X-Intentd-Signature
//	      max_body_size: 16KB
//	tokens:
//	  bridge_secret: ${INTENTD_BRIDGE_SECRET}
//
// # Request Flow
//
//  1. HTTP POST arrives at a configured path
//  2. Body size checked (reject with 413 if too large)
//  3. Signature header extracted and verified (reject with 403 on mismatch)
//  4. Body decoded as {"url": "..."} (reject with 400 if malformed or empty)
//  5. Link submitted to the feed
//  6. 202 Accepted returned
package webhook
