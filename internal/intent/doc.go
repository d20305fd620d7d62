// Package intent turns an incoming deep link into a typed, validated intent payload.
//
// A link passes through three pure stages:
//
//  1. Normalize rewrites "scheme://x/..." to "scheme:///x/..." so the intent
//     marker always lands in the path rather than the host.
//  2. Extract parses the URL and reports whether the path encodes an intent
//     ("/intent/<kind>") for a kind known to the Registry.
//  3. The kind's Validator converts raw query parameters into a Payload,
//     dropping individual entries that fail validation.
//
// None of the benign outcomes (not an intent, unknown kind, malformed entry)
// are errors. The only error Extract returns is a URL parser failure.
//
// # Image references
//
// The compose intent accepts local image references only:
//
//	imageUris=<path>|<width>|<height>[,<path>|<width>|<height>...]
//
// Any entry containing "http://" or "https://" is discarded so a crafted link
// cannot make the client fetch a remote, attacker-controlled image.
//
// Paths may contain only word characters, '.', '-' and '/'. A ':' never
// matches, so scheme-qualified references such as "file:///var/x.jpg|1|1"
// are rejected along with remote ones; pass the bare local path instead.
package intent
