package intent

import "strings"

// DefaultScheme is the custom application scheme used by native deep links.
const DefaultScheme = "bluesky"

// Normalize rewrites a two-slash custom scheme link to three slashes so the
// would-be host becomes the first path segment. Every other input is returned
// unchanged. Normalize is idempotent.
func Normalize(raw, scheme string) string {
	if scheme == "" {
		scheme = DefaultScheme
	}
	twoSlash := scheme + "://"
	if strings.HasPrefix(raw, twoSlash) && !strings.HasPrefix(raw, scheme+":///") {
		return scheme + ":///" + strings.TrimPrefix(raw, twoSlash)
	}
	return raw
}
