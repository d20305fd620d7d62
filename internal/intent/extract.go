package intent

import (
	"fmt"
	"net/url"
	"strings"
)

// Extract reports whether a normalized link encodes an intent known to reg.
//
// The first non-empty path segment must be Marker and the second the kind
// token. Segments are taken from the escaped path, so an encoded slash never
// splits a segment. A marker mismatch or an unregistered kind yields
// ok == false with a nil error. A non-nil error means the URL itself could
// not be parsed.
func Extract(normalized string, reg *Registry) (Intent, bool, error) {
	u, err := url.Parse(normalized)
	if err != nil {
		return Intent{}, false, fmt.Errorf("parse link: %w", err)
	}

	segments := strings.Split(strings.TrimLeft(u.EscapedPath(), "/"), "/")
	if len(segments) < 2 || segments[0] != Marker {
		return Intent{}, false, nil
	}

	kind := Kind(segments[1])
	if reg == nil {
		return Intent{}, false, nil
	}
	if _, known := reg.Lookup(kind); !known {
		return Intent{}, false, nil
	}

	return Intent{Kind: kind, Params: parseQuery(u.RawQuery)}, true, nil
}

// parseQuery splits a raw query on '&' only and keeps the first value per
// key. url.ParseQuery discards whole pairs containing ';' or a bad escape;
// here a part that fails to unescape is kept as written.
func parseQuery(raw string) Params {
	params := make(Params)
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescapeQueryPart(key)
		if key == "" {
			continue
		}
		if _, seen := params[key]; seen {
			continue
		}
		params[key] = unescapeQueryPart(value)
	}
	return params
}

func unescapeQueryPart(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return strings.ReplaceAll(s, "+", " ")
}
