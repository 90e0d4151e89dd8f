// AngelaMos | 2026
// reserved.go

package routing

import (
	"strings"
)

// ReservedSegments are first path segments owned by the application. The
// same set rejects vanity paths at write time and shields application
// routes from custom-domain and vanity interception at read time.
var ReservedSegments = map[string]struct{}{
	"auth":      {},
	"dashboard": {},
	"u":         {},
	"l":         {},
	"static":    {},
	"healthz":   {},
	"livez":     {},
	"readyz":    {},
	"metrics":   {},
}

func IsReserved(segment string) bool {
	_, ok := ReservedSegments[strings.ToLower(segment)]
	return ok
}

// FirstSegment returns the first path segment and whether it is the only
// one. "/al" and "/al/" are single-segment, "/al/x" is not.
func FirstSegment(path string) (string, bool) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", true
	}

	first, rest, found := strings.Cut(trimmed, "/")
	return first, !found || rest == ""
}

// NormalizeHost lowercases the Host header and drops any port.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))

	if strings.HasPrefix(host, "[") {
		if end := strings.Index(host, "]"); end != -1 {
			return host[:end+1]
		}
		return host
	}

	if i := strings.LastIndexByte(host, ':'); i != -1 {
		host = host[:i]
	}

	return strings.TrimSuffix(host, ".")
}
