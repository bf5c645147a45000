package syncx

import (
	"encoding/base64"
	"strings"
	"time"
)

// EncodeRanges packs a range list into an opaque, URL-safe token
// Format: base64("<range>,<range>,...")
// Returns empty string for an empty list
func EncodeRanges(ranges []string) string {
	if len(ranges) == 0 {
		return ""
	}
	raw := strings.Join(ranges, ",")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeRanges unpacks a token produced by EncodeRanges
// Returns nil and false if the token is invalid; an empty token is a valid empty list
func DecodeRanges(s string) ([]string, bool) {
	if s == "" {
		return []string{}, true
	}

	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}

	parts := strings.Split(string(b), ",")
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}

	return parts, true
}

// RFC3339 converts Unix milliseconds to RFC3339 timestamp string
func RFC3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
