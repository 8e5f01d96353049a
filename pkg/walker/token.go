package walker

import "strings"

// TokenMode says which listing endpoint a continuation token targets
type TokenMode int

const (
	// ModeFragment passes the token verbatim to the token-based endpoint
	ModeFragment TokenMode = iota
	// ModeOffset extracts an integer offset for the offset-based endpoint
	ModeOffset
)

// ClassifyToken decides how to interpret a continuation token. The
// service inconsistently returns either an opaque token or an
// "<offset>#<pageSize>" pair depending on pagination depth; a token
// whose part before the delimiter is an integer is treated as offset
// style, anything else as opaque. An opaque token could in principle
// contain the delimiter by coincidence, in which case it would be
// misclassified; no such token has been observed.
func ClassifyToken(token string) (TokenMode, int) {
	if token == "" {
		return ModeFragment, 0
	}

	if idx := strings.IndexByte(token, '#'); idx >= 0 {
		if offset, ok := parseOffset(token[:idx]); ok {
			return ModeOffset, offset
		}
	}

	return ModeFragment, 0
}

func parseOffset(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
