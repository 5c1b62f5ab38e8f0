package sources

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidVideoID is returned when no 11-char video id can be found in the input.
var ErrInvalidVideoID = errors.New("invalid YouTube video id")

var (
	videoIDRE = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	bareIDRE  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractVideoID accepts a bare video id or any common YouTube URL form
// (watch, youtu.be, shorts, embed, live) and returns the 11-char id.
func ExtractVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if bareIDRE.MatchString(s) {
		return s, nil
	}
	if m := videoIDRE.FindStringSubmatch(s); len(m) >= 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, s)
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by tracking brace depth.
// Braces inside string literals are ignored.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
