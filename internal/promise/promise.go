// Package promise detects completion markers in agent output. The agent
// signals completion by emitting its configured promise between fixed
// <promise> delimiters; the detector extracts the span and compares it
// against the configured value.
package promise

import "strings"

const (
	openTag  = "<promise>"
	closeTag = "</promise>"
)

// Extract returns the normalized text of the first delimited promise span
// in output. The delimiters are located case-insensitively; the interior is
// trimmed and internal whitespace runs are collapsed to single spaces.
// Absent or unterminated delimiters report false, never an error.
func Extract(output string) (string, bool) {
	start := indexFold(output, openTag)
	if start < 0 {
		return "", false
	}
	rest := start + len(openTag)

	end := indexFold(output[rest:], closeTag)
	if end < 0 {
		return "", false
	}

	inner := output[rest : rest+end]
	return strings.Join(strings.Fields(inner), " "), true
}

// indexFold returns the byte offset of the first ASCII case-insensitive
// occurrence of tag in s, or -1. The scan runs over s itself: lowercasing a
// copy would shift offsets, since ToLower changes the byte length of some
// runes.
func indexFold(s, tag string) int {
	for i := 0; i+len(tag) <= len(s); i++ {
		if foldEqualASCII(s[i:i+len(tag)], tag) {
			return i
		}
	}
	return -1
}

func foldEqualASCII(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Match reports whether output contains a delimited span equal to the
// configured promise. Whitespace is normalized before comparison but case
// is not: the match is exact string equality, so partial or case-variant
// similarity never terminates a loop.
func Match(output, configured string) bool {
	got, ok := Extract(output)
	if !ok {
		return false
	}
	return got == configured
}
