package command

import (
	"strings"
	"unicode"
)

// token is one whitespace-separated word of the loop command. raw preserves
// the original text including quote characters; value has quotes stripped
// for flag matching and flag values.
type token struct {
	raw   string
	value string
}

// tokenize splits the free-text command on whitespace, keeping single- or
// double-quoted phrases together as one token. An unterminated quote runs
// to the end of the input rather than erroring: the command surface is
// conversational, not a shell.
func tokenize(input string) []token {
	var tokens []token
	var raw, value strings.Builder
	var quote rune

	flush := func() {
		if raw.Len() > 0 {
			tokens = append(tokens, token{raw: raw.String(), value: value.String()})
			raw.Reset()
			value.Reset()
		}
	}

	for _, r := range input {
		switch {
		case quote != 0:
			raw.WriteRune(r)
			if r == quote {
				quote = 0
			} else {
				value.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			raw.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			raw.WriteRune(r)
			value.WriteRune(r)
		}
	}
	flush()

	return tokens
}
