package keyword

import (
	"strings"
	"unicode"
)

// quotePhrases renders free-text phrases for the text index: every phrase
// is wrapped in double quotes and phrases are joined by a space.
func quotePhrases(phrases []string) string {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, " ")
}

// splitSearch recovers phrase tokens from a $search string. A quoted segment
// is one token; unquoted text splits on whitespace.
func splitSearch(search string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quoted bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			tokens = append(tokens, s)
		}
		cur.Reset()
	}
	for _, r := range search {
		switch {
		case r == '"':
			flush()
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
