// Package keyword classifies the tokens typed into the keyword search box.
package keyword

import (
	"strings"
)

// Separator joins rendered tokens and splits user input.
const Separator = ","

// Token is one keyword entry: either a free-text phrase or an operator:value reference.
type Token struct {
	Raw      string
	Operator string
	Value    string
}

// Parse splits raw on the first ':' only. One pair of double quotes around the
// value is removed, so name:"a, b" carries the value a, b. A token with no
// separator, an empty prefix or an empty value carries no operator.
func Parse(raw string) Token {
	t := Token{Raw: raw}
	name, value, ok := strings.Cut(raw, ":")
	if !ok {
		return t
	}
	name = strings.TrimSpace(name)
	value = unquote(strings.TrimSpace(value))
	if name == "" || value == "" {
		return t
	}
	t.Operator = name
	t.Value = value
	return t
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// HasOperator reports whether the token names an operator.
func (t Token) HasOperator() bool { return t.Operator != "" }

// Phrase returns the free-text form of the token: surrounding whitespace trimmed
// and every double quote removed.
func (t Token) Phrase() string {
	return strings.TrimSpace(strings.ReplaceAll(t.Raw, `"`, ""))
}

// String renders an operator token as name:value, otherwise the raw text.
func (t Token) String() string {
	if t.HasOperator() {
		return t.Operator + ":" + t.Value
	}
	return t.Raw
}

// Split breaks the comma separated search box input into tokens.
// Commas inside double quotes do not split; blank entries are skipped.
func Split(input string) []string {
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
	for _, r := range input {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ',' && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// Join renders tokens back into the search box form. A token holding a comma
// is quoted so Split returns it whole: operator tokens as name:"value", free
// text as "text". Tokens that already contain a double quote are written as is.
func Join(tokens []string) string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = quoteSeparator(tok)
	}
	return strings.Join(out, Separator)
}

func quoteSeparator(tok string) string {
	if !strings.Contains(tok, Separator) || strings.Contains(tok, `"`) {
		return tok
	}
	if t := Parse(tok); t.HasOperator() {
		return t.Operator + `:"` + t.Value + `"`
	}
	return `"` + tok + `"`
}
