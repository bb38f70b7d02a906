// Package fieldpath validates raw XPath field paths and normalizes them to the
// dot notation used in stored filter documents.
package fieldpath

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xpath"
)

// TextSuffix is appended to a dot path to address the text node of an element
// that also carries attributes.
const TextSuffix = ".#text"

var predicateRegex = regexp.MustCompile(`\[[^\]]*\]`)

// Validate reports whether raw is a syntactically valid XPath expression.
func Validate(raw string) error {
	p := strings.TrimSpace(raw)
	if p == "" {
		return fmt.Errorf("field path is required")
	}
	if _, err := xpath.Compile(p); err != nil {
		return fmt.Errorf("invalid xpath %q: %w", p, err)
	}
	return nil
}

// ToDotNotation rewrites an XPath into dot-separated segments.
// Positional predicates and namespace prefixes are dropped, attribute steps keep their "@".
//
//	/ns:doc/ns:author[1]/@id -> doc.author.@id
func ToDotNotation(raw string) string {
	p := strings.TrimSpace(raw)
	p = predicateRegex.ReplaceAllString(p, "")

	steps := strings.Split(p, "/")
	segments := make([]string, 0, len(steps))
	for _, step := range steps {
		if step == "" {
			continue
		}
		attr := strings.HasPrefix(step, "@")
		step = strings.TrimPrefix(step, "@")
		if _, local, ok := strings.Cut(step, ":"); ok {
			step = local
		}
		if attr {
			step = "@" + step
		}
		segments = append(segments, step)
	}
	return strings.Join(segments, ".")
}

// IsCompanion reports whether a dot path addresses a text node companion.
func IsCompanion(path string) bool {
	return strings.HasSuffix(path, TextSuffix)
}

// Companion returns the text node companion of a dot path.
func Companion(path string) string {
	return path + TextSuffix
}
