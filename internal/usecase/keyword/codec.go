// Package keyword translates between keyword search box tokens and filter documents.
package keyword

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/fieldpath"
	domkw "github.com/kailas-cloud/kwsearch/internal/domain/keyword"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	"github.com/kailas-cloud/kwsearch/internal/logger"
	"github.com/kailas-cloud/kwsearch/internal/metrics"
)

// Reasons a fragment is left out of the rendered keywords.
const (
	dropMalformed   = "malformed"
	dropNonString   = "non_string"
	dropMixedValues = "mixed_values"
	dropEmpty       = "empty"
	dropUnresolved  = "unresolved"
	dropLookupError = "lookup_error"
)

// Option configures a Codec.
type Option func(*Codec)

// WithTextCompanion toggles the ".#text" companion clauses in built filters.
// Rendering accepts filters with and without them either way.
func WithTextCompanion(enabled bool) Option {
	return func(c *Codec) { c.textCompanion = enabled }
}

// Codec builds filter documents from keyword tokens and renders them back.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	ops           OperatorResolver
	textCompanion bool
}

// New creates a codec. Companion clauses are on by default.
func New(ops OperatorResolver, opts ...Option) *Codec {
	c := &Codec{ops: ops, textCompanion: true}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Build turns tokens into a filter document.
// Operator tokens whose name does not resolve become free text. Only store
// failures other than a miss are returned.
func (c *Codec) Build(ctx context.Context, tokens []string) (query.Document, error) {
	var (
		phrases []string
		clauses []query.Document
	)
	for _, raw := range tokens {
		tok := domkw.Parse(raw)
		if tok.HasOperator() && domop.ValidateName(tok.Operator) == nil {
			op, err := c.ops.GetByName(ctx, tok.Operator)
			switch {
			case err == nil:
				clauses = append(clauses, c.operatorClause(op, tok.Value))
				metrics.CodecTokensTotal.WithLabelValues("operator").Inc()
				continue
			case errors.Is(err, domain.ErrNotFound):
				metrics.CodecTokensTotal.WithLabelValues("unresolved").Inc()
			default:
				return nil, fmt.Errorf("resolve operator %q: %w", tok.Operator, err)
			}
		}
		if p := tok.Phrase(); p != "" {
			phrases = append(phrases, p)
			metrics.CodecTokensTotal.WithLabelValues("text").Inc()
		}
	}

	all := make([]query.Document, 0, len(clauses)+1)
	if len(phrases) > 0 {
		all = append(all, query.Text(quotePhrases(phrases)))
	}
	all = append(all, clauses...)

	switch len(all) {
	case 0:
		return query.Empty(), nil
	case 1:
		return all[0], nil
	default:
		return query.And(all...), nil
	}
}

func (c *Codec) operatorClause(op domop.Operator, value string) query.Document {
	paths := op.NormalizedPaths()
	if !c.textCompanion && len(paths) == 1 {
		return query.Eq(paths[0], value)
	}

	eqs := make([]query.Document, 0, 2*len(paths))
	for _, p := range paths {
		eqs = append(eqs, query.Eq(p, value))
	}
	if c.textCompanion {
		for _, p := range paths {
			eqs = append(eqs, query.Eq(fieldpath.Companion(p), value))
		}
	}
	return query.Or(eqs...)
}

// Render rebuilds the comma separated keyword string for a stored filter.
func (c *Codec) Render(ctx context.Context, doc query.Document) string {
	return domkw.Join(c.Tokens(ctx, doc))
}

// Tokens rebuilds the keyword tokens for a stored filter, in fragment order.
// Fragments that cannot be shown as keywords are dropped and logged.
func (c *Codec) Tokens(ctx context.Context, doc query.Document) []string {
	var tokens []string
	for _, frag := range fragments(doc) {
		toks, reason := c.renderFragment(ctx, frag)
		if reason != "" {
			c.drop(ctx, reason, frag)
			continue
		}
		tokens = append(tokens, toks...)
	}
	return tokens
}

func (c *Codec) renderFragment(ctx context.Context, frag any) ([]string, string) {
	d, ok := query.AsDocument(frag)
	if !ok || len(d) != 1 {
		return nil, dropMalformed
	}
	for key, val := range d {
		switch key {
		case query.KeyText:
			return renderText(val)
		case query.KeyOr:
			items, ok := query.AsList(val)
			if !ok {
				return nil, dropMalformed
			}
			return c.renderOperator(ctx, items)
		default:
			if strings.HasPrefix(key, "$") {
				return nil, dropMalformed
			}
			return c.renderOperator(ctx, []any{d})
		}
	}
	return nil, dropMalformed
}

func renderText(val any) ([]string, string) {
	inner, ok := query.AsDocument(val)
	if !ok {
		return nil, dropMalformed
	}
	search, ok := inner[query.KeySearch].(string)
	if !ok {
		return nil, dropMalformed
	}
	toks := splitSearch(search)
	if len(toks) == 0 {
		return nil, dropEmpty
	}
	return toks, ""
}

// renderOperator maps a set of path equality clauses back to name:value.
// Companion paths are ignored; the remaining set must match an operator exactly.
func (c *Codec) renderOperator(ctx context.Context, items []any) ([]string, string) {
	var (
		paths []string
		value string
		seen  = make(map[string]bool)
	)
	for i, item := range items {
		d, ok := query.AsDocument(item)
		if !ok || len(d) != 1 {
			return nil, dropMalformed
		}
		for key, val := range d {
			if strings.HasPrefix(key, "$") {
				return nil, dropMalformed
			}
			s, ok := val.(string)
			if !ok {
				return nil, dropNonString
			}
			if i == 0 {
				value = s
			} else if s != value {
				return nil, dropMixedValues
			}
			if fieldpath.IsCompanion(key) || seen[key] {
				continue
			}
			seen[key] = true
			paths = append(paths, key)
		}
	}
	if len(paths) == 0 {
		return nil, dropEmpty
	}

	op, err := c.ops.GetByNormalizedPaths(ctx, paths)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, dropUnresolved
		}
		logger.FromContext(ctx).Warn("operator lookup failed while rendering keywords", zap.Error(err))
		return nil, dropLookupError
	}
	return []string{domkw.Token{Operator: op.Name(), Value: value}.String()}, ""
}

func (c *Codec) drop(ctx context.Context, reason string, frag any) {
	metrics.CodecDroppedFragmentsTotal.WithLabelValues(reason).Inc()
	logger.FromContext(ctx).Debug("keyword fragment dropped",
		zap.String("reason", reason), zap.Any("fragment", frag))
}

// fragments flattens a filter into its top-level sub-filters.
// $and lists expand in place; other multi-key documents split per key with $text first.
func fragments(doc query.Document) []any {
	if len(doc) == 0 {
		return nil
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == query.KeyText) != (keys[j] == query.KeyText) {
			return keys[i] == query.KeyText
		}
		return keys[i] < keys[j]
	})

	var out []any
	for _, k := range keys {
		if k != query.KeyAnd {
			out = append(out, query.Document{k: doc[k]})
			continue
		}
		items, ok := query.AsList(doc[k])
		if !ok {
			out = append(out, query.Document{k: doc[k]})
			continue
		}
		for _, item := range items {
			if d, ok := query.AsDocument(item); ok {
				if _, nested := d[query.KeyAnd]; nested || len(d) != 1 {
					out = append(out, fragments(d)...)
					continue
				}
			}
			out = append(out, item)
		}
	}
	return out
}
