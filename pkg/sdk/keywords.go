package kwsearch

import (
	"context"
	"fmt"
	"time"

	domkw "github.com/kailas-cloud/kwsearch/internal/domain/keyword"
)

// KeywordService converts between keyword strings and filter documents.
type KeywordService struct {
	codec codecUseCase
	obs   *observer
}

// Build parses a comma separated keyword string into a filter.
func (s *KeywordService) Build(ctx context.Context, keywords string) (Filter, error) {
	return s.BuildTokens(ctx, domkw.Split(keywords))
}

// BuildTokens turns already split tokens into a filter.
func (s *KeywordService) BuildTokens(ctx context.Context, tokens []string) (_ Filter, err error) {
	start := time.Now()
	defer func() { s.obs.observe("keyword.build", start, err) }()
	s.obs.observeTokens("in", len(tokens))

	doc, err := s.codec.Build(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}
	return Filter(doc), nil
}

// Tokens renders a stored filter back into keyword tokens.
// Fragments that cannot be expressed as keywords are left out.
func (s *KeywordService) Tokens(ctx context.Context, f Filter) []string {
	start := time.Now()
	defer s.obs.observe("keyword.render", start, nil)

	tokens := s.codec.Tokens(ctx, toDocument(f))
	s.obs.observeTokens("out", len(tokens))
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// Render renders a stored filter as a comma separated keyword string.
func (s *KeywordService) Render(ctx context.Context, f Filter) string {
	return domkw.Join(s.Tokens(ctx, f))
}
