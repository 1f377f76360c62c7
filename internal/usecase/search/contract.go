package search

import (
	"context"

	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/domain/query"
)

// Tier resolves a parsed query into search results.
// Both the native index adapter and the tree walker satisfy it.
type Tier interface {
	Search(ctx context.Context, q query.Parsed) ([]entry.SearchResult, error)
}
