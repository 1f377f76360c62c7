package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/domain"
	"github.com/localaid/localaid/internal/domain/entry"
	"github.com/localaid/localaid/internal/domain/query"
	logpkg "github.com/localaid/localaid/internal/logger"
	"github.com/localaid/localaid/internal/metrics"
)

// Source names the tier whose results were returned.
type Source string

// Result sources.
const (
	SourceIndex Source = "index"
	SourceWalk  Source = "walk"
	SourceNone  Source = "none"
)

// Outcome is the answer to one search call.
type Outcome struct {
	Query   query.Parsed
	Results []entry.SearchResult
	Source  Source
}

type state int

const (
	stateTryIndex state = iota
	stateTryWalk
	stateDone
)

// Service runs the two-tier file search: the native index first, the tree
// walker only when the index returned nothing. Results of the two tiers are
// never merged.
type Service struct {
	index      Tier
	walker     Tier
	maxResults int
}

// New creates a search service. maxResults <= 0 uses entry.MaxResults.
func New(index, walker Tier, maxResults int) *Service {
	if maxResults <= 0 || maxResults > entry.MaxResults {
		maxResults = entry.MaxResults
	}
	return &Service{index: index, walker: walker, maxResults: maxResults}
}

// Search parses raw and resolves it. An empty query is ErrInvalidQuery.
// Index failures are treated as an empty index answer. Walker failures are
// returned only when they leave the search without any result.
func (s *Service) Search(ctx context.Context, raw string) (Outcome, error) {
	if strings.TrimSpace(strings.ToLower(raw)) == "" {
		return Outcome{}, fmt.Errorf("%w: please provide a search query", domain.ErrInvalidQuery)
	}

	logger := logpkg.FromContext(ctx)
	out := Outcome{Query: query.Parse(raw), Source: SourceNone}

	for st := stateTryIndex; st != stateDone; {
		switch st {
		case stateTryIndex:
			results, err := s.runTier(ctx, SourceIndex, s.index, out.Query)
			if err != nil {
				metrics.IndexToolFailuresTotal.Inc()
				logger.Debug("index search unavailable, falling back to walk", zap.Error(err))
			}
			if len(results) > 0 {
				out.Results, out.Source = results, SourceIndex
				st = stateDone
				continue
			}
			st = stateTryWalk

		case stateTryWalk:
			results, err := s.runTier(ctx, SourceWalk, s.walker, out.Query)
			if err != nil {
				if len(results) == 0 && isFatalWalkErr(err) {
					return Outcome{}, fmt.Errorf("walk search: %w", err)
				}
				logger.Warn("walk search ended early", zap.Int("results", len(results)), zap.Error(err))
			}
			if len(results) > 0 {
				out.Results, out.Source = results, SourceWalk
			}
			st = stateDone
		}
	}

	if len(out.Results) > s.maxResults {
		out.Results = out.Results[:s.maxResults]
	}

	metrics.SearchTotal.WithLabelValues(string(out.Source)).Inc()
	metrics.SearchResults.Observe(float64(len(out.Results)))
	logger.Debug("search finished",
		zap.String("query", out.Query.String()),
		zap.String("source", string(out.Source)),
		zap.Int("results", len(out.Results)),
	)
	return out, nil
}

func (s *Service) runTier(
	ctx context.Context, source Source, tier Tier, q query.Parsed,
) ([]entry.SearchResult, error) {
	if tier == nil {
		return nil, nil
	}
	start := time.Now()
	results, err := tier.Search(ctx, q)
	metrics.SearchDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	return results, err
}

func isFatalWalkErr(err error) bool {
	return errors.Is(err, domain.ErrUnexpectedIO) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
