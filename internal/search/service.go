package search

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/services"
)

// Catalog is the slice of the track store the search service reads.
type Catalog interface {
	Embedded(limit int) ([]*models.Track, error)
	SearchByText(text string, limit int) ([]*models.Track, error)
}

// Result is one search hit. Score is absent in degraded mode.
type Result struct {
	Track    *models.Track `json:"track"`
	Score    *float64      `json:"score,omitempty"`
	Degraded bool          `json:"degraded"`
}

// Service answers natural-language track queries.
type Service struct {
	embedder services.Embedder
	catalog  Catalog
	logger   *log.Logger
}

// NewService creates a search service over the given embedder and catalog.
func NewService(embedder services.Embedder, catalog Catalog, logger *log.Logger) *Service {
	return &Service{
		embedder: embedder,
		catalog:  catalog,
		logger:   logger,
	}
}

// Search finds tracks matching the query text.
//
// The primary path embeds the query and ranks the embedded catalog by cosine
// similarity. When the embedding provider fails, the query degrades to
// substring matching over titles and artists; results then carry no scores
// and are flagged as degraded. Search only returns an error for invalid
// input or a catalog read failure.
func (s *Service) Search(ctx context.Context, text string, limit int, excludeExplicit bool) ([]Result, error) {
	if text == "" {
		return nil, fmt.Errorf("search query is required")
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding provider unavailable, degrading to text search", "error", err)
		return s.searchDegraded(text, limit, excludeExplicit)
	}

	candidates, err := s.catalog.Embedded(MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded tracks: %w", err)
	}

	matches := Rank(vector, candidates, limit, excludeExplicit)

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		results = append(results, Result{Track: match.Track, Score: &score})
	}

	return results, nil
}

// searchDegraded runs the substring fallback path.
func (s *Service) searchDegraded(text string, limit int, excludeExplicit bool) ([]Result, error) {
	// Over-fetch so the explicit filter does not starve the result set.
	fetchLimit := limit
	if excludeExplicit && fetchLimit > 0 {
		fetchLimit *= 2
	}

	tracks, err := s.catalog.SearchByText(text, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}

	results := make([]Result, 0, len(tracks))
	for _, track := range tracks {
		if excludeExplicit && track.Explicit {
			continue
		}
		results = append(results, Result{Track: track, Degraded: true})
		if limit > 0 && len(results) == limit {
			break
		}
	}

	return results, nil
}
