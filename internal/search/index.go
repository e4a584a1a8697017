package search

import (
	"math"
	"sort"

	"github.com/resona-fm/resona/internal/models"
)

// MaxCandidates caps the number of embedded tracks scored per query.
const MaxCandidates = 500

// Match pairs a track with its similarity score for one query.
type Match struct {
	Track *models.Track `json:"track"`
	Score float64       `json:"score"`
}

// CosineSimilarity computes the cosine of the angle between two vectors.
//
// Returns 0 when the vectors have different dimensions or either has zero
// norm, so degenerate embeddings rank last instead of producing NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores candidates against the query vector and returns the top matches.
//
// Explicit tracks are filtered out before scoring when excludeExplicit is set.
// At most [MaxCandidates] candidates are scored. Ties break on popularity
// descending, then id ascending, so rankings are deterministic.
func Rank(query []float64, candidates []*models.Track, limit int, excludeExplicit bool) []Match {
	pool := candidates
	if excludeExplicit {
		pool = make([]*models.Track, 0, len(candidates))
		for _, track := range candidates {
			if !track.Explicit {
				pool = append(pool, track)
			}
		}
	}

	if len(pool) > MaxCandidates {
		pool = pool[:MaxCandidates]
	}

	matches := make([]Match, 0, len(pool))
	for _, track := range pool {
		matches = append(matches, Match{
			Track: track,
			Score: CosineSimilarity(query, track.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Track.Popularity != matches[j].Track.Popularity {
			return matches[i].Track.Popularity > matches[j].Track.Popularity
		}
		return matches[i].Track.ID < matches[j].Track.ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}
