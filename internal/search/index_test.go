package search

import (
	"math"
	"testing"

	"github.com/resona-fm/resona/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	tc := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{"identical vectors", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite vectors", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal vectors", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero norm a", []float64{0, 0}, []float64{1, 1}, 0},
		{"zero norm b", []float64{1, 1}, []float64{0, 0}, 0},
		{"dimension mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty vectors", nil, nil, 0},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			got := CosineSimilarity(c.a, c.b)
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %f, want %f", c.a, c.b, got, c.want)
			}
			if math.IsNaN(got) {
				t.Error("similarity must never be NaN")
			}
		})
	}
}

func rankTrack(id string, popularity int, explicit bool, embedding []float64) *models.Track {
	return &models.Track{
		ID:         id,
		Title:      "Track " + id,
		Artist:     "Artist",
		Popularity: popularity,
		Explicit:   explicit,
		Embedding:  embedding,
	}
}

func TestRank(t *testing.T) {
	query := []float64{1, 0}

	t.Run("orders by score", func(t *testing.T) {
		candidates := []*models.Track{
			rankTrack("far", 0, false, []float64{0, 1}),
			rankTrack("near", 0, false, []float64{1, 0.1}),
		}

		got := Rank(query, candidates, 0, false)
		if len(got) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(got))
		}
		if got[0].Track.ID != "near" {
			t.Errorf("expected nearest track first, got %s", got[0].Track.ID)
		}
	})

	t.Run("ties break on popularity then id", func(t *testing.T) {
		candidates := []*models.Track{
			rankTrack("b", 50, false, []float64{1, 0}),
			rankTrack("a", 50, false, []float64{1, 0}),
			rankTrack("c", 90, false, []float64{1, 0}),
		}

		got := Rank(query, candidates, 0, false)
		order := []string{got[0].Track.ID, got[1].Track.ID, got[2].Track.ID}
		want := []string{"c", "a", "b"}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("unexpected tie-break order: %v, want %v", order, want)
			}
		}
	})

	t.Run("explicit filter applied before scoring", func(t *testing.T) {
		candidates := []*models.Track{
			rankTrack("clean", 0, false, []float64{0, 1}),
			rankTrack("explicit", 0, true, []float64{1, 0}),
		}

		got := Rank(query, candidates, 0, true)
		if len(got) != 1 || got[0].Track.ID != "clean" {
			t.Errorf("expected only the clean track, got %d matches", len(got))
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		candidates := []*models.Track{
			rankTrack("a", 0, false, []float64{1, 0}),
			rankTrack("b", 0, false, []float64{1, 0}),
			rankTrack("c", 0, false, []float64{1, 0}),
		}

		got := Rank(query, candidates, 2, false)
		if len(got) != 2 {
			t.Errorf("expected 2 matches, got %d", len(got))
		}
	})

	t.Run("candidate cap", func(t *testing.T) {
		candidates := make([]*models.Track, MaxCandidates+50)
		for i := range candidates {
			candidates[i] = rankTrack(
				// Zero-padded so id order matches insertion order.
				formatID(i), 0, false, []float64{1, 0})
		}

		got := Rank(query, candidates, 0, false)
		if len(got) != MaxCandidates {
			t.Errorf("expected %d matches, got %d", MaxCandidates, len(got))
		}
	})

	t.Run("zero norm embedding ranks last", func(t *testing.T) {
		candidates := []*models.Track{
			rankTrack("degenerate", 99, false, []float64{0, 0}),
			rankTrack("normal", 0, false, []float64{1, 0}),
		}

		got := Rank(query, candidates, 0, false)
		if got[0].Track.ID != "normal" {
			t.Errorf("expected the normal track first, got %s", got[0].Track.ID)
		}
		if got[1].Score != 0 {
			t.Errorf("expected zero score for degenerate embedding, got %f", got[1].Score)
		}
	})
}

func formatID(i int) string {
	const digits = "0123456789"
	return string([]byte{
		digits[i/1000%10], digits[i/100%10], digits[i/10%10], digits[i%10],
	})
}
