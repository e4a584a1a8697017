// Package search implements semantic track search over embedding vectors.
//
// Ranking is a brute-force cosine similarity scan over the embedded catalog,
// capped at [MaxCandidates] tracks per query. The scan keeps a stable total
// order (score, then popularity, then id) so equal-scoring tracks always
// rank the same way.
//
// [Service] owns the degraded path: when the embedding provider fails, the
// query falls back to case-insensitive substring matching over titles and
// artists rather than surfacing a hard error.
package search
