// Package services implements clients for the external APIs the enrichment core depends on.
//
// # Link Resolution
//
// The [LinkResolver] interface is implemented by [SongLinkService], which calls
// an Odesli-style song-link resolution endpoint once per track and maps the
// response's linksByPlatform object onto the fixed [models.Platform] enum.
//
// The client is deliberately side-effect free with respect to rate limiting:
// a 429 response surfaces its Retry-After hint as structured data on
// [APIError] and the caller (the resolution task manager) decides how to back
// off. The client never sleeps.
//
// # Embeddings
//
// The [Embedder] interface is implemented by [EmbeddingService], which calls an
// OpenAI-compatible /v1/embeddings endpoint and returns a fixed-dimension
// vector. Failures wrap [shared.ErrEmbeddingProvider]; callers must not
// substitute a zero vector for a failed embedding, since that would corrupt
// similarity rankings.
//
// # Error Handling
//
// All HTTP failures are reported as [APIError] values wrapping one of two
// sentinels:
//   - [shared.ErrTransientAPI]: timeouts, 5xx, 429; retry with backoff
//   - [shared.ErrPermanentAPI]: other 4xx; never retried
//
// Credentials are constructor parameters sourced from configuration; nothing
// in this package reads ambient process state.
package services
