// Package repositories implements SQLite persistence for the track catalog.
//
// Two repositories make up the enrichment store:
//   - [TrackRepository] : catalog tracks, genre tags, embedding vectors, search and selection queries
//   - [PlatformLinkRepository] : per-platform track identifiers with conflict-safe upserts
//
// All enrichment writes are idempotent: re-applying the same platform link,
// genre set, or embedding leaves the database unchanged. The worker and the
// search path may touch overlapping rows concurrently, so every write is an
// insert-or-update on the natural key rather than a read-modify-write.
//
// The unresolved-tracks predicate ([TrackRepository.Unresolved]) is evaluated
// fresh on every call: enrichment mutates its own input set, so caching the
// selection would return stale candidates.
//
// Sequence numbers provide stable, human-readable ordering independent of
// UUIDs; [NextSequence] atomically increments per-table sequence counters in
// dedicated sequence tables.
package repositories
