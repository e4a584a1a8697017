package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/shared"
)

// TrackRepository handles track catalog persistence.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a track repository backed by the given database.
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = `id, sequence, title, artist, album, explicit, popularity,
	release_date, seed_platform, seed_platform_id, embedding, energy, valence,
	created_at, updated_at`

// Create inserts a new track, assigning its id and sequence number.
func (r *TrackRepository) Create(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to get next sequence: %w", err)
	}

	if track.ID == "" {
		track.ID = shared.GenerateID()
	}
	if track.SeedPlatform == "" {
		track.SeedPlatform = models.PlatformSpotify
	}
	track.Sequence = sequence

	now := time.Now()
	track.CreatedAt = now
	track.UpdatedAt = now

	embedding, err := encodeVector(track.Embedding)
	if err != nil {
		return err
	}
	if track.Embedding == nil {
		embedding = ""
	}

	_, err = r.db.Exec(`
		INSERT INTO tracks (id, sequence, title, artist, album, explicit, popularity,
			release_date, seed_platform, seed_platform_id, embedding, energy, valence,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.ID, track.Sequence, track.Title, track.Artist, track.Album,
		track.Explicit, track.Popularity, track.ReleaseDate,
		string(track.SeedPlatform), track.SeedPlatformID, embedding,
		track.Energy, track.Valence, track.CreatedAt, track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}

	if len(track.Genres) > 0 {
		if err := r.UpsertGenres(track.ID, track.Genres); err != nil {
			return err
		}
	}

	return nil
}

// Get retrieves a track by id, hydrated with its genres and platform links.
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	row := r.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM tracks WHERE id = ? AND deleted_at IS NULL", trackColumns), id)

	track, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	if err := r.hydrate(track); err != nil {
		return nil, err
	}

	return track, nil
}

// GetByIDs retrieves the given tracks, hydrated, preserving input order.
// Missing ids are skipped rather than treated as errors.
func (r *TrackRepository) GetByIDs(ids []string) ([]*models.Track, error) {
	tracks := make([]*models.Track, 0, len(ids))
	for _, id := range ids {
		track, err := r.Get(id)
		if err != nil {
			if errors.Is(err, shared.ErrTrackNotFound) {
				continue
			}
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Unresolved returns tracks that have a seed platform identifier but no
// resolved link on any other platform, oldest first.
//
// The predicate is evaluated fresh on every call: resolution mutates its own
// input set, so the selection shrinks as a batch makes progress.
func (r *TrackRepository) Unresolved(limit int) ([]*models.Track, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks t
		WHERE t.seed_platform_id != ''
		  AND t.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM platform_links pl
			WHERE pl.track_id = t.id AND pl.platform != t.seed_platform
		  )
		ORDER BY t.sequence ASC`, qualifyColumns("t"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return r.queryTracks(query)
}

// MissingEmbeddings returns tracks without a stored embedding vector, oldest first.
func (r *TrackRepository) MissingEmbeddings(limit int) ([]*models.Track, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks t
		WHERE (t.embedding IS NULL OR t.embedding = '')
		  AND t.deleted_at IS NULL
		ORDER BY t.sequence ASC`, qualifyColumns("t"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return r.queryTracks(query)
}

// Embedded returns tracks that carry a stored embedding vector, hydrated.
// These are the candidate set for similarity ranking.
func (r *TrackRepository) Embedded(limit int) ([]*models.Track, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks t
		WHERE t.embedding IS NOT NULL AND t.embedding != ''
		  AND t.deleted_at IS NULL
		ORDER BY t.sequence ASC`, qualifyColumns("t"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return r.queryTracks(query)
}

// All returns every live track in sequence order, hydrated.
func (r *TrackRepository) All(limit int) ([]*models.Track, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tracks t
		WHERE t.deleted_at IS NULL
		ORDER BY t.sequence ASC`, qualifyColumns("t"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return r.queryTracks(query)
}

// UpsertEmbedding stores the embedding vector for a track, replacing any
// previous vector.
func (r *TrackRepository) UpsertEmbedding(trackID string, vector []float64) error {
	encoded, err := encodeVector(vector)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		"UPDATE tracks SET embedding = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		encoded, time.Now(), trackID,
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check embedding update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}

	return nil
}

// UpsertGenres adds genre tags to a track. Tags the track already carries are
// ignored, so re-applying the same set is a no-op.
func (r *TrackRepository) UpsertGenres(trackID string, genres []string) error {
	now := time.Now()
	for _, genre := range genres {
		_, err := r.db.Exec(
			"INSERT OR IGNORE INTO track_genres (track_id, genre, created_at) VALUES (?, ?, ?)",
			trackID, genre, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert genre %q: %w", genre, err)
		}
	}
	return nil
}

// SearchByText finds tracks whose title or artist contains the query,
// case-insensitively, ordered by popularity descending then id ascending.
//
// This is the degraded-mode path used when the embedding provider is down.
func (r *TrackRepository) SearchByText(text string, limit int) ([]*models.Track, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	query := fmt.Sprintf(`
		SELECT %s FROM tracks t
		WHERE (lower(t.title) LIKE ? OR lower(t.artist) LIKE ?)
		  AND t.deleted_at IS NULL
		ORDER BY t.popularity DESC, t.id ASC`, qualifyColumns("t"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	return r.queryTracks(query, pattern, pattern)
}

// Delete soft-deletes a track. The row is retained for audit but excluded
// from every query.
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(
		"UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check track deletion: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// Statistics summarizes enrichment coverage across the catalog.
func (r *TrackRepository) Statistics() (*models.CatalogStats, error) {
	stats := &models.CatalogStats{
		PlatformCoverage: make(map[models.Platform]int),
	}

	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM tracks WHERE deleted_at IS NULL",
	).Scan(&stats.TotalTracks)
	if err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}

	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM tracks t
		WHERE t.seed_platform_id != ''
		  AND t.deleted_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM platform_links pl
			WHERE pl.track_id = t.id AND pl.platform != t.seed_platform
		  )`,
	).Scan(&stats.NeedingResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to count unresolved tracks: %w", err)
	}

	err = r.db.QueryRow(
		"SELECT COUNT(*) FROM tracks WHERE embedding IS NOT NULL AND embedding != '' AND deleted_at IS NULL",
	).Scan(&stats.EmbeddedTracks)
	if err != nil {
		return nil, fmt.Errorf("failed to count embedded tracks: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT pl.platform, COUNT(*) FROM platform_links pl
		JOIN tracks t ON t.id = pl.track_id
		WHERE t.deleted_at IS NULL
		GROUP BY pl.platform`)
	if err != nil {
		return nil, fmt.Errorf("failed to count platform coverage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan platform coverage: %w", err)
		}
		stats.PlatformCoverage[models.Platform(platform)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read platform coverage: %w", err)
	}

	return stats, nil
}

// queryTracks runs a multi-row track query and hydrates every result.
func (r *TrackRepository) queryTracks(query string, args ...any) ([]*models.Track, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}

	for _, track := range tracks {
		if err := r.hydrate(track); err != nil {
			return nil, err
		}
	}

	return tracks, nil
}

// hydrate loads a track's genres and platform links.
func (r *TrackRepository) hydrate(track *models.Track) error {
	rows, err := r.db.Query(
		"SELECT genre FROM track_genres WHERE track_id = ? ORDER BY genre ASC", track.ID)
	if err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	defer rows.Close()

	track.Genres = nil
	for rows.Next() {
		var genre string
		if err := rows.Scan(&genre); err != nil {
			return fmt.Errorf("failed to scan genre: %w", err)
		}
		track.Genres = append(track.Genres, genre)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read genres: %w", err)
	}

	links, err := NewPlatformLinkRepository(r.db).ForTrack(track.ID)
	if err != nil {
		return err
	}
	track.Links = links

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanTrack.
type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner) (*models.Track, error) {
	var track models.Track
	var album, releaseDate, embedding sql.NullString
	var seedPlatform string

	err := row.Scan(
		&track.ID, &track.Sequence, &track.Title, &track.Artist, &album,
		&track.Explicit, &track.Popularity, &releaseDate,
		&seedPlatform, &track.SeedPlatformID, &embedding,
		&track.Energy, &track.Valence, &track.CreatedAt, &track.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	track.Album = album.String
	track.ReleaseDate = releaseDate.String
	track.SeedPlatform = models.Platform(seedPlatform)

	if embedding.Valid && embedding.String != "" {
		vector, err := decodeVector(embedding.String)
		if err != nil {
			return nil, err
		}
		track.Embedding = vector
	}

	return &track, nil
}

// qualifyColumns prefixes trackColumns with a table alias.
func qualifyColumns(alias string) string {
	parts := strings.Split(trackColumns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
