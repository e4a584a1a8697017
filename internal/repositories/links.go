package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/shared"
)

// PlatformLinkRepository handles platform link persistence.
type PlatformLinkRepository struct {
	db *sql.DB
}

// NewPlatformLinkRepository creates a platform link repository backed by the given database.
func NewPlatformLinkRepository(db *sql.DB) *PlatformLinkRepository {
	return &PlatformLinkRepository{db: db}
}

// UpsertLinks stores resolved platform links for a track.
//
// A link for a (track, platform) pair the track already carries updates the
// stored identifier and URL in place, so resolving the same track twice never
// duplicates rows. A link whose (platform, platform_id) already belongs to a
// different track is skipped: external identifiers are globally unique and the
// first claim wins.
func (r *PlatformLinkRepository) UpsertLinks(trackID string, links []models.PlatformLink) error {
	now := time.Now()

	for _, link := range links {
		if link.Platform == "" || link.PlatformID == "" {
			return fmt.Errorf("%w: platform link requires platform and platform id", shared.ErrInvalidInput)
		}

		_, err := r.db.Exec(`
			INSERT INTO platform_links (id, track_id, platform, platform_id, url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(track_id, platform) DO UPDATE SET
				platform_id = excluded.platform_id,
				url = excluded.url,
				updated_at = excluded.updated_at`,
			shared.GenerateID(), trackID, string(link.Platform), link.PlatformID,
			link.URL, now, now,
		)
		if err != nil {
			// Another track already claims this external identifier.
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				continue
			}
			return fmt.Errorf("failed to upsert platform link: %w", err)
		}
	}

	return nil
}

// ForTrack returns a track's platform links in the fixed platform order.
func (r *PlatformLinkRepository) ForTrack(trackID string) ([]models.PlatformLink, error) {
	rows, err := r.db.Query(`
		SELECT id, track_id, platform, platform_id, url, created_at, updated_at
		FROM platform_links WHERE track_id = ?`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform links: %w", err)
	}
	defer rows.Close()

	byPlatform := make(map[models.Platform]models.PlatformLink)
	for rows.Next() {
		var link models.PlatformLink
		var platform string
		err := rows.Scan(&link.ID, &link.TrackID, &platform, &link.PlatformID,
			&link.URL, &link.CreatedAt, &link.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan platform link: %w", err)
		}
		link.Platform = models.Platform(platform)
		byPlatform[link.Platform] = link
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read platform links: %w", err)
	}

	var links []models.PlatformLink
	for _, platform := range models.AllPlatforms {
		if link, ok := byPlatform[platform]; ok {
			links = append(links, link)
		}
	}

	return links, nil
}

// CountByPlatform returns the number of links stored per platform.
func (r *PlatformLinkRepository) CountByPlatform() (map[models.Platform]int, error) {
	rows, err := r.db.Query(
		"SELECT platform, COUNT(*) FROM platform_links GROUP BY platform")
	if err != nil {
		return nil, fmt.Errorf("failed to count platform links: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Platform]int)
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan platform link count: %w", err)
		}
		counts[models.Platform(platform)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read platform link counts: %w", err)
	}

	return counts, nil
}
