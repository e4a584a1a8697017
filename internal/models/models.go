package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Platform identifies a streaming platform that can host a playable version of a track.
type Platform string

const (
	PlatformSpotify    Platform = "spotify"
	PlatformAppleMusic Platform = "apple_music"
	PlatformYouTube    Platform = "youtube"
	PlatformAmazon     Platform = "amazon_music"
	PlatformTidal      Platform = "tidal"
	PlatformDeezer     Platform = "deezer"
)

// AllPlatforms lists every tracked platform in a fixed order.
var AllPlatforms = []Platform{
	PlatformSpotify,
	PlatformAppleMusic,
	PlatformYouTube,
	PlatformAmazon,
	PlatformTidal,
	PlatformDeezer,
}

// platformAliases maps external API keys to tracked platforms.
// The link-resolution service uses camelCase keys and folds YouTube Music
// into plain YouTube.
var platformAliases = map[string]Platform{
	"spotify":      PlatformSpotify,
	"applemusic":   PlatformAppleMusic,
	"apple_music":  PlatformAppleMusic,
	"itunes":       PlatformAppleMusic,
	"youtube":      PlatformYouTube,
	"youtubemusic": PlatformYouTube,
	"amazonmusic":  PlatformAmazon,
	"amazon_music": PlatformAmazon,
	"amazonstore":  PlatformAmazon,
	"tidal":        PlatformTidal,
	"deezer":       PlatformDeezer,
}

// ParsePlatform maps an external platform key onto the fixed [Platform] enum.
//
// Returns an error for keys outside the tracked set so callers must handle
// unknown platforms explicitly rather than dropping them on the floor.
func ParsePlatform(key string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if p, ok := platformAliases[normalized]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", key)
}

// TrackURL builds the canonical track page URL for an identifier on this platform.
//
// Used to construct the seed URL handed to the link-resolution service.
func (p Platform) TrackURL(id string) string {
	switch p {
	case PlatformSpotify:
		return "https://open.spotify.com/track/" + id
	case PlatformAppleMusic:
		return "https://music.apple.com/song/" + id
	case PlatformYouTube:
		return "https://www.youtube.com/watch?v=" + id
	case PlatformAmazon:
		return "https://music.amazon.com/tracks/" + id
	case PlatformTidal:
		return "https://tidal.com/browse/track/" + id
	case PlatformDeezer:
		return "https://www.deezer.com/track/" + id
	default:
		return ""
	}
}

// PlatformLink records a track's identity on a single streaming platform.
//
// Invariants, enforced by the platform_links schema:
//   - at most one row per (platform, platform_id): external identifiers are globally unique
//   - at most one row per (track_id, platform): re-running resolution never duplicates
type PlatformLink struct {
	ID         string    `json:"id"`
	TrackID    string    `json:"trackId"`
	Platform   Platform  `json:"platform"`
	PlatformID string    `json:"platformId"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Track is a catalog track owned by the enrichment subsystem.
//
// Embedding and enrichment fields are mutated exclusively through the
// repositories package; presentation code only reads them.
type Track struct {
	ID             string         `json:"id"`
	Sequence       int            `json:"sequence"`
	Title          string         `json:"title"`
	Artist         string         `json:"artist"`
	Album          string         `json:"album,omitempty"`
	Explicit       bool           `json:"explicit"`
	Popularity     int            `json:"popularity"`
	ReleaseDate    string         `json:"releaseDate,omitempty"`
	SeedPlatform   Platform       `json:"seedPlatform"`
	SeedPlatformID string         `json:"seedPlatformId"`
	Embedding      []float64      `json:"-"`
	Energy         *float64       `json:"energy,omitempty"`
	Valence        *float64       `json:"valence,omitempty"`
	Genres         []string       `json:"genres,omitempty"`
	Links          []PlatformLink `json:"links,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Validate checks that the track carries the minimum catalog identity.
func (t *Track) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.Artist == "" {
		return fmt.Errorf("track artist is required")
	}
	if t.SeedPlatformID != "" && t.SeedPlatform == "" {
		return fmt.Errorf("seed platform is required when a seed id is set")
	}
	return nil
}

// EmbeddingText renders the canonical input string for the embedding model.
//
// The rendering is a pure function of (title, artist, genres): genres are
// sorted so that regenerating an embedding for unchanged inputs produces the
// same provider request, keeping similarity rankings stable across runs.
func (t *Track) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(t.Title)
	if t.Artist != "" {
		b.WriteString(" by ")
		b.WriteString(t.Artist)
	}
	if len(t.Genres) > 0 {
		genres := make([]string, len(t.Genres))
		copy(genres, t.Genres)
		sort.Strings(genres)
		b.WriteString(". Genres: ")
		b.WriteString(strings.Join(genres, ", "))
	}
	return b.String()
}

// TaskStatus enumerates the lifecycle states of a resolution task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskStopping   TaskStatus = "stopping"
	TaskStopped    TaskStatus = "stopped"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// legalTransitions captures the task state machine:
// queued → processing → {completed | failed | stopping → stopped}.
// A stop request may also land while the task is still queued.
var legalTransitions = map[TaskStatus][]TaskStatus{
	TaskQueued:     {TaskProcessing, TaskStopping, TaskFailed},
	TaskProcessing: {TaskCompleted, TaskFailed, TaskStopping},
	TaskStopping:   {TaskStopped},
}

// Active reports whether the task still owns the single-flight slot.
func (s TaskStatus) Active() bool {
	return s == TaskQueued || s == TaskProcessing
}

// Terminal reports whether the task has reached a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStopped || s == TaskCompleted || s == TaskFailed
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ResolutionTask is a transient batch-job record.
//
// Records live in a process-local registry and are not persisted across
// restarts; Processed and Failed are monotonically non-decreasing for the
// lifetime of one task.
type ResolutionTask struct {
	ID          string     `json:"id"`
	Status      TaskStatus `json:"status"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Failed      int        `json:"failed"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// Clone returns an independent copy, used for snapshot reads out of the registry.
func (t *ResolutionTask) Clone() *ResolutionTask {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// CatalogStats summarizes enrichment coverage across the catalog.
type CatalogStats struct {
	TotalTracks       int              `json:"totalTracks"`
	PlatformCoverage  map[Platform]int `json:"platformCoverage"`
	NeedingResolution int              `json:"tracksNeedingResolution"`
	EmbeddedTracks    int              `json:"embeddedTracks"`
}
