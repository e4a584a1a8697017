// Song-link resolution [LinkResolver] implementation.
//
// Response shapes follow the Odesli /v1-alpha.1/links API.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/shared"
)

const (
	defaultSongLinkBaseURL = "https://api.song.link"
	defaultResolverTimeout = 15 * time.Second
)

// songLinkEntry is one platform entry in the linksByPlatform object.
type songLinkEntry struct {
	EntityUniqueID string `json:"entityUniqueId"`
	URL            string `json:"url"`
}

// songLinkResponse is the subset of the resolution response the core consumes.
type songLinkResponse struct {
	EntityUniqueID  string                   `json:"entityUniqueId"`
	LinksByPlatform map[string]songLinkEntry `json:"linksByPlatform"`
}

// SongLinkService implements [LinkResolver] against a song-link resolution endpoint.
type SongLinkService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewSongLinkService creates a resolution client from configuration.
//
// The HTTP client carries an explicit per-call timeout so a hanging external
// call cannot stall a batch indefinitely.
func NewSongLinkService(cfg shared.ResolverConfig, logger *log.Logger) *SongLinkService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSongLinkBaseURL
	}

	timeout := defaultResolverTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &SongLinkService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     shared.WithLogger(logger, "service", "songlink"),
	}
}

// Name returns the service name.
func (s *SongLinkService) Name() string {
	return "SongLink"
}

// Resolve calls the resolution endpoint once for the seed identifier and
// extracts every tracked platform identity from the response.
//
// Entries whose platform key is outside the tracked set are rejected
// explicitly: they are counted and logged, never silently ignored. Entries
// without a usable identifier are skipped.
func (s *SongLinkService) Resolve(ctx context.Context, seed models.Platform, seedID string) ([]ResolvedLink, error) {
	if seedID == "" {
		return nil, fmt.Errorf("%w: seed platform id is required", shared.ErrInvalidInput)
	}

	seedURL := seed.TrackURL(seedID)
	if seedURL == "" {
		return nil, fmt.Errorf("%w: no canonical URL for platform %q", shared.ErrInvalidInput, seed)
	}

	query := url.Values{}
	query.Set("url", seedURL)
	query.Set("songIfSingle", "true")
	if s.apiKey != "" {
		query.Set("key", s.apiKey)
	}

	endpoint := fmt.Sprintf("%s/v1-alpha.1/links?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are retryable.
		return nil, &APIError{Service: s.Name(), Err: fmt.Errorf("%w: %v", shared.ErrTransientAPI, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Service: s.Name(), Status: resp.StatusCode, Err: classifyStatus(resp.StatusCode)}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return nil, apiErr
	}

	var parsed songLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &APIError{Service: s.Name(), Err: fmt.Errorf("%w: malformed response: %v", shared.ErrPermanentAPI, err)}
	}

	links := make([]ResolvedLink, 0, len(parsed.LinksByPlatform))
	var unknown []string

	for key, entry := range parsed.LinksByPlatform {
		platform, err := models.ParsePlatform(key)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}

		id := platformEntityID(entry.EntityUniqueID)
		if id == "" {
			s.logger.Debug("skipping platform without identifier", "platform", platform)
			continue
		}

		links = append(links, ResolvedLink{Platform: platform, PlatformID: id, URL: entry.URL})
	}

	if len(unknown) > 0 {
		s.logger.Warn("rejected unknown platform keys", "keys", strings.Join(unknown, ","), "seed", seedID)
	}

	return links, nil
}

// platformEntityID extracts the platform-native identifier from an
// entityUniqueId of the form "SPOTIFY_SONG::6b8a...".
func platformEntityID(entityID string) string {
	parts := strings.SplitN(entityID, "::", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// parseRetryAfter reads a Retry-After header value in seconds.
// Returns 0 when the header is absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

var _ LinkResolver = (*SongLinkService)(nil)
