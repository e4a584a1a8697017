// Shared service interfaces and error types for external API clients.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/shared"
)

// ResolvedLink is one platform identity extracted from a link-resolution response.
type ResolvedLink struct {
	Platform   models.Platform
	PlatformID string
	URL        string
}

// LinkResolver resolves a track's presence across streaming platforms from a
// single seed identifier.
type LinkResolver interface {
	// Resolve calls the external resolution service once and returns every
	// tracked platform the service knows the track on. Platforms without an
	// identifier are skipped; unknown platform keys are rejected explicitly.
	Resolve(ctx context.Context, seed models.Platform, seedID string) ([]ResolvedLink, error)

	// Name returns the name of the resolution backend.
	Name() string
}

// Embedder turns track text into a fixed-length embedding vector.
type Embedder interface {
	// Embed returns the embedding vector for the given text.
	// A failure wraps [shared.ErrEmbeddingProvider]; callers must retry or
	// exclude the track from the index, never substitute a zero vector.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the configured vector width, 0 when the provider default is used.
	Dimensions() int
}

// APIError describes a failed call to an external HTTP API.
//
// It wraps [shared.ErrTransientAPI] or [shared.ErrPermanentAPI] so retry
// policy can be decided with [errors.Is], and carries the server's
// Retry-After hint when a 429 supplied one.
type APIError struct {
	Service    string
	Status     int
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status onto the retryability sentinels.
// 429 and 5xx are transient; every other 4xx is permanent.
func classifyStatus(status int) error {
	switch {
	case status == 429 || status >= 500:
		return shared.ErrTransientAPI
	case status >= 400:
		return shared.ErrPermanentAPI
	default:
		return shared.ErrAPIRequest
	}
}

// IsTransient reports whether err is safe to retry with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, shared.ErrTransientAPI)
}

// RetryAfterHint extracts the server-provided backoff hint from err, if any.
func RetryAfterHint(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}
