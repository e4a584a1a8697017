package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// External API errors. ErrTransientAPI covers timeouts, 5xx and 429
	// responses and is safe to retry with backoff; ErrPermanentAPI covers
	// every other 4xx and is never retried.
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrTransientAPI      = fmt.Errorf("transient API failure")
	ErrPermanentAPI      = fmt.Errorf("permanent API failure")
	ErrEmbeddingProvider = fmt.Errorf("embedding provider failure")
	ErrTimeout           = fmt.Errorf("operation timed out")

	// Catalog errors
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrTaskNotFound  = fmt.Errorf("task not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrUnknownPlatform = fmt.Errorf("unknown platform")
)
