// OpenAI-compatible [Embedder] implementation.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/resona-fm/resona/internal/shared"
)

const (
	defaultEmbeddingBaseURL = "https://api.openai.com"
	defaultEmbeddingModel   = "text-embedding-3-small"
	defaultEmbeddingTimeout = 30 * time.Second
)

// embeddingRequest is the /v1/embeddings request payload.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the subset of the /v1/embeddings response the core consumes.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// EmbeddingService implements [Embedder] against an OpenAI-compatible embeddings endpoint.
type EmbeddingService struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewEmbeddingService creates an embedding client from configuration.
func NewEmbeddingService(cfg shared.EmbeddingConfig) *EmbeddingService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultEmbeddingBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}

	timeout := defaultEmbeddingTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &EmbeddingService{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Dimensions returns the configured vector width, 0 when the provider default is used.
func (e *EmbeddingService) Dimensions() int {
	return e.dimensions
}

// Embed requests an embedding vector for text.
//
// Every failure path wraps [shared.ErrEmbeddingProvider] so callers can route
// to the degraded search path without inspecting HTTP details.
func (e *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty input text", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(embeddingRequest{
		Model:      e.model,
		Input:      []string{text},
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", shared.ErrEmbeddingProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrEmbeddingProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrEmbeddingProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrEmbeddingProvider, resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", shared.ErrEmbeddingProvider, err)
	}

	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: response contained no embedding", shared.ErrEmbeddingProvider)
	}

	vector := parsed.Data[0].Embedding
	if e.dimensions > 0 && len(vector) != e.dimensions {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", shared.ErrEmbeddingProvider, e.dimensions, len(vector))
	}

	return vector, nil
}

var _ Embedder = (*EmbeddingService)(nil)
