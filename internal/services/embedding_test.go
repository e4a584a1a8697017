package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/resona-fm/resona/internal/shared"
)

func newTestEmbedder(t *testing.T, dims int, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewEmbeddingService(shared.EmbeddingConfig{
		BaseURL:        srv.URL,
		APIKey:         "test_key",
		Model:          "test-model",
		Dimensions:     dims,
		TimeoutSeconds: 2,
	})
}

func TestEmbeddingService_Embed(t *testing.T) {
	t.Run("returns vector", func(t *testing.T) {
		svc := newTestEmbedder(t, 4, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/embeddings" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test_key" {
				t.Errorf("unexpected auth header: %s", auth)
			}

			var req embeddingRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req.Model != "test-model" {
				t.Errorf("unexpected model: %s", req.Model)
			}
			if len(req.Input) != 1 || req.Input[0] != "Good Vibes by The Suns" {
				t.Errorf("unexpected input: %v", req.Input)
			}

			io.WriteString(w, `{"data": [{"embedding": [0.1, 0.2, 0.3, 0.4]}]}`)
		})

		vector, err := svc.Embed(context.Background(), "Good Vibes by The Suns")
		if err != nil {
			t.Fatalf("embed failed: %v", err)
		}
		if len(vector) != 4 {
			t.Fatalf("expected 4 dimensions, got %d", len(vector))
		}
		if vector[2] != 0.3 {
			t.Errorf("unexpected vector element: %f", vector[2])
		}
	})

	t.Run("provider error on failure status", func(t *testing.T) {
		svc := newTestEmbedder(t, 0, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := svc.Embed(context.Background(), "anything")
		if !errors.Is(err, shared.ErrEmbeddingProvider) {
			t.Errorf("expected ErrEmbeddingProvider, got %v", err)
		}
	})

	t.Run("provider error on empty response", func(t *testing.T) {
		svc := newTestEmbedder(t, 0, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"data": []}`)
		})

		_, err := svc.Embed(context.Background(), "anything")
		if !errors.Is(err, shared.ErrEmbeddingProvider) {
			t.Errorf("expected ErrEmbeddingProvider, got %v", err)
		}
	})

	t.Run("provider error on dimension mismatch", func(t *testing.T) {
		svc := newTestEmbedder(t, 8, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"data": [{"embedding": [0.1, 0.2]}]}`)
		})

		_, err := svc.Embed(context.Background(), "anything")
		if !errors.Is(err, shared.ErrEmbeddingProvider) {
			t.Errorf("expected ErrEmbeddingProvider, got %v", err)
		}
	})

	t.Run("empty input is invalid", func(t *testing.T) {
		svc := newTestEmbedder(t, 0, func(w http.ResponseWriter, r *http.Request) {})

		_, err := svc.Embed(context.Background(), "")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Dimensions", func(t *testing.T) {
		svc := NewEmbeddingService(shared.EmbeddingConfig{Dimensions: 16})
		if svc.Dimensions() != 16 {
			t.Errorf("expected 16, got %d", svc.Dimensions())
		}
	})
}
