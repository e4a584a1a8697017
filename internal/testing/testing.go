// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/services"
)

// MockResolver is a test double for [services.LinkResolver].
//
// It returns the configured links for every seed, or Err when set.
type MockResolver struct {
	Links []services.ResolvedLink
	Err   error
	Calls int
}

func (m *MockResolver) Resolve(ctx context.Context, seed models.Platform, seedID string) ([]services.ResolvedLink, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Links, nil
}

func (m *MockResolver) Name() string { return "mock" }

// MockEmbedder is a test double for [services.Embedder].
//
// It returns the configured vector for every input, or Err when set.
type MockEmbedder struct {
	Vector []float64
	Err    error
	Calls  int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbedder) Dimensions() int { return len(m.Vector) }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
