package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/search"
	"github.com/resona-fm/resona/internal/shared"
	"github.com/resona-fm/resona/internal/tasks"
)

// defaultSearchLimit bounds search responses when the client sends no limit.
const defaultSearchLimit = 20

// TaskManager is the slice of the task manager the API exposes.
type TaskManager interface {
	Submit(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.ResolutionTask, bool, error)
	Status(id string) (*models.ResolutionTask, error)
	RequestStop(id string) (*models.ResolutionTask, error)
}

// Searcher answers track search queries.
type Searcher interface {
	Search(ctx context.Context, text string, limit int, excludeExplicit bool) ([]search.Result, error)
}

// StatsSource reports catalog enrichment coverage.
type StatsSource interface {
	Statistics() (*models.CatalogStats, error)
}

// EnrichmentHandler serves the enrichment JSON API.
//
// Resolution workers are launched on baseCtx rather than the request context,
// so a client disconnect never cancels a running batch.
type EnrichmentHandler struct {
	manager  TaskManager
	searcher Searcher
	stats    StatsSource
	baseCtx  context.Context
	logger   *log.Logger
}

// NewEnrichmentHandler creates the API handler.
func NewEnrichmentHandler(baseCtx context.Context, manager TaskManager, searcher Searcher, stats StatsSource, logger *log.Logger) *EnrichmentHandler {
	return &EnrichmentHandler{
		manager:  manager,
		searcher: searcher,
		stats:    stats,
		baseCtx:  baseCtx,
		logger:   logger,
	}
}

// Routes lists the enrichment API endpoints.
func (h *EnrichmentHandler) Routes() []Route {
	return []Route{
		{http.MethodPost, "/api/resolution", http.HandlerFunc(h.submitResolution)},
		{http.MethodGet, "/api/resolution/", http.HandlerFunc(h.resolutionStatus)},
		{http.MethodPost, "/api/resolution/", http.HandlerFunc(h.stopResolution)},
		{http.MethodGet, "/api/search", http.HandlerFunc(h.searchTracks)},
		{http.MethodGet, "/api/statistics", http.HandlerFunc(h.statistics)},
	}
}

// submitResolution starts a batch resolution run.
//
// Answers 202 for a fresh task and 200 when an already-active task holds the
// single-flight slot; the manager reports which case applied, so the status
// code always matches the returned task.
func (h *EnrichmentHandler) submitResolution(w http.ResponseWriter, r *http.Request) {
	task, existing, err := h.manager.Submit(h.baseCtx, nil)
	if err != nil {
		h.logger.Error("failed to submit resolution task", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to submit resolution task")
		return
	}

	status := http.StatusAccepted
	if existing {
		status = http.StatusOK
	}

	h.writeJSON(w, status, task)
}

func (h *EnrichmentHandler) resolutionStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/resolution/")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "task id is required")
		return
	}

	task, err := h.manager.Status(id)
	if err != nil {
		if errors.Is(err, shared.ErrTaskNotFound) {
			h.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("failed to read task status", "task", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to read task status")
		return
	}

	h.writeJSON(w, http.StatusOK, task)
}

func (h *EnrichmentHandler) stopResolution(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/resolution/")
	id, ok := strings.CutSuffix(path, "/stop")
	if !ok || id == "" {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}

	task, err := h.manager.RequestStop(id)
	if err != nil {
		if errors.Is(err, shared.ErrTaskNotFound) {
			h.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("failed to stop task", "task", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to stop task")
		return
	}

	h.writeJSON(w, http.StatusOK, task)
}

func (h *EnrichmentHandler) searchTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	excludeExplicit := false
	if raw := r.URL.Query().Get("exclude_explicit"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "exclude_explicit must be a boolean")
			return
		}
		excludeExplicit = parsed
	}

	results, err := h.searcher.Search(r.Context(), query, limit, excludeExplicit)
	if err != nil {
		h.logger.Error("search failed", "query", query, "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

func (h *EnrichmentHandler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Statistics()
	if err != nil {
		h.logger.Error("failed to compute statistics", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *EnrichmentHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		h.logger.Error("failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (h *EnrichmentHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
