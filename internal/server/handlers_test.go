package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/search"
	"github.com/resona-fm/resona/internal/shared"
	"github.com/resona-fm/resona/internal/tasks"
)

type mockManager struct {
	active    *models.ResolutionTask
	submitted *models.ResolutionTask
	statuses  map[string]*models.ResolutionTask
	submitErr error
	stopCalls int
}

func (m *mockManager) Submit(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.ResolutionTask, bool, error) {
	if m.submitErr != nil {
		return nil, false, m.submitErr
	}
	if m.active != nil {
		return m.active, true, nil
	}
	return m.submitted, false, nil
}

func (m *mockManager) Status(id string) (*models.ResolutionTask, error) {
	task, ok := m.statuses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return task, nil
}

func (m *mockManager) RequestStop(id string) (*models.ResolutionTask, error) {
	m.stopCalls++
	task, ok := m.statuses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	stopped := task.Clone()
	stopped.Status = models.TaskStopping
	return stopped, nil
}

type mockSearcher struct {
	results   []search.Result
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockSearcher) Search(ctx context.Context, text string, limit int, excludeExplicit bool) ([]search.Result, error) {
	m.lastQuery = text
	m.lastLimit = limit
	return m.results, m.err
}

type mockStats struct {
	stats *models.CatalogStats
	err   error
}

func (m *mockStats) Statistics() (*models.CatalogStats, error) {
	return m.stats, m.err
}

// newTestRouter mounts an EnrichmentHandler on a BasicRouter the way Serve
// does, so tests exercise routing and method dispatch too.
func newTestRouter(manager *mockManager, searcher *mockSearcher, stats *mockStats) *BasicRouter {
	if manager == nil {
		manager = &mockManager{}
	}
	if searcher == nil {
		searcher = &mockSearcher{}
	}
	if stats == nil {
		stats = &mockStats{stats: &models.CatalogStats{}}
	}
	logger := shared.NewLogger(nil)
	router := NewBasicRouter()
	router.Handler(NewEnrichmentHandler(context.Background(), manager, searcher, stats, logger))
	return router
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) *models.ResolutionTask {
	t.Helper()
	var task models.ResolutionTask
	if err := json.NewDecoder(rec.Body).Decode(&task); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &task
}

func TestEnrichmentHandler_Resolution(t *testing.T) {
	t.Run("submit returns 202 for a fresh task", func(t *testing.T) {
		manager := &mockManager{
			submitted: &models.ResolutionTask{ID: "t1", Status: models.TaskQueued, Total: 5},
		}
		router := newTestRouter(manager, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/resolution", nil))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if task := decodeTask(t, rec); task.ID != "t1" || task.Total != 5 {
			t.Errorf("unexpected task: %+v", task)
		}
	})

	t.Run("submit returns 200 when a task is already active", func(t *testing.T) {
		manager := &mockManager{
			active: &models.ResolutionTask{ID: "running", Status: models.TaskProcessing},
		}
		router := newTestRouter(manager, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/resolution", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if task := decodeTask(t, rec); task.ID != "running" {
			t.Errorf("expected the active task back, got %s", task.ID)
		}
	})

	t.Run("submit rejects GET", func(t *testing.T) {
		router := newTestRouter(nil, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resolution", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("status returns the task", func(t *testing.T) {
		manager := &mockManager{statuses: map[string]*models.ResolutionTask{
			"t1": {ID: "t1", Status: models.TaskProcessing, Total: 10, Processed: 4},
		}}
		router := newTestRouter(manager, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resolution/t1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if task := decodeTask(t, rec); task.Processed != 4 {
			t.Errorf("unexpected task: %+v", task)
		}
	})

	t.Run("status returns 404 for unknown task", func(t *testing.T) {
		router := newTestRouter(&mockManager{}, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/resolution/missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("stop transitions the task", func(t *testing.T) {
		manager := &mockManager{statuses: map[string]*models.ResolutionTask{
			"t1": {ID: "t1", Status: models.TaskProcessing},
		}}
		router := newTestRouter(manager, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/resolution/t1/stop", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if manager.stopCalls != 1 {
			t.Errorf("expected 1 stop call, got %d", manager.stopCalls)
		}
		if task := decodeTask(t, rec); task.Status != models.TaskStopping {
			t.Errorf("expected stopping, got %s", task.Status)
		}
	})

	t.Run("POST without stop suffix is 404", func(t *testing.T) {
		manager := &mockManager{statuses: map[string]*models.ResolutionTask{
			"t1": {ID: "t1", Status: models.TaskProcessing},
		}}
		router := newTestRouter(manager, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/resolution/t1", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if manager.stopCalls != 0 {
			t.Errorf("expected no stop calls, got %d", manager.stopCalls)
		}
	})
}

func TestEnrichmentHandler_Search(t *testing.T) {
	t.Run("returns results", func(t *testing.T) {
		score := 0.92
		searcher := &mockSearcher{results: []search.Result{
			{Track: &models.Track{ID: "tr1", Title: "Hit"}, Score: &score},
		}}
		router := newTestRouter(nil, searcher, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=summer+vibes&limit=5", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if searcher.lastQuery != "summer vibes" || searcher.lastLimit != 5 {
			t.Errorf("unexpected search args: %q limit %d", searcher.lastQuery, searcher.lastLimit)
		}

		var body struct {
			Query   string          `json:"query"`
			Results []search.Result `json:"results"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(body.Results) != 1 || body.Results[0].Track.ID != "tr1" {
			t.Errorf("unexpected results: %+v", body.Results)
		}
	})

	t.Run("missing query is 400", func(t *testing.T) {
		router := newTestRouter(nil, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid limit is 400", func(t *testing.T) {
		router := newTestRouter(nil, nil, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=x&limit=zero", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("search failure is 500", func(t *testing.T) {
		searcher := &mockSearcher{err: fmt.Errorf("catalog unavailable")}
		router := newTestRouter(nil, searcher, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestEnrichmentHandler_Statistics(t *testing.T) {
	stats := &mockStats{stats: &models.CatalogStats{
		TotalTracks:    42,
		EmbeddedTracks: 30,
		PlatformCoverage: map[models.Platform]int{
			models.PlatformYouTube: 12,
		},
	}}
	router := newTestRouter(nil, nil, stats)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body models.CatalogStats
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.TotalTracks != 42 || body.PlatformCoverage[models.PlatformYouTube] != 12 {
		t.Errorf("unexpected stats: %+v", body)
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodPost, "/only-post", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/only-post", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/only-post", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("methods share a path", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/shared", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		router.Handle(http.MethodPost, "/shared", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shared", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 for GET, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shared", nil))
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201 for POST, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/shared", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for DELETE, got %d", rec.Code)
		}
	})

	t.Run("middleware applies in order", func(t *testing.T) {
		router := NewBasicRouter()
		var order []string

		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "first")
				next.ServeHTTP(w, r)
			})
		})
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, "second")
				next.ServeHTTP(w, r)
			})
		})
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		want := []string{"first", "second", "handler"}
		for i := range want {
			if i >= len(order) || order[i] != want[i] {
				t.Fatalf("unexpected middleware order: %v", order)
			}
		}
	})

	t.Run("recoverer converts panics to 500", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recoverer(shared.NewLogger(nil)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}
