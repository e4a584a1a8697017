package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/resona-fm/resona/internal/genres"
	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/services"
	"github.com/resona-fm/resona/internal/shared"
)

// TrackStore is the slice of the catalog the resolution worker reads and writes.
type TrackStore interface {
	Unresolved(limit int) ([]*models.Track, error)
	UpsertGenres(trackID string, genres []string) error
}

// LinkStore persists resolved platform links.
type LinkStore interface {
	UpsertLinks(trackID string, links []models.PlatformLink) error
}

// Options tune the resolution worker loop.
type Options struct {
	BatchSize      int           // tracks per batch
	CandidateLimit int           // max tracks selected per run, 0 for no cap
	TrackDelay     time.Duration // fixed pause between tracks
	MaxRetries     int           // retry budget per track for transient errors
	BaseBackoff    time.Duration // first retry delay, doubled per attempt
	RequestsPerSec float64       // token-bucket rate for outbound calls
}

// OptionsFromConfig maps the jobs configuration onto worker options.
func OptionsFromConfig(cfg shared.JobsConfig) Options {
	return Options{
		BatchSize:      cfg.BatchSize,
		CandidateLimit: cfg.CandidateLimit,
		TrackDelay:     cfg.TrackDelay(),
		MaxRetries:     cfg.MaxRetries,
		BaseBackoff:    cfg.BaseBackoff(),
		RequestsPerSec: cfg.RequestsPerSec,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = time.Second
	}
	if o.RequestsPerSec <= 0 {
		o.RequestsPerSec = 2
	}
	return o
}

// Manager owns the single-flight resolution job.
type Manager struct {
	resolver services.LinkResolver
	tracks   TrackStore
	links    LinkStore
	registry Registry
	limiter  *rate.Limiter
	opts     Options
	logger   *log.Logger

	mu       sync.Mutex
	stop     chan struct{}
	stopOnce *sync.Once
	stopID   string // task owning the stop channel
}

// NewManager creates a resolution task manager.
func NewManager(resolver services.LinkResolver, tracks TrackStore, links LinkStore, registry Registry, opts Options, logger *log.Logger) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		resolver: resolver,
		tracks:   tracks,
		links:    links,
		registry: registry,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		opts:     opts,
		logger:   logger,
	}
}

// Submit starts a resolution run, or returns the task already holding the
// single-flight slot. The second return reports whether an existing task was
// returned instead of a fresh one.
//
// Candidates are selected before the task is created, so Total is fixed for
// the task's lifetime. When nothing needs resolution the task completes
// immediately without launching a worker. The worker runs on ctx; callers
// submitting from a request handler should pass a long-lived context, not the
// request's.
func (m *Manager) Submit(ctx context.Context, progress chan<- ProgressUpdate) (*models.ResolutionTask, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if active, ok := m.registry.Active(); ok {
		return active, true, nil
	}

	candidates, err := m.tracks.Unresolved(m.opts.CandidateLimit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to select resolution candidates: %w", err)
	}

	now := time.Now()
	task := &models.ResolutionTask{
		ID:          shared.GenerateID(),
		Status:      models.TaskQueued,
		Total:       len(candidates),
		CreatedAt:   now,
		LastUpdated: now,
	}

	if len(candidates) == 0 {
		task.Status = models.TaskCompleted
		task.Message = "no tracks need resolution"
		m.registry.Put(task)
		return task.Clone(), false, nil
	}

	m.registry.Put(task)
	m.stop = make(chan struct{})
	m.stopOnce = &sync.Once{}
	m.stopID = task.ID

	m.logger.Info("resolution task submitted", "task", task.ID, "total", task.Total)
	go m.run(ctx, task.ID, candidates, m.stop, progress)

	return task.Clone(), false, nil
}

// Active returns a snapshot of the task currently holding the single-flight
// slot, if any.
func (m *Manager) Active() (*models.ResolutionTask, bool) {
	return m.registry.Active()
}

// Status returns a read-only snapshot of the task with the given id.
func (m *Manager) Status(id string) (*models.ResolutionTask, error) {
	task, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return task, nil
}

// RequestStop asks the running task to stop cooperatively.
//
// The task moves to stopping immediately; the worker finalizes it as stopped
// at the next item boundary. Stopping a task already in a terminal state is a
// no-op that returns the task unchanged, even when a later task has since
// taken the single-flight slot.
func (m *Manager) RequestStop(id string) (*models.ResolutionTask, error) {
	task, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}

	if task.Status.Terminal() {
		return task, nil
	}

	updated, _ := m.registry.Update(id, func(t *models.ResolutionTask) {
		if t.Status.CanTransition(models.TaskStopping) {
			t.Status = models.TaskStopping
			t.LastUpdated = time.Now()
		}
	})

	// The stop channel belongs to the most recently submitted task; only
	// close it when this request targets that task.
	m.mu.Lock()
	if m.stopOnce != nil && m.stopID == id {
		stop := m.stop
		m.stopOnce.Do(func() { close(stop) })
	}
	m.mu.Unlock()

	m.logger.Info("resolution stop requested", "task", id)
	return updated, nil
}

// run is the worker loop. It owns every status transition after queued.
func (m *Manager) run(ctx context.Context, id string, candidates []*models.Track, stop <-chan struct{}, progress chan<- ProgressUpdate) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	m.registry.Update(id, func(t *models.ResolutionTask) {
		if t.Status.CanTransition(models.TaskProcessing) && t.Status == models.TaskQueued {
			t.Status = models.TaskProcessing
			t.LastUpdated = time.Now()
		}
	})

	m.sendProgress(progress, selectedCandidatesUpdate(len(candidates)))

	total := len(candidates)
	interrupted := false

	for start := 0; start < total && !interrupted; start += m.opts.BatchSize {
		end := start + m.opts.BatchSize
		if end > total {
			end = total
		}
		m.logger.Debug("processing batch", "task", id, "from", start+1, "to", end)

		for i := start; i < end; i++ {
			if m.interrupted(runCtx, id) {
				interrupted = true
				break
			}

			track := candidates[i]
			m.sendProgress(progress, resolvingTrackUpdate(i+1, total, track))

			if err := m.limiter.Wait(runCtx); err != nil {
				interrupted = true
				break
			}

			if err := m.resolveTrack(runCtx, track); err != nil {
				if runCtx.Err() != nil {
					interrupted = true
					break
				}
				m.logger.Warn("track resolution failed", "task", id, "track", track.ID, "error", err)
				m.sendProgress(progress, trackFailedUpdate(i+1, total, track, err))
				m.registry.Update(id, func(t *models.ResolutionTask) {
					t.Failed++
					t.LastUpdated = time.Now()
				})
			} else {
				m.registry.Update(id, func(t *models.ResolutionTask) {
					t.Processed++
					t.LastUpdated = time.Now()
				})
			}

			if i < total-1 && m.opts.TrackDelay > 0 {
				if err := sleep(runCtx, m.opts.TrackDelay); err != nil {
					interrupted = true
					break
				}
			}
		}
	}

	final, _ := m.registry.Update(id, func(t *models.ResolutionTask) {
		switch {
		case interrupted || t.Status == models.TaskStopping:
			// A parent-context cancellation finalizes the same way as an
			// explicit stop request.
			t.Status = models.TaskStopped
			t.Message = fmt.Sprintf("stopped after %d of %d tracks", t.Processed+t.Failed, t.Total)
		case t.Processed == 0 && t.Total > 0:
			t.Status = models.TaskFailed
			t.Message = fmt.Sprintf("all %d tracks failed resolution", t.Total)
		default:
			t.Status = models.TaskCompleted
			t.Message = fmt.Sprintf("resolved %d of %d tracks", t.Processed, t.Total)
		}
		t.LastUpdated = time.Now()
	})

	m.logger.Info("resolution task finished", "task", id,
		"status", final.Status, "processed", final.Processed, "failed", final.Failed)
	m.sendProgress(progress, finishedUpdate(final))
}

// resolveTrack resolves one track and persists its links and genres.
func (m *Manager) resolveTrack(ctx context.Context, track *models.Track) error {
	resolved, err := m.resolveWithRetry(ctx, track)
	if err != nil {
		return err
	}

	links := make([]models.PlatformLink, 0, len(resolved))
	for _, r := range resolved {
		links = append(links, models.PlatformLink{
			TrackID:    track.ID,
			Platform:   r.Platform,
			PlatformID: r.PlatformID,
			URL:        r.URL,
		})
	}

	if err := m.links.UpsertLinks(track.ID, links); err != nil {
		return err
	}

	if len(track.Genres) == 0 {
		if err := m.tracks.UpsertGenres(track.ID, genres.Infer(track.Title)); err != nil {
			return err
		}
	}

	return nil
}

// resolveWithRetry calls the resolver, retrying transient failures with
// exponential backoff. A Retry-After hint from the server overrides the
// computed backoff when it is longer.
func (m *Manager) resolveWithRetry(ctx context.Context, track *models.Track) ([]services.ResolvedLink, error) {
	var lastErr error

	for attempt := 0; attempt <= m.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := m.opts.BaseBackoff << (attempt - 1)
			if hint := services.RetryAfterHint(lastErr); hint > backoff {
				backoff = hint
			}
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		resolved, err := m.resolver.Resolve(ctx, track.SeedPlatform, track.SeedPlatformID)
		if err == nil {
			return resolved, nil
		}

		lastErr = err
		if !services.IsTransient(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// interrupted reports whether the run should stop at this item boundary.
func (m *Manager) interrupted(ctx context.Context, id string) bool {
	if ctx.Err() != nil {
		return true
	}
	task, ok := m.registry.Get(id)
	return ok && task.Status == models.TaskStopping
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (m *Manager) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
