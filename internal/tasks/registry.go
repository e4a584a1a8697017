package tasks

import (
	"sync"

	"github.com/resona-fm/resona/internal/models"
)

// Registry stores resolution task records.
//
// Every read returns an independent snapshot; callers never observe a record
// mid-update. The interface exists so the in-memory store can be swapped for
// a persistent one without touching the manager.
type Registry interface {
	// Put stores a new task record.
	Put(task *models.ResolutionTask)

	// Get returns a snapshot of the task with the given id.
	Get(id string) (*models.ResolutionTask, bool)

	// Active returns a snapshot of the task currently holding the
	// single-flight slot, if any.
	Active() (*models.ResolutionTask, bool)

	// Update applies fn to the stored record under the registry lock and
	// returns a snapshot of the result.
	Update(id string, fn func(*models.ResolutionTask)) (*models.ResolutionTask, bool)
}

// memoryRegistry is the process-local Registry implementation.
type memoryRegistry struct {
	mu    sync.Mutex
	tasks map[string]*models.ResolutionTask
}

// NewMemoryRegistry creates an empty in-memory task registry.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{tasks: make(map[string]*models.ResolutionTask)}
}

func (r *memoryRegistry) Put(task *models.ResolutionTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task.Clone()
}

func (r *memoryRegistry) Get(id string) (*models.ResolutionTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	return task.Clone(), ok
}

func (r *memoryRegistry) Active() (*models.ResolutionTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range r.tasks {
		if task.Status.Active() {
			return task.Clone(), true
		}
	}
	return nil, false
}

func (r *memoryRegistry) Update(id string, fn func(*models.ResolutionTask)) (*models.ResolutionTask, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, false
	}
	fn(task)
	return task.Clone(), true
}
