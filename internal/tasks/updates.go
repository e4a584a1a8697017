package tasks

import (
	"fmt"

	"github.com/resona-fm/resona/internal/models"
)

// ProgressUpdate represents a progress event during a resolution run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SelectCandidates Phase = iota
	ResolveTracks
	Finalize
)

func (p Phase) String() string {
	switch p {
	case SelectCandidates:
		return "select_candidates"
	case ResolveTracks:
		return "resolve_tracks"
	case Finalize:
		return "finalize"
	default:
		return ""
	}
}

func selectedCandidatesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectCandidates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %d tracks needing resolution", total),
	}
}

func resolvingTrackUpdate(step, total int, track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.Artist, track.Title),
		Data:    track,
	}
}

func trackFailedUpdate(step, total int, track *models.Track, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: %v", step, total, track.Artist, track.Title, err),
	}
}

func finishedUpdate(task *models.ResolutionTask) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finalize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolution %s: %d processed, %d failed", task.Status, task.Processed, task.Failed),
		Data:    task,
	}
}
