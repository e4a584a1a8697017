package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/resona-fm/resona/internal/shared"
	"github.com/resona-fm/resona/internal/ui"
)

// watchTarget picks the task the watch view should attach to.
//
// An explicit id is validated against the registry. With no id it attaches to
// the active task, and when nothing is running it submits a fresh resolution
// run so watch always has something to show.
func (r *Runner) watchTarget(id string) (string, error) {
	if id != "" {
		if _, err := r.manager.Status(id); err != nil {
			return "", err
		}
		return id, nil
	}

	if active, ok := r.manager.Active(); ok {
		return active.ID, nil
	}

	task, _, err := r.manager.Submit(context.Background(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to submit resolution task: %w", err)
	}
	return task.ID, nil
}

// Watch launches the interactive watch view for a resolution task.
//
// Without an id argument it attaches to the active task, submitting a new run
// when none is in flight.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(); err != nil {
		return err
	}

	id, err := r.watchTarget(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if err := shared.RedirectToFile(r.logger, "./tmp/resona-tui.log"); err != nil {
		return err
	}

	model := ui.NewModel(r.manager, id)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
