package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/resona-fm/resona/internal/formatter"
	"github.com/resona-fm/resona/internal/models"
	"github.com/resona-fm/resona/internal/server"
	"github.com/resona-fm/resona/internal/shared"
)

// Serve runs the enrichment HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(); err != nil {
		return err
	}

	serverConfig := r.config.Server
	if port := cmd.Int("port"); port > 0 {
		serverConfig.Port = port
	}

	handler := server.NewEnrichmentHandler(ctx, r.manager, r.searcher, r.tracks, r.logger)
	return server.Serve(ctx, serverConfig, handler, r.logger)
}

// ResolveRun submits a resolution task, optionally blocking until it finishes.
func (r *Runner) ResolveRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(); err != nil {
		return err
	}

	task, _, err := r.manager.Submit(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("failed to submit resolution task: %w", err)
	}

	if cmd.Bool("wait") && !task.Status.Terminal() {
		r.logger.Info("waiting for resolution task", "task", task.ID)
		if task, err = r.waitForTask(ctx, task.ID); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(task, true)
	}
	return r.writeBytes(formatter.TaskText(task))
}

// waitForTask polls the task until it reaches a terminal state.
func (r *Runner) waitForTask(ctx context.Context, id string) (*models.ResolutionTask, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			task, err := r.manager.Status(id)
			if err != nil {
				return nil, err
			}
			if task.Status.Terminal() {
				return task, nil
			}
		}
	}
}

// ResolveStatus shows the status of a resolution task.
func (r *Runner) ResolveStatus(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	if err := r.init(); err != nil {
		return err
	}

	task, err := r.manager.Status(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(task, true)
	}
	return r.writeBytes(formatter.TaskText(task))
}

// ResolveStop requests a cooperative stop of a resolution task.
func (r *Runner) ResolveStop(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	if err := r.init(); err != nil {
		return err
	}

	task, err := r.manager.RequestStop(id)
	if err != nil {
		return err
	}

	return r.writeBytes(formatter.TaskText(task))
}

// Search queries the catalog by natural-language text.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if err := r.init(); err != nil {
		return err
	}

	results, err := r.searcher.Search(ctx, query, cmd.Int("limit"), cmd.Bool("exclude-explicit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		data, err := formatter.SearchResultsJSON(results)
		if err != nil {
			return err
		}
		return r.writeBytes(append(data, '\n'))
	}
	return r.writeBytes(formatter.SearchResultsText(query, results))
}

// Embed backfills embeddings for tracks missing them.
//
// Provider failures on individual tracks are logged and counted rather than
// aborting the run.
func (r *Runner) Embed(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(); err != nil {
		return err
	}

	pending, err := r.tracks.MissingEmbeddings(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to select tracks: %w", err)
	}

	if len(pending) == 0 {
		return r.writePlain("All tracks are embedded.\n")
	}

	embedded, failed := 0, 0
	for i, track := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Info("embedding track", "step", i+1, "total", len(pending), "track", track.ID)

		vector, err := r.embedder.Embed(ctx, track.EmbeddingText())
		if err != nil {
			r.logger.Warn("embedding failed", "track", track.ID, "error", err)
			failed++
			continue
		}
		if err := r.tracks.UpsertEmbedding(track.ID, vector); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
		embedded++
	}

	return r.writePlain("Embedded %d tracks (%d failed).\n", embedded, failed)
}

// Stats shows catalog enrichment statistics.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(); err != nil {
		return err
	}

	stats, err := r.tracks.Statistics()
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	return r.writeBytes(formatter.StatsText(stats))
}

// trackImport is the JSON shape accepted by the import command.
type trackImport struct {
	Title          string   `json:"title"`
	Artist         string   `json:"artist"`
	Album          string   `json:"album"`
	Explicit       bool     `json:"explicit"`
	Popularity     int      `json:"popularity"`
	ReleaseDate    string   `json:"releaseDate"`
	SeedPlatform   string   `json:"seedPlatform"`
	SeedPlatformID string   `json:"seedPlatformId"`
	Genres         []string `json:"genres"`
}

// Import loads tracks from a JSON file into the catalog.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: input file", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var imports []trackImport
	if err := json.Unmarshal(data, &imports); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}

	if err := r.init(); err != nil {
		return err
	}

	created := 0
	for _, in := range imports {
		seedPlatform := models.PlatformSpotify
		if in.SeedPlatform != "" {
			if seedPlatform, err = models.ParsePlatform(in.SeedPlatform); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrUnknownPlatform, err)
			}
		}

		track := &models.Track{
			Title:          in.Title,
			Artist:         in.Artist,
			Album:          in.Album,
			Explicit:       in.Explicit,
			Popularity:     in.Popularity,
			ReleaseDate:    in.ReleaseDate,
			SeedPlatform:   seedPlatform,
			SeedPlatformID: in.SeedPlatformID,
			Genres:         in.Genres,
		}
		if err := r.tracks.Create(track); err != nil {
			return fmt.Errorf("failed to import %q: %w", in.Title, err)
		}
		created++
	}

	return r.writePlain("Imported %d tracks.\n", created)
}

// Export writes the catalog to a CSV file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(); err != nil {
		return err
	}

	tracks, err := r.tracks.All(0)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	path, err := formatter.WriteCSVExport(tracks, cmd.String("output"))
	if err != nil {
		return err
	}

	return r.writePlain("Exported %d tracks to %s\n", len(tracks), path)
}
