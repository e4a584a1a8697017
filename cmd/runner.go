package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/resona-fm/resona/internal/repositories"
	"github.com/resona-fm/resona/internal/search"
	"github.com/resona-fm/resona/internal/services"
	"github.com/resona-fm/resona/internal/shared"
	"github.com/resona-fm/resona/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The catalog stack (database, repositories, services, task manager) is built
// lazily on first use so commands like setup and help never require an
// initialized database.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	db       *sql.DB
	tracks   *repositories.TrackRepository
	links    *repositories.PlatformLinkRepository
	resolver services.LinkResolver
	embedder services.Embedder
	manager  *tasks.Manager
	searcher *search.Service
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB, Resolver and Embedder may be injected for testing; when nil they are
// built from the configuration on first use.
type RunnerOpts struct {
	Config   *shared.Config
	Logger   *log.Logger
	Output   io.Writer
	DB       *sql.DB
	Resolver services.LinkResolver
	Embedder services.Embedder
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		logger:   opts.Logger,
		output:   opts.Output,
		db:       opts.DB,
		resolver: opts.Resolver,
		embedder: opts.Embedder,
	}
}

// init builds the catalog stack. Safe to call repeatedly.
func (r *Runner) init() error {
	if r.manager != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
	}

	r.tracks = repositories.NewTrackRepository(r.db)
	r.links = repositories.NewPlatformLinkRepository(r.db)

	if r.resolver == nil {
		r.resolver = services.NewSongLinkService(r.config.Resolver, r.logger)
	}
	if r.embedder == nil {
		r.embedder = services.NewEmbeddingService(r.config.Embedding)
	}

	r.manager = tasks.NewManager(
		r.resolver, r.tracks, r.links,
		tasks.NewMemoryRegistry(),
		tasks.OptionsFromConfig(r.config.Jobs),
		r.logger,
	)
	r.searcher = search.NewService(r.embedder, r.tracks, r.logger)

	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, resolveCommand, searchCommand,
		embedCommand, statsCommand, importCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
