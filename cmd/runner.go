package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/auth"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/recommend"
	"github.com/desertthunder/cratedig/internal/repositories"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/tasks"
	"github.com/desertthunder/cratedig/internal/ui"
	"github.com/urfave/cli/v3"
)

// Spotify is the provider client the commands run against.
type Spotify interface {
	services.Provider
	services.Authorizer
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The provider client and database are built from the loaded config on first use unless injected.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    Spotify
	db         *sql.DB
	ownsDB     bool
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    Spotify
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
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
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, whoamiCommand, recommendCommand, genresCommand, playlistCommand,
		serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Configure loads the file named by --config, keeping defaults when it does not exist.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := r.config.Log.ParsedLevel()
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		return r.db.Close()
	}
	return nil
}

// provider returns the Spotify client, building it from config on first use.
func (r *Runner) provider() (Spotify, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := services.NewSpotifyService(creds.Map(), services.SpotifyOptions{
		BaseURL:           r.config.Provider.BaseURL,
		Timeout:           r.config.Provider.Timeout(),
		RequestsPerSecond: r.config.Provider.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	r.spotify = svc
	return svc, nil
}

// database returns the migrated database, opening it on first use.
func (r *Runner) database(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	r.logger.Debug("opening database", "path", r.config.Database.Path)
	db, err := shared.OpenMigrated(ctx, r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db, r.ownsDB = db, true
	return db, nil
}

func (r *Runner) sessions(ctx context.Context) (*repositories.SessionRepository, error) {
	db, err := r.database(ctx)
	if err != nil {
		return nil, err
	}
	return repositories.NewSessionRepository(db), nil
}

func (r *Runner) playlists(ctx context.Context) (*repositories.PlaylistRepository, error) {
	db, err := r.database(ctx)
	if err != nil {
		return nil, err
	}
	return repositories.NewPlaylistRepository(db), nil
}

func (r *Runner) manager(spotify Spotify) *auth.Manager {
	return auth.NewManager(spotify, auth.Options{
		Coalesce: r.config.Auth.CoalesceRefreshes,
		Now:      r.now,
		Logger:   shared.WithLogger(r.logger, "component", "auth"),
	})
}

func (r *Runner) engine(spotify Spotify) *recommend.Engine {
	return recommend.NewEngine(spotify, r.manager(spotify), shared.WithLogger(r.logger, "component", "recommend"))
}

func (r *Runner) playlistEngine(spotify Spotify, records tasks.PlaylistRecorder) *tasks.PlaylistEngine {
	return tasks.NewPlaylistEngine(spotify, records, shared.WithLogger(r.logger, "component", "playlists"))
}

// currentSession loads the session named in config.
func (r *Runner) currentSession(ctx context.Context) (*models.Session, *repositories.SessionRepository, error) {
	id := r.config.Credentials.Spotify.SessionID
	if id == "" {
		return nil, nil, fmt.Errorf("%w: run 'cratedig login' first", shared.ErrNotAuthenticated)
	}

	repo, err := r.sessions(ctx)
	if err != nil {
		return nil, nil, err
	}

	session, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return nil, nil, fmt.Errorf("%w: session %s no longer exists, run 'cratedig login'", shared.ErrNotAuthenticated, id)
		}
		return nil, nil, err
	}
	return session, repo, nil
}

// persist writes a changed credential back to the session row.
func (r *Runner) persist(ctx context.Context, repo *repositories.SessionRepository, session *models.Session, result auth.Result) {
	if !result.Changed {
		return
	}
	if err := repo.SaveCredential(ctx, session.ID, result.Credential); err != nil {
		r.logger.Warn("failed to save credential", "session", session.ID, "error", err)
		return
	}
	session.Credential = result.Credential
}

// ensureSession loads the current session and refreshes its credential when expired.
func (r *Runner) ensureSession(ctx context.Context, spotify Spotify) (*models.Session, auth.Result, error) {
	session, repo, err := r.currentSession(ctx)
	if err != nil {
		return nil, auth.Result{}, err
	}

	result := r.manager(spotify).Ensure(ctx, session.Credential)
	r.persist(ctx, repo, session, result)
	if !result.OK() {
		return session, result, fmt.Errorf("%w: %v, run 'cratedig login'", shared.ErrRefreshFailed, result.Err)
	}
	return session, result, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n\n", ui.Styles.Title(title))
}
