package core

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/plugin-host/internal/assets"
	"github.com/vrsandeep/plugin-host/internal/config"
	"github.com/vrsandeep/plugin-host/internal/db"
	"github.com/vrsandeep/plugin-host/internal/jobs"
	"github.com/vrsandeep/plugin-host/internal/logging"
	"github.com/vrsandeep/plugin-host/internal/metrics"
	"github.com/vrsandeep/plugin-host/internal/registry"
	"github.com/vrsandeep/plugin-host/internal/store"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	config     *config.Config
	db         *sql.DB
	store      *store.Store
	registry   *registry.Registry
	metrics    *metrics.Collector
	jobManager *jobs.JobManager
	Version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app, err := NewWithDB(cfg, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	log.Debug("Core application setup complete.")
	return app, nil
}

// NewWithDB wires the application around an already migrated database.
func NewWithDB(cfg *config.Config, database *sql.DB) (*App, error) {
	hostSDK, err := cfg.HostSDK()
	if err != nil {
		return nil, fmt.Errorf("invalid host SDK version: %w", err)
	}
	hostMinimum, err := cfg.HostMinimumSDK()
	if err != nil {
		return nil, fmt.Errorf("invalid host minimum SDK version: %w", err)
	}

	st := store.New(database)
	reg := registry.New(registry.Options{
		Root:           cfg.Plugins.Path,
		HostSDK:        hostSDK,
		HostMinimumSDK: hostMinimum,
	}, st, registry.NewVersionTracker(st))

	collector := metrics.New(reg.ActiveCount)
	collector.WatchDB(database, "plugin_host")
	reg.AddReporter(collector)

	app := &App{
		config:   cfg,
		db:       database,
		store:    st,
		registry: reg,
		metrics:  collector,
		Version:  "dev",
	}
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterDefaultJobs(app.jobManager)
	return app, nil
}

func (a *App) Config() *config.Config { return a.config }

func (a *App) DB() *sql.DB { return a.db }

func (a *App) Store() *store.Store { return a.store }

// Registry returns the plugin registry behind the Manager interface.
func (a *App) Registry() registry.Manager { return a.registry }

// Plugins returns the concrete registry, for wiring that needs more than Manager.
func (a *App) Plugins() *registry.Registry { return a.registry }

func (a *App) Metrics() *metrics.Collector { return a.metrics }

func (a *App) JobManager() *jobs.JobManager { return a.jobManager }

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

var _ jobs.JobContext = (*App)(nil)
