package core

import (
	"context"
	"database/sql"
	"sort"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/assets"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/db"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"github.com/vrsandeep/xwc-settings/internal/jobs"
	"github.com/vrsandeep/xwc-settings/internal/plugins"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/settingsapi"
	"github.com/vrsandeep/xwc-settings/internal/store"
	"github.com/vrsandeep/xwc-settings/internal/websocket"
	"gitlab.com/tozd/go/errors"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	Version string

	config     *config.Config
	db         *sql.DB
	options    store.Options
	closers    []func()
	format     codec.Format
	settings   *settings.Synchronized
	fields     *fields.Registry
	plugins    *plugins.PluginManager
	pages      map[string]*settingsapi.Page
	forms      map[string]*settingsapi.Form
	jobManager *jobs.JobManager
	wsHub      *websocket.Hub
	log        zerolog.Logger
}

// New sets up and returns a new App instance. It opens the options store
// named by cfg, runs migrations, loads field plugins and builds the
// settings repository.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	switch cfg.Database.Driver {
	case "postgres":
		if err := db.RunPostgresMigrations(cfg.Database.URL, assets.MigrationsFS); err != nil {
			return nil, errors.Errorf("failed to run database migrations: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, errors.Errorf("failed to connect to postgres: %w", err)
		}
		app, err := build(ctx, cfg, nil, pg, log)
		if err != nil {
			pg.Close()
			return nil, err
		}
		app.closers = append(app.closers, pg.Close)
		return app, nil
	default:
		database, err := db.InitDB(cfg.Database.Path)
		if err != nil {
			return nil, errors.Errorf("failed to initialize database: %w", err)
		}
		app, err := NewWithDB(ctx, cfg, database, log)
		if err != nil {
			database.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() { database.Close() })
		return app, nil
	}
}

// NewWithDB builds an App on an already open sqlite database. The caller
// keeps ownership of database.
func NewWithDB(ctx context.Context, cfg *config.Config, database *sql.DB, log zerolog.Logger) (*App, error) {
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		return nil, errors.Errorf("failed to run database migrations: %w", err)
	}
	return build(ctx, cfg, database, store.New(database), log)
}

func build(ctx context.Context, cfg *config.Config, database *sql.DB, options store.Options, log zerolog.Logger) (*App, error) {
	format, err := codec.ParseFormat(cfg.Database.ValueFormat)
	if err != nil {
		return nil, err
	}

	app := &App{
		Version:    "dev",
		config:     cfg,
		db:         database,
		options:    options,
		format:     format,
		fields:     fields.NewDefaultRegistry(),
		pages:      make(map[string]*settingsapi.Page),
		forms:      make(map[string]*settingsapi.Form),
		jobManager: jobs.NewManager(log),
		wsHub:      websocket.NewHub(),
		log:        log,
	}
	app.wsHub.SetLogger(log)
	jobs.RegisterDefaults(app.jobManager)

	app.plugins = plugins.NewPluginManager(cfg.Plugins.Path, log)
	if err := app.plugins.LoadPlugins(ctx, app.fields); err != nil {
		log.Warn().Err(err).Msg("Failed to load plugins")
	}

	for _, pc := range cfg.Pages {
		pc.NestedFields = append(pc.NestedFields, cfg.Settings.NestedFields...)
		app.pages[pc.ID] = settingsapi.NewPage(pc, app.fields, format)
	}

	if len(cfg.Forms) > 0 && cfg.Settings.API == "" {
		return nil, errors.New("forms need settings.api to name the owning plugin")
	}
	defaults := settings.Branch{}
	for _, fc := range cfg.Forms {
		form, err := settingsapi.NewForm(settingsapi.FormKind(fc.Kind), cfg.Settings.API, fc.ID, fc.Fields)
		if err != nil {
			return nil, err
		}
		form.Title = fc.Title
		form.Description = fc.Description
		form.Format = format
		form.Registry = app.fields
		app.forms[fc.ID] = form
		defaults[fc.ID] = formDefaults(form)
	}

	repo, err := settings.New(ctx, options,
		settings.Groups{Page: cfg.Settings.Page, API: cfg.Settings.API},
		settings.WithFormat(format),
		settings.WithLogger(log),
		settings.WithDefaults(defaults),
	)
	if err != nil {
		return nil, errors.Errorf("failed to load settings: %w", err)
	}
	app.settings = settings.NewSynchronized(repo)

	log.Info().
		Str("page", cfg.Settings.Page).
		Str("api", cfg.Settings.API).
		Int("fields", len(app.fields.List())).
		Msg("Core application setup complete.")
	return app, nil
}

// formDefaults turns the field defaults of a form into a settings branch,
// coerced the way loaded values are.
func formDefaults(form *settingsapi.Form) settings.Branch {
	out := settings.Branch{}
	for _, p := range form.Defaults().Pairs() {
		out[codec.KeyString(p.Key)] = settings.Leaf{Value: settings.ParseOption(p.Value)}
	}
	return out
}

func (a *App) Config() *config.Config           { return a.config }
func (a *App) DB() *sql.DB                      { return a.db }
func (a *App) Options() store.Options           { return a.options }
func (a *App) Format() codec.Format             { return a.format }
func (a *App) Settings() settings.Config        { return a.settings }
func (a *App) Fields() *fields.Registry         { return a.fields }
func (a *App) Plugins() *plugins.PluginManager  { return a.plugins }
func (a *App) JobManager() *jobs.JobManager     { return a.jobManager }
func (a *App) WsHub() *websocket.Hub            { return a.wsHub }
func (a *App) Logger() zerolog.Logger           { return a.log }
func (a *App) Page(id string) *settingsapi.Page { return a.pages[id] }
func (a *App) Form(id string) *settingsapi.Form { return a.forms[id] }

// PageIDs lists the configured settings pages.
func (a *App) PageIDs() []string {
	ids := make([]string, 0, len(a.pages))
	for id := range a.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FormIDs lists the configured settings API forms.
func (a *App) FormIDs() []string {
	ids := make([]string, 0, len(a.forms))
	for id := range a.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
