// Package app provides the application context and dependency management
// for the airsync CLI: configuration, logging, and the lazily built
// sync client with everything it talks to.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/github"
	"github.com/agentstation/airsync/internal/server"
	"github.com/agentstation/airsync/pkg/airtable"
	"github.com/agentstation/airsync/pkg/applicants"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/journalclub"
	"github.com/agentstation/airsync/pkg/mailinglist"
	"github.com/agentstation/airsync/pkg/metrics"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/notify/sendgrid"
	"github.com/agentstation/airsync/pkg/notify/slack"
	"github.com/agentstation/airsync/pkg/rfd"
	"github.com/agentstation/airsync/pkg/store"
)

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// baseEnv names the variable that configures each entity's base.
var baseEnv = map[string]string{
	journalclub.Entity: "AIRTABLE_BASE_ID_MISC",
	rfd.Entity:         "AIRTABLE_BASE_ID_RACK_ROADMAP",
	mailinglist.Entity: "AIRTABLE_BASE_ID_CUSTOMER_LEADS",
	applicants.Entity:  "AIRTABLE_BASE_ID_RECRUITING_APPLICATIONS",
}

// App represents the airsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	metrics *metrics.Observer

	// lazily built dependencies
	mu      sync.Mutex
	client  airsync.Client
	db      *store.DB
	mirrors map[string]mirror.Mirror // by base id
	blob    blob.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		metrics: metrics.New(),
		mirrors: make(map[string]mirror.Mirror),
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format flag or configured format.
func (a *App) OutputFormat() string { return a.config.Format }

// Metrics returns the observer shared by every sync run.
func (a *App) Metrics() *metrics.Observer { return a.metrics }

// AutoSyncInterval returns the configured background sync period.
func (a *App) AutoSyncInterval() time.Duration { return a.config.AutoSyncInterval }

// ServerConfig returns the health and metrics server settings.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if a.config.ServerHost != "" {
		cfg.Host = a.config.ServerHost
	}
	if a.config.ServerPort > 0 {
		cfg.Port = a.config.ServerPort
	}
	if a.config.AutoSyncInterval > 0 {
		cfg.StaleAfter = 3 * a.config.AutoSyncInterval
	}
	return cfg
}

// Tables returns the configured remote table names of entity.
func (a *App) Tables(entity string) []string {
	return a.config.Airtable.Tables[entity]
}

// Mirror returns the Airtable base that holds entity's tables. Clients are
// shared between entities living in the same base.
func (a *App) Mirror(entity string) (mirror.Mirror, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mirrorLocked(entity)
}

func (a *App) mirrorLocked(entity string) (mirror.Mirror, error) {
	base := a.config.Airtable.Bases[entity]
	if base == "" {
		return nil, errors.NewConfigError("airtable", fmt.Sprintf("%s is not set", baseEnv[entity]), nil)
	}
	if m, ok := a.mirrors[base]; ok {
		return m, nil
	}
	if a.config.Airtable.APIKey == "" {
		return nil, errors.NewConfigError("airtable", "AIRTABLE_API_KEY is not set", errors.ErrAPIKeyRequired)
	}
	m, err := airtable.New(a.config.Airtable.APIKey, base, airtable.WithTypecast(true))
	if err != nil {
		return nil, err
	}
	a.mirrors[base] = m
	return m, nil
}

// Blob returns the backup store, opening it on first use.
func (a *App) Blob(ctx context.Context) (blob.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.blob != nil {
		return a.blob, nil
	}
	s, err := blob.Open(ctx, a.config.Blob)
	if err != nil {
		return nil, errors.WrapResource("open", "blob store", string(a.config.Blob.Driver), err)
	}
	a.blob = s
	return s, nil
}

// Client returns the sync client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client(ctx context.Context) (airsync.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	if a.db == nil {
		db, err := store.Open(ctx, a.config.Store)
		if err != nil {
			return nil, errors.WrapResource("open", "store", a.config.Store.Driver, err)
		}
		a.db = db
	}

	opts, err := a.buildClientOptions()
	if err != nil {
		return nil, err
	}
	c, err := airsync.New(append([]airsync.Option{airsync.WithStore(a.db)}, opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	return c, nil
}

// buildClientOptions constructs client options from the app configuration.
// Entities whose base is not configured are left without a mirror and fail
// only when selected.
func (a *App) buildClientOptions() ([]airsync.Option, error) {
	cfg := a.config
	bases := make(map[string]mirror.Mirror)
	for _, entity := range airsync.Entities() {
		if cfg.Airtable.Bases[entity] == "" {
			a.logger.Debug().Str("entity", entity).Msg("No Airtable base configured")
			continue
		}
		m, err := a.mirrorLocked(entity)
		if err != nil {
			return nil, err
		}
		bases[entity] = m
	}

	opts := []airsync.Option{
		airsync.WithBases(bases),
		airsync.WithObserver(a.metrics),
	}
	if cfg.AutoSyncInterval > 0 {
		opts = append(opts, airsync.WithAutoSyncInterval(cfg.AutoSyncInterval))
	}
	if cfg.Concurrency > 0 {
		opts = append(opts, airsync.WithConcurrency(cfg.Concurrency))
	}
	for entity, names := range cfg.Airtable.Tables {
		opts = append(opts, airsync.WithTables(entity, names...))
	}
	if cfg.SlackWebhookURL != "" {
		opts = append(opts, airsync.WithSlack(slack.NewWebhook(cfg.SlackWebhookURL)))
	}
	if cfg.SendGridAPIKey != "" {
		opts = append(opts, airsync.WithSendGrid(sendgrid.New(cfg.SendGridAPIKey, cfg.EmailDomain)))
	}
	if cfg.GitHubOrg != "" {
		opts = append(opts, airsync.WithGitHub(github.New(cfg.GitHubToken), cfg.GitHubOrg))
	}
	if cfg.SubscribersCSV != "" {
		opts = append(opts, airsync.WithSubscribersCSV(cfg.SubscribersCSV))
	}
	if len(cfg.ApplicantSheets) > 0 {
		sheets := make([]airsync.ApplicantSheet, 0, len(cfg.ApplicantSheets))
		for _, s := range cfg.ApplicantSheets {
			sheets = append(sheets, airsync.ApplicantSheet{
				Sheet: applicants.Sheet{Role: s.Role, ID: s.ID},
				Path:  s.Path,
			})
		}
		opts = append(opts, airsync.WithApplicantSheets(sheets...))
	}
	return opts, nil
}

// Shutdown stops background syncs and closes the Local Store.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		if err := a.client.AutoSyncOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto-sync during shutdown")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return errors.WrapResource("close", "store", a.config.Store.Driver, err)
		}
		a.db = nil
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(c airsync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
