package airsync

import (
	"time"

	"github.com/agentstation/airsync/pkg/applicants"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/notify/slack"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/rfd"
	"github.com/agentstation/airsync/pkg/store"
)

// Option is a function that configures a Client.
type Option func(*options) error

// options holds everything a Client is built from.
type options struct {
	store  *store.DB
	mirror mirror.Mirror
	bases  map[string]mirror.Mirror
	tables map[string][]string

	slack  slack.Poster
	mailer applicants.Mailer

	github      rfd.Repository
	githubOwner string

	subscribersCSV string
	applicantCSVs  []ApplicantSheet

	concurrency int
	observer    reconciler.Observer

	autoSyncEnabled  bool
	autoSyncInterval time.Duration
}

// ApplicantSheet is the CSV export of one role's application form.
type ApplicantSheet struct {
	applicants.Sheet
	Path string
}

func defaults() *options {
	return &options{
		bases:            make(map[string]mirror.Mirror),
		tables:           make(map[string][]string),
		concurrency:      constants.DefaultConcurrency,
		autoSyncInterval: constants.DefaultAutoSyncInterval,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithStore sets the Local Store every entity reads from.
func WithStore(db *store.DB) Option {
	return func(o *options) error {
		if db == nil {
			return errors.NewConfigError("store", "store is nil", nil)
		}
		o.store = db
		return nil
	}
}

// WithMirror sets the remote mirror used by entities without a base of
// their own.
func WithMirror(m mirror.Mirror) Option {
	return func(o *options) error {
		o.mirror = m
		return nil
	}
}

// WithBases routes entities to their own remote mirrors, keyed by entity.
func WithBases(bases map[string]mirror.Mirror) Option {
	return func(o *options) error {
		for entity, m := range bases {
			if !knownEntity(entity) {
				return &errors.ValidationError{Field: "bases", Value: entity, Message: "unknown entity"}
			}
			o.bases[entity] = m
		}
		return nil
	}
}

// WithTables overrides the remote table names of an entity. Journal club
// takes the meetings table then the papers table.
func WithTables(entity string, names ...string) Option {
	return func(o *options) error {
		if !knownEntity(entity) {
			return &errors.ValidationError{Field: "tables", Value: entity, Message: "unknown entity"}
		}
		o.tables[entity] = names
		return nil
	}
}

// WithSlack announces newly created records.
func WithSlack(p slack.Poster) Option {
	return func(o *options) error {
		o.slack = p
		return nil
	}
}

// WithSendGrid acknowledges new applicants by email.
func WithSendGrid(m applicants.Mailer) Option {
	return func(o *options) error {
		o.mailer = m
		return nil
	}
}

// WithGitHub sets the repository reader for the journal club and RFD
// imports, and the organization owning those repositories.
func WithGitHub(repo rfd.Repository, owner string) Option {
	return func(o *options) error {
		if owner == "" {
			return errors.NewConfigError("github", "owner is required", nil)
		}
		o.github = repo
		o.githubOwner = owner
		return nil
	}
}

// WithSubscribersCSV sets the mailing list export to import from.
func WithSubscribersCSV(path string) Option {
	return func(o *options) error {
		o.subscribersCSV = path
		return nil
	}
}

// WithApplicantSheets sets the application form exports to import from.
func WithApplicantSheets(sheets ...ApplicantSheet) Option {
	return func(o *options) error {
		for _, s := range sheets {
			if s.Role == "" || s.Path == "" {
				return &errors.ValidationError{Field: "applicantSheets", Value: s, Message: "role and path are required"}
			}
		}
		o.applicantCSVs = append(o.applicantCSVs, sheets...)
		return nil
	}
}

// WithConcurrency sets the default number of remote writes in flight.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ValidationError{Field: "concurrency", Value: n, Message: "out of range"}
		}
		o.concurrency = n
		return nil
	}
}

// WithObserver receives every table result. An observer that also has an
// ObserveRun method is told about every finished run.
func WithObserver(obs reconciler.Observer) Option {
	return func(o *options) error {
		o.observer = obs
		return nil
	}
}

// WithAutoSync configures whether automatic syncs start with the client.
func WithAutoSync(enabled bool) Option {
	return func(o *options) error {
		o.autoSyncEnabled = enabled
		return nil
	}
}

// WithAutoSyncInterval configures how often automatic syncs run.
func WithAutoSyncInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoSyncInterval = interval
		return nil
	}
}
