package applicants

import (
	"context"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/notify/slack"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/store"
	"github.com/agentstation/airsync/pkg/sync"
)

// Mailer sends the application emails. *sendgrid.Client satisfies it.
type Mailer interface {
	SendReceivedApplication(ctx context.Context, email, name string) error
	SendNewApplicantNotification(ctx context.Context, name, body string) error
}

// Syncer imports and reconciles applicants.
type Syncer struct {
	mirror     mirror.Mirror
	applicants *store.Collection[Applicant]
	table      string
	notifier   slack.Poster
	mailer     Mailer
	now        func() time.Time
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithTable overrides the remote table name.
func WithTable(name string) Option {
	return func(s *Syncer) {
		if name != "" {
			s.table = name
		}
	}
}

// WithNotifier announces new applicants.
func WithNotifier(p slack.Poster) Option {
	return func(s *Syncer) {
		s.notifier = p
	}
}

// WithMailer acknowledges applications by email during import.
func WithMailer(m Mailer) Option {
	return func(s *Syncer) {
		s.mailer = m
	}
}

// WithClock sets the clock used in announcements.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// NewSyncer opens the applicants collection of db.
func NewSyncer(ctx context.Context, m mirror.Mirror, db *store.DB, opts ...Option) (*Syncer, error) {
	apps, err := store.NewCollection[Applicant](ctx, db, store.Applicants, codec{})
	if err != nil {
		return nil, err
	}
	s := &Syncer{mirror: m, applicants: apps, table: constants.ApplicantsTable, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ImportStats counts what an import did.
type ImportStats struct {
	Applicants int
	Emailed    int
}

// Import upserts applicants by email and role. Reviewer fields already
// stored are kept. Applicants not yet sent the received-application email
// get it, and the team is notified; a failed send is retried on the next
// import.
func (s *Syncer) Import(ctx context.Context, apps []Applicant) (ImportStats, error) {
	logger := logging.FromContext(ctx).With().Str("entity", Entity).Logger()
	var stats ImportStats
	for _, a := range apps {
		if a.Email == "" {
			continue
		}
		if existing, err := s.applicants.GetByKey(ctx, a.Key()); err == nil {
			a.Status = existing.Status
			a.ValueReflected = existing.ValueReflected
			a.ValueViolated = existing.ValueViolated
			a.ValuesInTension = existing.ValuesInTension
			a.SentEmailReceived = a.SentEmailReceived || existing.SentEmailReceived
		} else if !errors.IsNotFound(err) {
			return stats, err
		}

		if !a.SentEmailReceived && s.mailer != nil {
			if err := s.acknowledge(ctx, a); err != nil {
				if errors.IsCanceled(err) {
					return stats, err
				}
				logger.Warn().Err(err).Str("email", a.Email).Msg("Failed to acknowledge application")
			} else {
				a.SentEmailReceived = true
				stats.Emailed++
			}
		}

		if _, err := s.applicants.Upsert(ctx, a); err != nil {
			return stats, err
		}
		stats.Applicants++
	}
	logger.Info().Int("applicants", stats.Applicants).Int("emailed", stats.Emailed).Msg("Imported applicants")
	return stats, nil
}

func (s *Syncer) acknowledge(ctx context.Context, a Applicant) error {
	if err := s.mailer.SendReceivedApplication(ctx, a.Email, a.Name); err != nil {
		return err
	}
	if err := s.mailer.SendNewApplicantNotification(ctx, a.Name, EmailSummary(a)); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("email", a.Email).Msg("Failed to notify team of application")
	}
	return nil
}

// Sync reconciles every stored applicant, reading reviewer edits back.
func (s *Syncer) Sync(ctx context.Context, opts *sync.Options) (*sync.EntityResult, error) {
	if opts == nil {
		opts = sync.Defaults()
	}
	ctx = logging.WithEntity(ctx, Entity)

	table := &sync.Table[Applicant]{
		Name:     s.table,
		Mirror:   s.mirror,
		Mapper:   Mapper{},
		Options:  opts.ReconcilerOptions(),
		Source:   s.applicants,
		ReadBack: true,
		Register: func(r reconciler.Reconciler[Applicant]) {
			if s.notifier == nil {
				return
			}
			r.OnCreated(func(a Applicant, _ mirror.Record) {
				if err := s.notifier.Post(ctx, SlackMessage(a, s.now())); err != nil {
					logging.FromContext(ctx).Warn().Err(err).Str("email", a.Email).Msg("Failed to announce applicant")
				}
			})
		},
	}
	res, err := table.Sync(ctx)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "reconcile", err)
	}
	return &sync.EntityResult{Entity: Entity, Tables: []*reconciler.Result{res}}, nil
}

// List returns every stored applicant.
func (s *Syncer) List(ctx context.Context) ([]Applicant, error) {
	return s.applicants.List(ctx)
}
