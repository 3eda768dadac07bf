package mailinglist

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

// Syncer imports and reconciles subscribers.
type Syncer struct {
	mirror      mirror.Mirror
	subscribers *store.Collection[Subscriber]
	table       string
	notifier    slack.Poster
	now         func() time.Time
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

// WithNotifier announces new subscribers.
func WithNotifier(p slack.Poster) Option {
	return func(s *Syncer) {
		s.notifier = p
	}
}

// WithClock sets the clock used in announcements.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// NewSyncer opens the subscribers collection of db.
func NewSyncer(ctx context.Context, m mirror.Mirror, db *store.DB, opts ...Option) (*Syncer, error) {
	subs, err := store.NewCollection[Subscriber](ctx, db, store.Subscribers, codec{})
	if err != nil {
		return nil, err
	}
	s := &Syncer{mirror: m, subscribers: subs, table: constants.SubscribersTable, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Import upserts subscribers by email, keeping the remote-owned fields
// already stored.
func (s *Syncer) Import(ctx context.Context, subs []Subscriber) (int, error) {
	n := 0
	for _, sub := range subs {
		sub.Expand()
		if sub.Email == "" {
			continue
		}
		if existing, err := s.subscribers.GetByKey(ctx, sub.Email); err == nil {
			sub.Notes = existing.Notes
			sub.Tags = existing.Tags
			sub.LinkToPeople = existing.LinkToPeople
		} else if !errors.IsNotFound(err) {
			return n, err
		}
		if _, err := s.subscribers.Upsert(ctx, sub); err != nil {
			return n, err
		}
		n++
	}
	logging.FromContext(ctx).Info().Str("entity", Entity).Int("subscribers", n).Msg("Imported subscribers")
	return n, nil
}

// Sync reconciles every stored subscriber.
func (s *Syncer) Sync(ctx context.Context, opts *sync.Options) (*sync.EntityResult, error) {
	if opts == nil {
		opts = sync.Defaults()
	}
	ctx = logging.WithEntity(ctx, Entity)

	table := &sync.Table[Subscriber]{
		Name:     s.table,
		Mirror:   s.mirror,
		Mapper:   Mapper{},
		Options:  opts.ReconcilerOptions(),
		Source:   s.subscribers,
		ReadBack: true,
		Register: func(r reconciler.Reconciler[Subscriber]) {
			if s.notifier == nil {
				return
			}
			r.OnCreated(func(sub Subscriber, _ mirror.Record) {
				if err := s.notifier.Post(ctx, SlackMessage(sub, s.now())); err != nil {
					logging.FromContext(ctx).Warn().Err(err).Str("email", sub.Email).Msg("Failed to announce subscriber")
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

// List returns every stored subscriber.
func (s *Syncer) List(ctx context.Context) ([]Subscriber, error) {
	return s.subscribers.List(ctx)
}
