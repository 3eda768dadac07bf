package rfd

import (
	"context"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/notify/slack"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/store"
	"github.com/agentstation/airsync/pkg/sync"
)

// Syncer imports and reconciles RFDs.
type Syncer struct {
	mirror   mirror.Mirror
	rfds     *store.Collection[RFD]
	table    string
	notifier slack.Poster
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

// WithNotifier announces newly created RFDs.
func WithNotifier(p slack.Poster) Option {
	return func(s *Syncer) {
		s.notifier = p
	}
}

// NewSyncer opens the rfds collection of db.
func NewSyncer(ctx context.Context, m mirror.Mirror, db *store.DB, opts ...Option) (*Syncer, error) {
	rfds, err := store.NewCollection[RFD](ctx, db, store.RFDs, codec{})
	if err != nil {
		return nil, err
	}
	s := &Syncer{mirror: m, rfds: rfds, table: constants.RFDsTable}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sync reconciles every stored RFD and reads milestones and components back.
func (s *Syncer) Sync(ctx context.Context, opts *sync.Options) (*sync.EntityResult, error) {
	if opts == nil {
		opts = sync.Defaults()
	}
	ctx = logging.WithEntity(ctx, Entity)

	table := &sync.Table[RFD]{
		Name:     s.table,
		Mirror:   s.mirror,
		Mapper:   Mapper{},
		Options:  opts.ReconcilerOptions(),
		Source:   s.rfds,
		ReadBack: true,
		Register: func(r reconciler.Reconciler[RFD]) {
			if s.notifier == nil {
				return
			}
			r.OnCreated(func(rfd RFD, _ mirror.Record) {
				if err := s.notifier.Post(ctx, slack.Message{Text: SlackText(rfd)}); err != nil {
					logging.FromContext(ctx).Warn().Err(err).Int("number", rfd.Number).Msg("Failed to announce RFD")
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

// List returns every stored RFD.
func (s *Syncer) List(ctx context.Context) ([]RFD, error) {
	return s.rfds.List(ctx)
}
