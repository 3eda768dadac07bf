package journalclub

import (
	"context"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/linker"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/notify/slack"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/store"
	"github.com/agentstation/airsync/pkg/sync"
)

// Syncer imports and reconciles journal club data.
type Syncer struct {
	mirror        mirror.Mirror
	meetings      *store.Collection[Meeting]
	papers        *store.Collection[Paper]
	meetingsTable string
	papersTable   string
	notifier      slack.Poster
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithTables overrides the remote table names.
func WithTables(meetings, papers string) Option {
	return func(s *Syncer) {
		if meetings != "" {
			s.meetingsTable = meetings
		}
		if papers != "" {
			s.papersTable = papers
		}
	}
}

// WithNotifier announces newly created meetings.
func WithNotifier(p slack.Poster) Option {
	return func(s *Syncer) {
		s.notifier = p
	}
}

// NewSyncer opens the meetings and papers collections of db.
func NewSyncer(ctx context.Context, m mirror.Mirror, db *store.DB, opts ...Option) (*Syncer, error) {
	meetings, err := store.NewCollection[Meeting](ctx, db, store.Meetings, meetingCodec{})
	if err != nil {
		return nil, err
	}
	papers, err := store.NewCollection[Paper](ctx, db, store.Papers, paperCodec{})
	if err != nil {
		return nil, err
	}
	s := &Syncer{
		mirror:        m,
		meetings:      meetings,
		papers:        papers,
		meetingsTable: constants.MeetingsTable,
		papersTable:   constants.PapersTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sync reconciles meetings, resolves each paper's meeting link and then
// reconciles papers. Remote edits to a meeting's papers and notes are read
// back into the Local Store.
func (s *Syncer) Sync(ctx context.Context, opts *sync.Options) (*sync.EntityResult, error) {
	if opts == nil {
		opts = sync.Defaults()
	}
	ctx = logging.WithEntity(ctx, Entity)
	result := &sync.EntityResult{Entity: Entity}

	meetings := &sync.Table[Meeting]{
		Name:     s.meetingsTable,
		Mirror:   s.mirror,
		Mapper:   MeetingMapper{},
		Options:  opts.ReconcilerOptions(),
		Source:   s.meetings,
		ReadBack: true,
		Register: func(r reconciler.Reconciler[Meeting]) {
			if s.notifier == nil {
				return
			}
			r.OnCreated(func(m Meeting, _ mirror.Record) {
				if err := s.notifier.Post(ctx, SlackMessage(m)); err != nil {
					logging.FromContext(ctx).Warn().Err(err).Str("issue", m.Issue).Msg("Failed to announce meeting")
				}
			})
		},
	}
	res, err := meetings.Sync(ctx)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "reconcile meetings", err)
	}
	result.Tables = append(result.Tables, res)

	parents, err := linker.IndexByKey(ctx, s.mirror, s.meetingsTable, opts.View, fieldIssue)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "index meetings", err)
	}
	rows, err := s.papers.List(ctx)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "list papers", err)
	}
	links := linker.Resolve(rows, parents,
		func(p Paper) string { return p.Meeting },
		func(p *Paper, ids []string) { p.LinkToMeeting = ids },
	)
	result.Links = &links
	logging.FromContext(ctx).Debug().Int("linked", links.Linked).Int("unlinked", links.Unlinked).Msg("Resolved paper links")

	papers := &sync.Table[Paper]{
		Name:    s.papersTable,
		Mirror:  s.mirror,
		Mapper:  PaperMapper{},
		Options: opts.ReconcilerOptions(),
		Source:  s.papers,
	}
	res, err = papers.Reconcile(ctx, rows)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "reconcile papers", err)
	}
	result.Tables = append(result.Tables, res)
	return result, nil
}

// Meetings returns every stored meeting.
func (s *Syncer) Meetings(ctx context.Context) ([]Meeting, error) {
	return s.meetings.List(ctx)
}

// Papers returns every stored paper.
func (s *Syncer) Papers(ctx context.Context) ([]Paper, error) {
	return s.papers.List(ctx)
}
