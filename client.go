// Package airsync keeps the Airtable bases of the team in step with the
// Local Store. It imports journal club meetings, RFDs, mailing list signups
// and job applicants into the store, and reconciles every collection into
// its remote table.
//
// Example usage:
//
//	db, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: "airsync.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	at, err := airtable.New(apiKey, baseID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := airsync.New(
//	    airsync.WithStore(db),
//	    airsync.WithMirror(at),
//	    airsync.WithSlack(slack.NewWebhook(webhookURL)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.AutoSyncOff()
//
//	c.OnCreated(func(entity, table string, change differ.RecordChange) {
//	    log.Printf("%s: created %s in %s", entity, change.RemoteID, table)
//	})
//
//	result, err := c.Sync(ctx, sync.WithEntities(rfd.Entity), sync.WithDryRun(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package airsync

import (
	"context"
	"os"
	"slices"
	gosync "sync"
	"time"

	"github.com/agentstation/airsync/pkg/applicants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/journalclub"
	"github.com/agentstation/airsync/pkg/mailinglist"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/rfd"
	"github.com/agentstation/airsync/pkg/sync"
)

// Client imports into the Local Store and syncs it to the remote mirror.
type Client interface {

	// Syncer reconciles the Local Store into the remote mirror
	Syncer

	// Importer loads upstream data into the Local Store
	Importer

	// AutoSyncer provides access to automatic sync controls
	AutoSyncer

	// Hooks provides access to event callback registration
	Hooks
}

// Entities returns every entity in sync order.
func Entities() []string {
	return []string{journalclub.Entity, rfd.Entity, mailinglist.Entity, applicants.Entity}
}

func knownEntity(name string) bool {
	return slices.Contains(Entities(), name)
}

// entity is one syncable collection group with its import job.
type entity struct {
	name string
	sync func(context.Context, *sync.Options) (*sync.EntityResult, error)
	load func(context.Context) (int, error) // nil when no import source is configured
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// entity syncers, built on first use
	mu       gosync.Mutex
	entities map[string]*entity

	// auto sync state
	runMu      gosync.Mutex // serializes sync runs
	syncTicker *time.Ticker
	stopCh     chan struct{}
	syncCancel context.CancelFunc
	syncDone   chan struct{}

	hooks *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.store == nil {
		return nil, errors.NewConfigError("store", "a local store is required", nil)
	}

	c := &client{
		options:  o,
		entities: make(map[string]*entity),
		stopCh:   make(chan struct{}),
		hooks:    newHooks(),
	}

	if o.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-sync", "", err)
		}
	}
	return c, nil
}

// mirrorFor returns the remote mirror an entity writes to.
func (c *client) mirrorFor(name string) (mirror.Mirror, error) {
	if m, ok := c.options.bases[name]; ok && m != nil {
		return m, nil
	}
	if c.options.mirror != nil {
		return c.options.mirror, nil
	}
	return nil, errors.NewConfigError(name, "no remote base configured", nil)
}

// entity returns the named entity, building its syncer on first use.
func (c *client) entity(ctx context.Context, name string) (*entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entities[name]; ok {
		return e, nil
	}
	m, err := c.mirrorFor(name)
	if err != nil {
		return nil, err
	}

	var e *entity
	switch name {
	case journalclub.Entity:
		e, err = c.journalClub(ctx, m)
	case rfd.Entity:
		e, err = c.rfds(ctx, m)
	case mailinglist.Entity:
		e, err = c.mailingList(ctx, m)
	case applicants.Entity:
		e, err = c.applicants(ctx, m)
	default:
		return nil, &errors.NotFoundError{Resource: "entity", ID: name}
	}
	if err != nil {
		return nil, errors.WrapResource("create", "syncer", name, err)
	}
	c.entities[name] = e
	return e, nil
}

// table returns the i-th configured table name of an entity, or "".
func (c *client) table(name string, i int) string {
	if names := c.options.tables[name]; i < len(names) {
		return names[i]
	}
	return ""
}

func (c *client) journalClub(ctx context.Context, m mirror.Mirror) (*entity, error) {
	opts := []journalclub.Option{journalclub.WithTables(c.table(journalclub.Entity, 0), c.table(journalclub.Entity, 1))}
	if c.options.slack != nil {
		opts = append(opts, journalclub.WithNotifier(c.options.slack))
	}
	s, err := journalclub.NewSyncer(ctx, m, c.options.store, opts...)
	if err != nil {
		return nil, err
	}
	e := &entity{name: journalclub.Entity, sync: s.Sync}
	if gh := c.options.github; gh != nil {
		e.load = func(ctx context.Context) (int, error) {
			meetings, err := journalclub.FetchMeetings(ctx, gh, c.options.githubOwner)
			if err != nil {
				return 0, err
			}
			stats, err := s.Import(ctx, meetings)
			return stats.Meetings + stats.Papers, err
		}
	}
	return e, nil
}

func (c *client) rfds(ctx context.Context, m mirror.Mirror) (*entity, error) {
	var opts []rfd.Option
	if t := c.table(rfd.Entity, 0); t != "" {
		opts = append(opts, rfd.WithTable(t))
	}
	if c.options.slack != nil {
		opts = append(opts, rfd.WithNotifier(c.options.slack))
	}
	s, err := rfd.NewSyncer(ctx, m, c.options.store, opts...)
	if err != nil {
		return nil, err
	}
	e := &entity{name: rfd.Entity, sync: s.Sync}
	if gh := c.options.github; gh != nil {
		e.load = func(ctx context.Context) (int, error) {
			rfds, err := rfd.Fetch(ctx, gh, c.options.githubOwner)
			if err != nil {
				return 0, err
			}
			return s.Import(ctx, rfds)
		}
	}
	return e, nil
}

func (c *client) mailingList(ctx context.Context, m mirror.Mirror) (*entity, error) {
	var opts []mailinglist.Option
	if t := c.table(mailinglist.Entity, 0); t != "" {
		opts = append(opts, mailinglist.WithTable(t))
	}
	if c.options.slack != nil {
		opts = append(opts, mailinglist.WithNotifier(c.options.slack))
	}
	s, err := mailinglist.NewSyncer(ctx, m, c.options.store, opts...)
	if err != nil {
		return nil, err
	}
	e := &entity{name: mailinglist.Entity, sync: s.Sync}
	if path := c.options.subscribersCSV; path != "" {
		e.load = func(ctx context.Context) (int, error) {
			var subs []mailinglist.Subscriber
			err := readFile(path, func(f *os.File) (err error) {
				subs, err = mailinglist.ParseCSV(f)
				return err
			})
			if err != nil {
				return 0, err
			}
			return s.Import(ctx, subs)
		}
	}
	return e, nil
}

func (c *client) applicants(ctx context.Context, m mirror.Mirror) (*entity, error) {
	var opts []applicants.Option
	if t := c.table(applicants.Entity, 0); t != "" {
		opts = append(opts, applicants.WithTable(t))
	}
	if c.options.slack != nil {
		opts = append(opts, applicants.WithNotifier(c.options.slack))
	}
	if c.options.mailer != nil {
		opts = append(opts, applicants.WithMailer(c.options.mailer))
	}
	s, err := applicants.NewSyncer(ctx, m, c.options.store, opts...)
	if err != nil {
		return nil, err
	}
	e := &entity{name: applicants.Entity, sync: s.Sync}
	if sheets := c.options.applicantCSVs; len(sheets) > 0 {
		e.load = func(ctx context.Context) (int, error) {
			n := 0
			for _, sheet := range sheets {
				var apps []applicants.Applicant
				err := readFile(sheet.Path, func(f *os.File) (err error) {
					apps, err = applicants.ParseCSV(ctx, f, sheet.Sheet)
					return err
				})
				if err != nil {
					return n, err
				}
				stats, err := s.Import(ctx, apps)
				n += stats.Applicants
				if err != nil {
					return n, err
				}
			}
			return n, nil
		}
	}
	return e, nil
}
