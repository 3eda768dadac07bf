package sync_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/linker"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/mirror/memory"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/store"
	"github.com/agentstation/airsync/pkg/sync"
)

type item struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

type itemCodec struct{}

func (itemCodec) NaturalKey(i item) string { return i.Name }
func (itemCodec) SetID(i *item, id int)    { i.ID = id }

type itemMapper struct{}

func (itemMapper) Key(i item) int { return i.ID }

func (itemMapper) Encode(i item) (mirror.Fields, error) {
	f := mirror.Fields{}
	f.SetString("name", i.Name)
	f.SetString("notes", i.Notes)
	return f, nil
}

func (itemMapper) Decode(f mirror.Fields) (item, error) {
	id, err := f.Int("id")
	if err != nil {
		return item{}, err
	}
	name, _ := f.String("name")
	notes, _ := f.String("notes")
	return item{ID: id, Name: name, Notes: notes}, nil
}

func (itemMapper) ClearRemoteOwned(i *item)            { i.Notes = "" }
func (itemMapper) CopyRemoteOwned(i *item, remote item) { i.Notes = remote.Notes }

func TestOptionsValidate(t *testing.T) {
	known := []string{"rfds", "journal-club"}

	assert.NoError(t, sync.Defaults().Validate(known))
	assert.NoError(t, sync.Defaults().Apply(sync.WithEntities("rfds")).Validate(known))

	tests := []struct {
		name string
		opt  sync.Option
	}{
		{"negative timeout", sync.WithTimeout(-time.Second)},
		{"zero concurrency", sync.WithConcurrency(0)},
		{"too much concurrency", sync.WithConcurrency(6)},
		{"batch too large", sync.WithBatchSize(11)},
		{"unknown entity", sync.WithEntities("nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sync.Defaults().Apply(tt.opt).Validate(known)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestSelected(t *testing.T) {
	assert.True(t, sync.Defaults().Selected("rfds"))
	opts := sync.Defaults().Apply(sync.WithEntities("applicants"))
	assert.True(t, opts.Selected("applicants"))
	assert.False(t, opts.Selected("rfds"))
}

func TestTableSyncReadsBackRemoteOwnedFields(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()

	db, err := store.Open(ctx, store.Config{DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	items, err := store.NewCollection[item](ctx, db, "items", itemCodec{})
	require.NoError(t, err)
	a, err := items.Upsert(ctx, item{Name: "a"})
	require.NoError(t, err)

	m := memory.New()
	m.Seed("Items", mirror.Record{Fields: mirror.Fields{"id": a.ID, "name": "a", "notes": "from remote"}})

	table := &sync.Table[item]{
		Name:     "Items",
		Mirror:   m,
		Mapper:   itemMapper{},
		Options:  sync.Defaults().ReconcilerOptions(),
		Source:   items,
		ReadBack: true,
	}
	res, err := table.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Unchanged)

	got, err := items.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "from remote", got.Notes)
}

func TestTableRegisterHooks(t *testing.T) {
	logging.DisableLoggingForTest(t)
	var created []string
	table := &sync.Table[item]{
		Name:   "Items",
		Mirror: memory.New(),
		Mapper: itemMapper{},
		Register: func(r reconciler.Reconciler[item]) {
			r.OnCreated(func(row item, _ mirror.Record) { created = append(created, row.Name) })
		},
	}
	_, err := table.Reconcile(context.Background(), []item{{ID: 1, Name: "x"}, {ID: 2, Name: "y"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, created)
}

func TestResultSummary(t *testing.T) {
	r := sync.NewResult(true)
	meetings := reconciler.NewResult("Meetings")
	meetings.Stats = reconciler.Stats{Created: 1, Unchanged: 2}
	papers := reconciler.NewResult("Papers")
	papers.Stats = reconciler.Stats{Updated: 2, Failed: 1}
	r.Add(&sync.EntityResult{Entity: "journal-club", Tables: []*reconciler.Result{meetings, papers}, Links: &linker.Stats{Linked: 2}})
	r.Add(nil)
	r.Finish()

	assert.True(t, r.HasChanges())
	assert.Same(t, papers, r.Table("Papers"))
	assert.Nil(t, r.Table("Nope"))
	assert.Equal(t, reconciler.Stats{Created: 1, Updated: 2, Unchanged: 2, Failed: 1}, r.Totals())
	assert.Equal(t, "1 created, 2 updated, 2 unchanged across 2 tables (0 skipped, 1 failed) (Dry run)", r.Summary())
	assert.Contains(t, r.Entities[0].Summary(), "links: 2 linked, 0 unlinked")
}
