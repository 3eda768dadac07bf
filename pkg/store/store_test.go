package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/store"
)

type widget struct {
	ID    int    `json:"id"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

type widgetCodec struct{}

func (widgetCodec) NaturalKey(w widget) string { return w.Slug }
func (widgetCodec) SetID(w *widget, id int)    { w.ID = id }

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "nested", "airsync.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertAssignsStableIDs(t *testing.T) {
	ctx := context.Background()
	c, err := store.NewCollection[widget](ctx, openTestDB(t), "widgets", widgetCodec{})
	require.NoError(t, err)

	a, err := c.Upsert(ctx, widget{Slug: "a", Color: "red"})
	require.NoError(t, err)
	b, err := c.Upsert(ctx, widget{Slug: "b", Color: "blue"})
	require.NoError(t, err)
	assert.Positive(t, a.ID)
	assert.Greater(t, b.ID, a.ID)

	again, err := c.Upsert(ctx, widget{Slug: "a", Color: "green"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID, "replacing by natural key keeps the id")

	rows, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []widget{
		{ID: a.ID, Slug: "a", Color: "green"},
		{ID: b.ID, Slug: "b", Color: "blue"},
	}, rows)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	c, err := store.NewCollection[widget](ctx, openTestDB(t), "widgets", widgetCodec{})
	require.NoError(t, err)

	w, err := c.Upsert(ctx, widget{Slug: "a", Color: "red"})
	require.NoError(t, err)

	got, err := c.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	got, err = c.GetByKey(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, w, got)

	_, err = c.Get(ctx, 999)
	assert.True(t, errors.IsNotFound(err))
	_, err = c.GetByKey(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestUpsertRequiresNaturalKey(t *testing.T) {
	ctx := context.Background()
	c, err := store.NewCollection[widget](ctx, openTestDB(t), "widgets", widgetCodec{})
	require.NoError(t, err)

	_, err = c.Upsert(ctx, widget{Color: "red"})
	assert.True(t, errors.IsValidationError(err))
}

func TestCollectionNameIsValidated(t *testing.T) {
	_, err := store.NewCollection[widget](context.Background(), openTestDB(t), "widgets; DROP TABLE x", widgetCodec{})
	assert.True(t, errors.IsValidationError(err))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Config{Driver: "oracle"})
	assert.True(t, errors.IsValidationError(err))

	_, err = store.Open(context.Background(), store.Config{Driver: store.DriverPostgres})
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCollectionsPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "airsync.db")

	db, err := store.Open(ctx, store.Config{DSN: path})
	require.NoError(t, err)
	assert.Equal(t, store.DriverSQLite, db.Driver())
	c, err := store.NewCollection[widget](ctx, db, store.Meetings, widgetCodec{})
	require.NoError(t, err)
	w, err := c.Upsert(ctx, widget{Slug: "a"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = store.Open(ctx, store.Config{DSN: path})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	c, err = store.NewCollection[widget](ctx, db, store.Meetings, widgetCodec{})
	require.NoError(t, err)
	got, err := c.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Slug)
}
