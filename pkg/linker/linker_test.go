package linker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/linker"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/mirror/memory"
)

type child struct {
	Parent string
	Links  []string
}

func childKey(c child) string { return c.Parent }
func setLinks(c *child, links []string) { c.Links = links }

func TestIndexByKey(t *testing.T) {
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	m := memory.New(memory.WithPageSize(1))
	m.Seed("Meetings",
		mirror.Record{ID: "recA", CreatedTime: base.Add(time.Hour), Fields: mirror.Fields{"issue": "org/repo#7"}},
		mirror.Record{ID: "recB", CreatedTime: base, Fields: mirror.Fields{"issue": "org/repo#7"}},
		mirror.Record{ID: "recC", CreatedTime: base, Fields: mirror.Fields{"issue": "org/repo#8"}},
		mirror.Record{ID: "recD", CreatedTime: base, Fields: mirror.Fields{"issue": 9}},
		mirror.Record{ID: "recE", CreatedTime: base, Fields: mirror.Fields{}},
	)

	index, err := linker.IndexByKey(context.Background(), m, "Meetings", "", "issue")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"org/repo#7": "recB", "org/repo#8": "recC"}, index)
}

func TestIndexByKeyFetchFailure(t *testing.T) {
	m := memory.New(memory.WithFailure(func(memory.Op) error {
		return errors.NewAPIError("airtable", 500, "boom")
	}))
	_, err := linker.IndexByKey(context.Background(), m, "Meetings", "", "issue")
	assert.True(t, errors.IsRemoteFetch(err))

	_, err = linker.IndexByKey(context.Background(), m, "Meetings", "", "")
	assert.True(t, errors.IsValidationError(err))
}

func TestResolve(t *testing.T) {
	rows := []child{
		{Parent: "org/repo#7"},
		{Parent: "org/repo#99", Links: []string{"recStale"}},
		{Parent: ""},
	}
	stats := linker.Resolve(rows, map[string]string{"org/repo#7": "recB"}, childKey, setLinks)

	assert.Equal(t, linker.Stats{Linked: 1, Unlinked: 2}, stats)
	assert.Equal(t, []string{"recB"}, rows[0].Links)
	assert.Empty(t, rows[1].Links, "unresolved rows carry no link; the remote value is left as is")
	assert.Empty(t, rows[2].Links)
	assert.Equal(t, "1 linked, 2 unlinked", stats.String())
}
