package backup_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/backup"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/mirror/memory"
)

func TestTableWritesJSONLines(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	m := memory.New()
	m.Seed("RFDs",
		mirror.Record{Fields: mirror.Fields{"id": 1, "title": "Intro"}},
		mirror.Record{Fields: mirror.Fields{"id": 2, "title": "Draft"}},
	)
	store := blob.NewMemory()
	now := time.Date(2021, 4, 2, 15, 4, 5, 0, time.UTC)

	info, err := backup.Table(ctx, m, store, "RFDs", backup.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	assert.Equal(t, "RFDs/20210402-150405.jsonl", info.Key)
	assert.Equal(t, "application/x-ndjson", info.ContentType)

	rc, err := store.Get(ctx, info.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	records, err := backup.Decode(data, backup.FormatJSONL)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, float64(2), records[1].Fields["id"])
	assert.Equal(t, "Intro", records[0].Fields["title"])
	assert.NotEmpty(t, records[0].ID)
}

func TestTableFetchFailure(t *testing.T) {
	logging.DisableLoggingForTest(t)
	m := memory.New(memory.WithFailure(func(op memory.Op) error {
		return errors.NewAPIError("memory", 503, "down")
	}))
	store := blob.NewMemory()

	_, err := backup.Table(context.Background(), m, store, "RFDs")
	assert.True(t, errors.IsRemoteFetch(err))

	list, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEncodeFormats(t *testing.T) {
	records := []mirror.Record{{ID: "rec1", Fields: mirror.Fields{"title": "Intro"}}}

	data, err := backup.Encode(records, backup.FormatJSON)
	require.NoError(t, err)
	back, err := backup.Decode(data, backup.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "rec1", back[0].ID)

	data, err = backup.Encode(records, backup.FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rec1")

	data, err = backup.Encode(nil, backup.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]backup.Format{"": backup.FormatJSONL, "jsonl": backup.FormatJSONL, "json": backup.FormatJSON, "yml": backup.FormatYAML} {
		got, err := backup.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := backup.ParseFormat("xml")
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, "Papers/x.yaml", backup.Key("Papers", "x", backup.FormatYAML))
}
