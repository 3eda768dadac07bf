package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/sync"
)

type row struct {
	Entity string `json:"entity"`
	Rows   int    `json:"import_rows"`
	Note   string
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.True(t, errors.IsValidationError(err))
}

func TestDetectFormatPrefersExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestConvertStructSlice(t *testing.T) {
	data := convertToTableData([]row{{Entity: "rfds", Rows: 3, Note: "ok"}})
	require.NotNil(t, data)
	assert.Equal(t, []string{"Entity", "Import Rows", "Note"}, data.Headers)
	assert.Equal(t, [][]string{{"rfds", "3", "ok"}}, data.Rows)

	single := convertToTableData(row{Entity: "rfds"})
	require.NotNil(t, single)
	assert.Equal(t, []string{"Property", "Value"}, single.Headers)
	assert.Len(t, single.Rows, 3)

	assert.Nil(t, convertToTableData("plain"))
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, map[string]int{"created": 2}))
	assert.Equal(t, "created: 2\n", buf.String())
}

func TestSyncTable(t *testing.T) {
	r := reconciler.NewResult("RFDs")
	r.Stats = reconciler.Stats{Created: 1, Unchanged: 4}
	result := sync.NewResult(false)
	result.Add(&sync.EntityResult{Entity: "rfds", Tables: []*reconciler.Result{r}})

	data := SyncTable(result)
	assert.Equal(t, [][]string{{"rfds", "RFDs", "1", "0", "4", "0", "0", "0"}}, data.Rows)
	assert.Equal(t, result.Summary(), data.Footer)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))
	assert.Contains(t, buf.String(), "RFDs")
	assert.Contains(t, buf.String(), "1 created, 0 updated, 4 unchanged across 1 tables")
}

func TestReport(t *testing.T) {
	r := reconciler.NewResult("Meetings")
	r.Stats = reconciler.Stats{Updated: 2}
	result := sync.NewResult(true)
	result.RunID = "run-1"
	result.Add(&sync.EntityResult{Entity: "journal-club", Tables: []*reconciler.Result{r}})

	report := Report(result)
	assert.Equal(t, "run-1", report.RunID)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Totals.Updated)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, "Meetings", report.Tables[0].Table)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, report))
	assert.Contains(t, buf.String(), `"run_id": "run-1"`)
}
