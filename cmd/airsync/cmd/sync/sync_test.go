package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/cmd/output"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror/memory"
	"github.com/agentstation/airsync/pkg/store"
	pkgsync "github.com/agentstation/airsync/pkg/sync"
)

const subscribersCSV = "email,first_name,last_name,company,wants_newsletter,date_added\n" +
	"ada@example.com,Ada,Lovelace,Analytical,true,2021-04-02T15:04:05Z\n" +
	"grace@example.com,Grace,Hopper,,false,2021-04-03T15:04:05Z\n"

func newApp(t *testing.T, m *memory.Mirror) *appcontext.Mock {
	t.Helper()
	logging.DisableLoggingForTest(t)
	dir := t.TempDir()

	db, err := store.Open(context.Background(), store.Config{DSN: filepath.Join(dir, "airsync.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	csvPath := filepath.Join(dir, "subscribers.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(subscribersCSV), constants.FilePermissions))

	client, err := airsync.New(
		airsync.WithStore(db),
		airsync.WithMirror(m),
		airsync.WithSubscribersCSV(csvPath),
	)
	require.NoError(t, err)

	return &appcontext.Mock{
		ClientFunc: func(context.Context) (airsync.Client, error) { return client, nil },
		Format:     "json",
	}
}

func run(t *testing.T, app appcontext.Interface, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCommandImportsAndSyncs(t *testing.T) {
	m := memory.New()
	out, err := run(t, newApp(t, m), "--import", "mailing-list")
	require.NoError(t, err)

	var report output.SyncReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.DryRun)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Totals.Created)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, constants.SubscribersTable, report.Tables[0].Table)
	assert.Len(t, m.Records(constants.SubscribersTable), 2)
}

func TestSyncCommandDryRun(t *testing.T) {
	m := memory.New()
	out, err := run(t, newApp(t, m), "--import", "--dry-run", "mailing-list")
	require.NoError(t, err)

	var report output.SyncReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Totals.Created)
	assert.Empty(t, m.Records(constants.SubscribersTable))
}

func TestSyncCommandRejectsUnknownEntity(t *testing.T) {
	_, err := run(t, newApp(t, memory.New()), "crm")
	assert.Error(t, err)
}

func TestBuildSyncOptions(t *testing.T) {
	o := pkgsync.Defaults().Apply(BuildSyncOptions(&Flags{DryRun: true, BatchSize: 10, View: "All"}, []string{"rfds"})...)

	assert.True(t, o.DryRun)
	assert.Equal(t, 10, o.BatchSize)
	assert.Equal(t, "All", o.View)
	assert.Equal(t, []string{"rfds"}, o.Entities)
	assert.Zero(t, o.Timeout)
	assert.Equal(t, constants.DefaultConcurrency, o.Concurrency)
}
