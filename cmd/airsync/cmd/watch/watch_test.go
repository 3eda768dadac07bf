package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/server"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror/memory"
	"github.com/agentstation/airsync/pkg/store"
)

func TestWatchImportsSyncsAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	logging.DisableLoggingForTest(t)
	dir := t.TempDir()

	db, err := store.Open(context.Background(), store.Config{DSN: filepath.Join(dir, "airsync.db")})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	csvPath := filepath.Join(dir, "subscribers.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("email,first_name,last_name,company,wants_newsletter,date_added\n"+
		"ada@example.com,Ada,Lovelace,Analytical,true,2021-04-02T15:04:05Z\n"), constants.FilePermissions))

	m := memory.New()
	client, err := airsync.New(
		airsync.WithStore(db),
		airsync.WithMirror(m),
		airsync.WithSubscribersCSV(csvPath),
		airsync.WithAutoSyncInterval(time.Hour),
	)
	require.NoError(t, err)
	app := &appcontext.Mock{ClientFunc: func(context.Context) (airsync.Client, error) { return client, nil }}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ExecuteWatch(ctx, app, &Flags{NoServer: true, Import: true}, server.DefaultConfig())
	}()

	assert.Eventually(t, func() bool {
		return len(m.Records(constants.SubscribersTable)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRequiresClient(t *testing.T) {
	err := ExecuteWatch(context.Background(), &appcontext.Mock{}, &Flags{NoServer: true}, server.DefaultConfig())
	assert.Error(t, err)
}
