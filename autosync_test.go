package airsync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mailinglist"
	"github.com/agentstation/airsync/pkg/mirror/memory"
)

func TestAutoSyncRunsUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	logging.DisableLoggingForTest(t)

	db := openDB(t)
	defer func() { _ = db.Close() }()

	m := memory.New()
	c, err := airsync.New(
		airsync.WithStore(db),
		airsync.WithMirror(m),
		airsync.WithSubscribersCSV(writeCSV(t, subscribersCSV)),
		airsync.WithAutoSyncInterval(10*time.Millisecond),
	)
	require.NoError(t, err)

	_, err = c.Import(context.Background(), mailinglist.Entity)
	require.NoError(t, err)

	require.NoError(t, c.AutoSyncOn())
	require.Eventually(t, func() bool {
		return len(m.Records(constants.SubscribersTable)) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.AutoSyncOff())
	calls := m.Calls("list")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, m.Calls("list"))

	// stopping twice is a no-op
	require.NoError(t, c.AutoSyncOff())
}

func TestAutoSyncRejectsNonPositiveInterval(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	db := openDB(t)
	defer func() { _ = db.Close() }()

	_, err := airsync.New(
		airsync.WithStore(db),
		airsync.WithMirror(memory.New()),
		airsync.WithAutoSync(true),
		airsync.WithAutoSyncInterval(0),
	)
	assert.True(t, errors.IsValidationError(err))
}
