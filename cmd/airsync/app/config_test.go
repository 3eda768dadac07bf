package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/applicants"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/journalclub"
	"github.com/agentstation/airsync/pkg/rfd"
	"github.com/agentstation/airsync/pkg/store"
)

const configYAML = `
airtable:
  tables:
    meetings: JC Meetings
    rfds: From File
sources:
  applicant_sheets:
    - role: Hardware Engineer
      id: sheet-1
      path: /tmp/hw.csv
sync:
  auto_sync_interval: 15m
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), constants.FilePermissions))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AIRSYNC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, store.DriverSQLite, config.Store.Driver)
	assert.Equal(t, "airsync.db", config.Store.DSN)
	assert.Equal(t, blob.DriverFilesystem, config.Blob.Driver)
	assert.Equal(t, constants.DefaultView, config.Airtable.View)
	assert.Equal(t, []string{constants.MeetingsTable, constants.PapersTable}, config.Airtable.Tables[journalclub.Entity])
	assert.Equal(t, constants.DefaultAutoSyncInterval, config.AutoSyncInterval)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Empty(t, config.ApplicantSheets)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("AIRSYNC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID_MISC", "appMisc")
	t.Setenv("AIRTABLE_BASE_ID_RECURITING_APPLICATIONS", "appHiring")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/airsync")
	t.Setenv("BLOB_DRIVER", "s3")
	t.Setenv("BLOB_S3_BUCKET", "backups")
	t.Setenv("AUTO_SYNC_INTERVAL", "5m")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "key", config.Airtable.APIKey)
	assert.Equal(t, "appMisc", config.Airtable.Bases[journalclub.Entity])
	assert.Equal(t, "appHiring", config.Airtable.Bases[applicants.Entity])
	assert.Equal(t, store.Config{Driver: "postgres", DSN: "postgres://localhost/airsync"}, config.Store)
	assert.Equal(t, blob.DriverS3, config.Blob.Driver)
	assert.Equal(t, "backups", config.Blob.S3.Bucket)
	assert.Equal(t, 5*time.Minute, config.AutoSyncInterval)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("AIRSYNC_CONFIG", writeConfig(t))
	t.Setenv("AIRTABLE_RFD_TABLE", "From Env")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, config.ConfigFile)
	assert.Equal(t, []string{"JC Meetings", constants.PapersTable}, config.Airtable.Tables[journalclub.Entity])
	assert.Equal(t, []string{"From Env"}, config.Airtable.Tables[rfd.Entity])
	assert.Equal(t, 15*time.Minute, config.AutoSyncInterval)
	assert.Equal(t, []SheetConfig{{Role: "Hardware Engineer", ID: "sheet-1", Path: "/tmp/hw.csv"}}, config.ApplicantSheets)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "debug"}
	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "yaml", config.Format)
	assert.Equal(t, "debug", config.LogLevel)

	config.UpdateFromFlags(false, true, false, "json", "error")
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "error", config.LogLevel)
}
