// Package constants provides shared constants used throughout the airsync
// codebase: timeouts, remote API limits, default table names and file
// permissions that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the per-request timeout for calls to remote APIs
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout bounds a full sync run across every entity
	SyncTimeout = 30 * time.Minute

	// EntitySyncTimeout bounds the sync of a single entity inside an automatic run
	EntitySyncTimeout = 10 * time.Minute

	// DefaultAutoSyncInterval is the default interval between automatic syncs
	DefaultAutoSyncInterval = 1 * time.Hour

	// ShutdownTimeout is how long the watch server waits for in-flight requests
	ShutdownTimeout = 10 * time.Second

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Remote mirror limits
const (
	// MaxBatchSize is the most records Airtable accepts per create or update call
	MaxBatchSize = 10

	// DefaultPageSize is the page size requested when listing records
	DefaultPageSize = 100

	// MaxRetries is the maximum number of retry attempts for transient failures
	MaxRetries = 3

	// MaxRateLimitRetries is the maximum number of retries for rate-limited requests
	MaxRateLimitRetries = 5

	// DefaultConcurrency is the number of concurrent row writes per table
	DefaultConcurrency = 1

	// MaxConcurrency caps concurrent writes; Airtable allows 5 requests per second per base
	MaxConcurrency = 5
)

// Remote field and view names
const (
	// LinkField is the remote field holding the local record's integer id
	LinkField = "id"

	// DefaultView is the view records are listed from when none is configured
	DefaultView = "Grid view"

	// AirtableBaseURL is the Airtable REST endpoint
	AirtableBaseURL = "https://api.airtable.com/v0"
)

// Default remote table names
const (
	MeetingsTable    = "Meetings"
	PapersTable      = "Papers"
	RFDsTable        = "RFDs"
	SubscribersTable = "Mailing List Signups"
	ApplicantsTable  = "Applicants"
)

// Format constants
const (
	// DateFormat is the month/day/year layout of the papers repository
	// and of dates shown in Slack
	DateFormat = "01/02/2006"

	// RemoteDateFormat is how date columns are written to and read from
	// the remote store
	RemoteDateFormat = "2006-01-02"

	// TimeFormatFilename is the format used in generated backup filenames
	TimeFormatFilename = "20060102-150405"
)
