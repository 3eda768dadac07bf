// Package appcontext provides the shared application context interface
// used by all commands.
package appcontext

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/server"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/metrics"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Interface defines the application context that commands need.
// The App struct from cmd/airsync/app implements it; tests use Mock.
type Interface interface {
	// Client returns the sync client, creating it lazily if needed.
	Client(ctx context.Context) (airsync.Client, error)

	// Mirror returns the remote base that holds entity's tables.
	Mirror(entity string) (mirror.Mirror, error)

	// Tables returns the remote table names of entity.
	Tables(entity string) []string

	// Blob returns the backup store.
	Blob(ctx context.Context) (blob.Store, error)

	// Metrics returns the shared sync observer.
	Metrics() *metrics.Observer

	// ServerConfig returns the health and metrics server settings.
	ServerConfig() server.Config

	// AutoSyncInterval is the period between background syncs.
	AutoSyncInterval() time.Duration

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
