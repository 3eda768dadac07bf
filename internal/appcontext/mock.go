package appcontext

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/server"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/metrics"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding field.
// If a field is nil, the method returns a default/zero value.
type Mock struct {
	ClientFunc func(context.Context) (airsync.Client, error)
	MirrorFunc func(string) (mirror.Mirror, error)
	TablesFunc func(string) []string
	BlobFunc   func(context.Context) (blob.Store, error)

	Observer *metrics.Observer
	Server   *server.Config
	Interval time.Duration
	Format   string
	Log      *zerolog.Logger
}

var _ Interface = (*Mock)(nil)

// Client returns a client using the mock function or a config error.
func (m *Mock) Client(ctx context.Context) (airsync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx)
	}
	return nil, errors.NewConfigError("client", "not configured", nil)
}

// Mirror returns a mirror using the mock function or a config error.
func (m *Mock) Mirror(entity string) (mirror.Mirror, error) {
	if m.MirrorFunc != nil {
		return m.MirrorFunc(entity)
	}
	return nil, errors.NewConfigError("airtable", "no base for "+entity, nil)
}

// Tables returns table names using the mock function or nil.
func (m *Mock) Tables(entity string) []string {
	if m.TablesFunc != nil {
		return m.TablesFunc(entity)
	}
	return nil
}

// Blob returns a store using the mock function or an in-memory store.
func (m *Mock) Blob(ctx context.Context) (blob.Store, error) {
	if m.BlobFunc != nil {
		return m.BlobFunc(ctx)
	}
	return blob.Open(ctx, blob.Config{Driver: blob.DriverMemory})
}

// Metrics returns the configured observer, creating one on first use.
func (m *Mock) Metrics() *metrics.Observer {
	if m.Observer == nil {
		m.Observer = metrics.New()
	}
	return m.Observer
}

// ServerConfig returns the configured server settings or the defaults.
func (m *Mock) ServerConfig() server.Config {
	if m.Server != nil {
		return *m.Server
	}
	return server.DefaultConfig()
}

// AutoSyncInterval returns the configured interval or the default.
func (m *Mock) AutoSyncInterval() time.Duration {
	if m.Interval > 0 {
		return m.Interval
	}
	return constants.DefaultAutoSyncInterval
}

// Logger returns the configured logger or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.Log != nil {
		return m.Log
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the configured format or "json".
func (m *Mock) OutputFormat() string {
	if m.Format != "" {
		return m.Format
	}
	return "json"
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "unknown".
func (m *Mock) BuiltBy() string { return "unknown" }
