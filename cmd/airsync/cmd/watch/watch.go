// Package watch provides the watch command implementation.
package watch

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/server"
	pkgsync "github.com/agentstation/airsync/pkg/sync"
)

// Flags holds the watch command flags.
type Flags struct {
	Host     string
	Port     int
	NoServer bool
	Import   bool
}

// NewCommand creates the watch command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}
	defaults := app.ServerConfig()

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: "core",
		Short:   "Sync continuously and serve health and metrics",
		Long: `Watch syncs every entity once, then again every AUTO_SYNC_INTERVAL
(default 1h) until interrupted. Each entity syncs on its own, so one
failing entity does not hold back the others.

While running it serves:
  GET /healthz   liveness
  GET /readyz    503 when the last run failed or no run finished recently
  GET /metrics   Prometheus metrics of every reconciled table`,
		Example: `  airsync watch                     # Sync hourly, serve on localhost:9090
  airsync watch --host 0.0.0.0 --port 8080
  airsync watch --import            # Import every source before the first sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.ServerConfig()
			cfg.Host = flags.Host
			cfg.Port = flags.Port
			return ExecuteWatch(cmd.Context(), app, flags, cfg)
		},
	}

	cmd.Flags().StringVar(&flags.Host, "host", defaults.Host, "address to serve health and metrics on")
	cmd.Flags().IntVarP(&flags.Port, "port", "p", defaults.Port, "port to serve health and metrics on")
	cmd.Flags().BoolVar(&flags.NoServer, "no-server", false, "do not serve health and metrics")
	cmd.Flags().BoolVar(&flags.Import, "import", false, "run every configured import before the first sync")
	return cmd
}

// ExecuteWatch runs until ctx is canceled.
func ExecuteWatch(ctx context.Context, app appcontext.Interface, flags *Flags, cfg server.Config) error {
	logger := app.Logger()

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	if flags.Import {
		if _, err := client.Import(ctx); err != nil {
			logger.Error().Err(err).Msg("Import failed")
		}
	}

	for _, entity := range airsync.Entities() {
		if _, err := client.Sync(ctx, pkgsync.WithEntities(entity)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Str("entity", entity).Msg("Initial sync failed")
		}
	}

	if err := client.AutoSyncOn(); err != nil {
		return err
	}
	defer func() {
		if err := client.AutoSyncOff(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop automatic sync")
		}
	}()

	if flags.NoServer {
		<-ctx.Done()
		return nil
	}
	srv := server.New(cfg, logger, app.Metrics().Handler(), app.Metrics(), app.Version())
	return srv.Run(ctx)
}
