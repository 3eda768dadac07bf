package sync

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/airsync/pkg/constants"
	pkgsync "github.com/agentstation/airsync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun      bool
	Force       bool
	FailFast    bool
	Import      bool
	Timeout     time.Duration
	Concurrency int
	BatchSize   int
	View        string
}

// addFlags registers sync flags on cmd.
func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "compute changes without writing to Airtable")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "update every matched record even when unchanged")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "stop a table at its first failed batch")
	cmd.Flags().BoolVar(&flags.Import, "import", false, "run the import jobs of the selected entities first")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", constants.SyncTimeout, "limit for the whole run")
	cmd.Flags().IntVar(&flags.Concurrency, "concurrency", 0, "remote writes in flight per table (default from config)")
	cmd.Flags().IntVar(&flags.BatchSize, "batch-size", 0, "records per remote write (default 1, at most 10)")
	cmd.Flags().StringVar(&flags.View, "view", "", "Airtable view to read remote records from")
	return flags
}

// BuildSyncOptions creates sync options from the flags and selected entities.
func BuildSyncOptions(flags *Flags, entities []string) []pkgsync.Option {
	opts := []pkgsync.Option{
		pkgsync.WithDryRun(flags.DryRun),
		pkgsync.WithForce(flags.Force),
		pkgsync.WithFailFast(flags.FailFast),
	}
	if len(entities) > 0 {
		opts = append(opts, pkgsync.WithEntities(entities...))
	}
	if flags.Timeout > 0 {
		opts = append(opts, pkgsync.WithTimeout(flags.Timeout))
	}
	if flags.Concurrency > 0 {
		opts = append(opts, pkgsync.WithConcurrency(flags.Concurrency))
	}
	if flags.BatchSize > 0 {
		opts = append(opts, pkgsync.WithBatchSize(flags.BatchSize))
	}
	if flags.View != "" {
		opts = append(opts, pkgsync.WithView(flags.View))
	}
	return opts
}
