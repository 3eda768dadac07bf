// Package sync provides the sync command implementation.
package sync

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/cmd/output"
)

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "sync [entity...]",
		GroupID: "core",
		Short:   "Reconcile the local database into Airtable",
		Long: `Sync reconciles every selected entity from the local database into its
Airtable tables, in order: journal-club, rfds, mailing-list, applicants.

Records are matched on the id field. Missing records are created, changed
records are updated and unchanged records are left alone. Record links
between tables are resolved from the remote ids of the linked records.

The first fatal error, such as a failed fetch of a remote table, aborts
the whole run.`,
		Example: `  airsync sync                          # Sync every entity
  airsync sync rfds                     # Sync only RFDs
  airsync sync --dry-run                # Preview changes
  airsync sync --import journal-club    # Import from GitHub, then sync
  airsync sync --force -o json          # Rewrite every record, print JSON`,
		ValidArgs: airsync.Entities(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteSync(cmd.Context(), app, flags, args, cmd.OutOrStdout())
		},
	}

	flags = addFlags(cmd)
	return cmd
}

// ExecuteSync runs the optional imports, then the sync, and prints the result.
func ExecuteSync(ctx context.Context, app appcontext.Interface, flags *Flags, entities []string, w io.Writer) error {
	logger := app.Logger()

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	if flags.Import {
		imported, err := client.Import(ctx, entities...)
		if err != nil {
			return err
		}
		for _, im := range imported {
			logger.Info().Str("entity", im.Entity).Int("rows", im.Rows).Msg("Imported")
		}
	}

	result, err := client.Sync(ctx, BuildSyncOptions(flags, entities)...)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	if format == output.FormatTable {
		return output.NewFormatter(format).Format(w, output.SyncTable(result))
	}
	return output.NewFormatter(format).Format(w, output.Report(result))
}
