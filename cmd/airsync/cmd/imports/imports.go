// Package imports provides the import command implementation.
package imports

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/cmd/output"
)

// NewCommand creates the import command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "import [entity...]",
		GroupID: "core",
		Short:   "Load upstream data into the local database",
		Long: `Import runs the import job of each selected entity:

  journal-club   meeting notes from the journal club repository on GitHub
  rfds           the RFD index and documents from the rfd repository
  mailing-list   the signup CSV export (SUBSCRIBERS_CSV)
  applicants     the application form CSV exports (sources.applicant_sheets)

With no arguments every entity with a configured source is imported.
Import only writes the local database; run sync to push the changes.`,
		Example: `  airsync import                  # Import every configured source
  airsync import rfds applicants  # Import two entities`,
		ValidArgs: airsync.Entities(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteImport(cmd.Context(), app, args, cmd.OutOrStdout())
		},
	}
}

// ExecuteImport runs the import jobs and prints a row count per entity.
func ExecuteImport(ctx context.Context, app appcontext.Interface, entities []string, w io.Writer) error {
	client, err := app.Client(ctx)
	if err != nil {
		return err
	}
	imported, err := client.Import(ctx, entities...)
	if err != nil {
		return err
	}
	if imported == nil {
		imported = []airsync.Imported{}
	}
	return output.NewFormatter(output.DetectFormat(app.OutputFormat())).Format(w, imported)
}
