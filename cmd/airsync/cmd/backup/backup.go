// Package backup provides the backup command implementation.
package backup

import (
	"context"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/agentstation/airsync"
	"github.com/agentstation/airsync/internal/appcontext"
	"github.com/agentstation/airsync/internal/cmd/output"
	pkgbackup "github.com/agentstation/airsync/pkg/backup"
	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/errors"
)

// Flags holds the backup command flags.
type Flags struct {
	Encoding string
	View     string
}

// NewCommand creates the backup command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "backup <entity> [table...]",
		GroupID: "management",
		Short:   "Snapshot Airtable tables into the blob store",
		Long: `Backup reads every record of the entity's Airtable tables and writes
them to the configured blob store (BLOB_DRIVER: fs, memory or s3) under
<table>/<timestamp>.<ext>.

With no table names every table of the entity is backed up.`,
		Example: `  airsync backup journal-club                 # Meetings and Papers
  airsync backup rfds --encoding yaml         # One YAML document
  airsync backup mailing-list --view "Grid view"`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return airsync.Entities(), cobra.ShellCompDirectiveNoFileComp
			}
			return app.Tables(args[0]), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ExecuteBackup(cmd.Context(), app, flags, args[0], args[1:], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.Encoding, "encoding", "jsonl", "backup file encoding: jsonl, json, yaml")
	cmd.Flags().StringVar(&flags.View, "view", "", "Airtable view to read records from")
	return cmd
}

// ExecuteBackup writes one backup per table and prints the stored objects.
func ExecuteBackup(ctx context.Context, app appcontext.Interface, flags *Flags, entity string, tables []string, w io.Writer) error {
	if !slices.Contains(airsync.Entities(), entity) {
		return &errors.ValidationError{Field: "entity", Value: entity, Message: "entity not found"}
	}

	encoding, err := pkgbackup.ParseFormat(flags.Encoding)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		tables = app.Tables(entity)
	}
	if len(tables) == 0 {
		return errors.NewConfigError("backup", "no tables configured for "+entity, nil)
	}

	m, err := app.Mirror(entity)
	if err != nil {
		return err
	}
	store, err := app.Blob(ctx)
	if err != nil {
		return err
	}

	opts := []pkgbackup.Option{pkgbackup.WithFormat(encoding)}
	if flags.View != "" {
		opts = append(opts, pkgbackup.WithView(flags.View))
	}

	infos := make([]blob.Info, 0, len(tables))
	for _, table := range tables {
		info, err := pkgbackup.Table(ctx, m, store, table, opts...)
		if err != nil {
			return errors.WrapResource("backup", "table", table, err)
		}
		infos = append(infos, info)
	}

	format := output.DetectFormat(app.OutputFormat())
	if format == output.FormatTable {
		return output.NewFormatter(format).Format(w, output.BackupTable(infos))
	}
	return output.NewFormatter(format).Format(w, infos)
}
