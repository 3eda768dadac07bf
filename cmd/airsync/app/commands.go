package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/airsync/cmd/airsync/cmd/backup"
	"github.com/agentstation/airsync/cmd/airsync/cmd/imports"
	synccmd "github.com/agentstation/airsync/cmd/airsync/cmd/sync"
	"github.com/agentstation/airsync/cmd/airsync/cmd/watch"
)

// CreateSyncCommand creates the sync command with app dependencies.
func (a *App) CreateSyncCommand() *cobra.Command {
	return synccmd.NewCommand(a)
}

// CreateImportCommand creates the import command with app dependencies.
func (a *App) CreateImportCommand() *cobra.Command {
	return imports.NewCommand(a)
}

// CreateWatchCommand creates the watch command with app dependencies.
func (a *App) CreateWatchCommand() *cobra.Command {
	return watch.NewCommand(a)
}

// CreateBackupCommand creates the backup command with app dependencies.
func (a *App) CreateBackupCommand() *cobra.Command {
	return backup.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("airsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
