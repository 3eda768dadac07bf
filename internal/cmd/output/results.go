package output

import (
	"strconv"
	"time"

	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/sync"
)

// SyncReport is the machine readable form of a sync result.
type SyncReport struct {
	RunID    string           `json:"run_id" yaml:"run_id"`
	DryRun   bool             `json:"dry_run" yaml:"dry_run"`
	Duration string           `json:"duration" yaml:"duration"`
	Totals   reconciler.Stats `json:"totals" yaml:"totals"`
	Tables   []TableReport    `json:"tables" yaml:"tables"`
}

// TableReport is one reconciled table of a SyncReport.
type TableReport struct {
	Entity   string           `json:"entity" yaml:"entity"`
	Table    string           `json:"table" yaml:"table"`
	Stats    reconciler.Stats `json:"stats" yaml:"stats"`
	Warnings []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Report summarizes result for json and yaml output.
func Report(result *sync.Result) SyncReport {
	report := SyncReport{
		RunID:    result.RunID,
		DryRun:   result.DryRun,
		Duration: result.Duration.Round(time.Millisecond).String(),
		Totals:   result.Totals(),
		Tables:   []TableReport{},
	}
	for _, er := range result.Entities {
		for _, t := range er.Tables {
			report.Tables = append(report.Tables, TableReport{
				Entity:   er.Entity,
				Table:    t.Table,
				Stats:    t.Stats,
				Warnings: t.Warnings,
			})
		}
	}
	return report
}

var countColumns = []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight}

// SyncTable renders one row per reconciled table.
func SyncTable(result *sync.Result) Data {
	data := Data{
		Headers:         []string{"Entity", "Table", "Created", "Updated", "Unchanged", "Skipped", "Failed", "Orphans"},
		ColumnAlignment: countColumns,
		Footer:          result.Summary(),
	}
	for _, er := range result.Entities {
		for _, t := range er.Tables {
			data.Rows = append(data.Rows, []string{
				er.Entity,
				t.Table,
				strconv.Itoa(t.Stats.Created),
				strconv.Itoa(t.Stats.Updated),
				strconv.Itoa(t.Stats.Unchanged),
				strconv.Itoa(t.Stats.Skipped),
				strconv.Itoa(t.Stats.Failed),
				strconv.Itoa(t.Stats.Orphans),
			})
		}
	}
	return data
}

// BackupTable renders one row per written backup object.
func BackupTable(infos []blob.Info) Data {
	data := Data{
		Headers:         []string{"Key", "Size", "Type"},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft},
	}
	for _, info := range infos {
		data.Rows = append(data.Rows, []string{info.Key, strconv.FormatInt(info.Size, 10), info.ContentType})
	}
	return data
}
