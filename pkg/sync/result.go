package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/airsync/pkg/linker"
	"github.com/agentstation/airsync/pkg/reconciler"
)

// Result represents the complete result of a sync run.
type Result struct {
	Entities []*EntityResult // Results per entity, in run order

	// Operation metadata
	RunID     string
	DryRun    bool
	StartTime time.Time
	Duration  time.Duration
}

// EntityResult is the outcome of syncing one entity.
type EntityResult struct {
	Entity string
	Tables []*reconciler.Result // One per remote table, in reconcile order
	Links  *linker.Stats        // Set when the entity resolves cross references
}

// NewResult starts a result clock.
func NewResult(dryRun bool) *Result {
	return &Result{DryRun: dryRun, StartTime: time.Now()}
}

// Add appends an entity result.
func (sr *Result) Add(er *EntityResult) {
	if er != nil {
		sr.Entities = append(sr.Entities, er)
	}
}

// Finish stamps the run duration.
func (sr *Result) Finish() {
	sr.Duration = time.Since(sr.StartTime)
}

// Totals sums the stats of every table.
func (sr *Result) Totals() reconciler.Stats {
	var total reconciler.Stats
	for _, er := range sr.Entities {
		for _, t := range er.Tables {
			total.Created += t.Stats.Created
			total.Updated += t.Stats.Updated
			total.Unchanged += t.Stats.Unchanged
			total.Skipped += t.Stats.Skipped
			total.Failed += t.Stats.Failed
			total.Orphans += t.Stats.Orphans
		}
	}
	return total
}

// HasChanges returns true if the sync result contains any changes.
func (sr *Result) HasChanges() bool {
	t := sr.Totals()
	return t.Created+t.Updated > 0
}

// Table returns the result for the named remote table, or nil.
func (sr *Result) Table(name string) *reconciler.Result {
	for _, er := range sr.Entities {
		for _, t := range er.Tables {
			if t.Table == name {
				return t
			}
		}
	}
	return nil
}

// Summary returns a human-readable summary of the sync result.
func (sr *Result) Summary() string {
	t := sr.Totals()
	summary := fmt.Sprintf("%d created, %d updated, %d unchanged across %d tables",
		t.Created, t.Updated, t.Unchanged, sr.tableCount())
	var parts []string
	if t.Skipped > 0 || t.Failed > 0 {
		parts = append(parts, fmt.Sprintf("(%d skipped, %d failed)", t.Skipped, t.Failed))
	}
	if sr.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

func (sr *Result) tableCount() int {
	n := 0
	for _, er := range sr.Entities {
		n += len(er.Tables)
	}
	return n
}

// Summary returns a human-readable summary of the entity result.
func (er *EntityResult) Summary() string {
	parts := make([]string, 0, len(er.Tables)+1)
	for _, t := range er.Tables {
		parts = append(parts, t.Summary())
	}
	if er.Links != nil {
		parts = append(parts, "links: "+er.Links.String())
	}
	return er.Entity + ": " + strings.Join(parts, "; ")
}
