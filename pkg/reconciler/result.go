package reconciler

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/airsync/pkg/differ"
)

// Stats are the counters of one reconciliation run.
type Stats struct {
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
	Orphans   int `json:"orphans" yaml:"orphans"`
}

// Failure is a row whose write was rejected and skipped.
type Failure struct {
	LocalID   int
	RemoteID  string
	Operation string
	Err       error
}

// Result represents the outcome of a reconciliation run.
type Result struct {
	Table     string
	Stats     Stats
	Changeset *differ.Changeset
	Failed    []Failure
	Warnings  []string
	Metadata  ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	DryRun    bool
	View      string
}

// NewResult creates a new result with defaults.
func NewResult(table string) *Result {
	return &Result{
		Table:     table,
		Changeset: &differ.Changeset{Table: table},
		Failed:    []Failure{},
		Warnings:  []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
		},
	}
}

// Finalize stamps the end time.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Stats.Failed = len(r.Failed)
	r.Changeset.Sort()
}

// IsSuccess returns true if no row failed.
func (r *Result) IsSuccess() bool {
	return len(r.Failed) == 0
}

// HasChanges returns true if anything was (or, in a dry run, would be) written.
func (r *Result) HasChanges() bool {
	return r.Stats.Created+r.Stats.Updated > 0
}

// FailedIDs returns the local ids of the rows that failed.
func (r *Result) FailedIDs() []int {
	ids := make([]int, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.LocalID
	}
	return ids
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	prefix := "Reconciled"
	if r.Metadata.DryRun {
		prefix = "Dry run of"
	}
	s := fmt.Sprintf("%s %s: %d updated, %d created, %d unchanged",
		prefix, r.Table, r.Stats.Updated, r.Stats.Created, r.Stats.Unchanged)

	var extra []string
	if r.Stats.Skipped > 0 {
		extra = append(extra, fmt.Sprintf("%d skipped", r.Stats.Skipped))
	}
	if len(r.Failed) > 0 {
		extra = append(extra, fmt.Sprintf("%d failed %v", len(r.Failed), r.FailedIDs()))
	}
	if len(extra) > 0 {
		s += " (" + strings.Join(extra, ", ") + ")"
	}
	return s
}
