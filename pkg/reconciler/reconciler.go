// Package reconciler converges a remote table to match a local collection.
//
// A run indexes every remote record by the local id held in its link field,
// then for each local row either updates the matching record or creates a
// new one. Fields the remote store is authoritative for are carried forward
// from the indexed snapshot so operator edits survive. Nothing is ever
// deleted.
package reconciler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/differ"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Reconciler reconciles a local collection of T into a remote table.
type Reconciler[T any] interface {
	// Reconcile converges table to rows. Listing failures and
	// non-validation write failures abort the run and return no result.
	Reconcile(ctx context.Context, rows []T, table string) (*Result, error)

	// OnCreated registers a callback for records created by a run.
	OnCreated(fn CreatedHook[T])

	// OnUpdated registers a callback for records updated by a run.
	OnUpdated(fn UpdatedHook[T])

	// OnMerged registers a callback for rows merged with a remote record.
	OnMerged(fn MergedHook[T])
}

type reconciler[T any] struct {
	mirror mirror.Mirror
	mapper Mapper[T]
	opts   *options

	mu    sync.RWMutex
	hooks hooks[T]
}

var _ Reconciler[struct{}] = (*reconciler[struct{}])(nil)

// New creates a Reconciler writing through m and mapping rows with mapper.
func New[T any](m mirror.Mirror, mapper Mapper[T], opts ...Option) (Reconciler[T], error) {
	if m == nil {
		return nil, &errors.ValidationError{Field: "mirror", Message: "cannot be nil"}
	}
	if mapper == nil {
		return nil, &errors.ValidationError{Field: "mapper", Message: "cannot be nil"}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler[T]{mirror: m, mapper: mapper, opts: options}, nil
}

// OnCreated implements Reconciler.
func (r *reconciler[T]) OnCreated(fn CreatedHook[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.onCreated = append(r.hooks.onCreated, fn)
}

// OnUpdated implements Reconciler.
func (r *reconciler[T]) OnUpdated(fn UpdatedHook[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.onUpdated = append(r.hooks.onUpdated, fn)
}

// OnMerged implements Reconciler.
func (r *reconciler[T]) OnMerged(fn MergedHook[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks.onMerged = append(r.hooks.onMerged, fn)
}

type writeKind int

const (
	kindCreate writeKind = iota
	kindUpdate
	kindUnchanged
)

func (k writeKind) String() string {
	switch k {
	case kindCreate:
		return "create"
	case kindUpdate:
		return "update"
	default:
		return "unchanged"
	}
}

// write is the planned outcome for one local row.
type write[T any] struct {
	kind     writeKind
	row      T
	localID  int
	remoteID string
	fields   mirror.Fields
	changes  []differ.FieldChange
	merged   bool

	// set by apply
	done   bool
	record mirror.Record
}

// Reconcile performs reconciliation with a step-by-step flow.
func (r *reconciler[T]) Reconcile(ctx context.Context, rows []T, table string) (*Result, error) {
	// Step 1: Validate and initialize
	if table == "" {
		return nil, &errors.ValidationError{Field: "table", Message: "cannot be empty"}
	}
	ctx = logging.WithTable(ctx, table)
	logger := logging.FromContext(ctx)

	result := NewResult(table)
	result.Metadata.DryRun = r.opts.dryRun
	result.Metadata.View = r.opts.view

	// Step 2: Index the remote table
	index, report, err := BuildIndex(ctx, r.mirror, r.mapper, table, mirror.ListOptions{View: r.opts.view})
	if err != nil {
		return nil, err
	}
	result.Stats.Skipped = len(report.Skipped)
	for _, id := range report.Duplicates {
		result.Warnings = append(result.Warnings, fmt.Sprintf("record %s shares a link id with an older record and was ignored", id))
	}
	logger.Debug().
		Int("remote_records", report.Total).
		Int("indexed", len(index)).
		Msg("Indexed remote table")

	// Step 3: Plan a write for every row
	plan, err := r.plan(ctx, rows, index, report.Undecodable, result)
	if err != nil {
		return nil, err
	}

	// Step 4: Apply writes
	if err := r.apply(ctx, table, plan, result); err != nil {
		logger.Error().Err(err).Msg("Reconciliation aborted")
		return nil, err
	}

	// Step 5: Tally, then run hooks
	seen := make(map[int]bool, len(plan))
	for _, w := range plan {
		seen[w.localID] = true
		r.tally(w, result)
	}
	for id := range index {
		if !seen[id] {
			result.Stats.Orphans++
		}
	}
	if !r.opts.dryRun {
		r.trigger(ctx, plan, result)
	}

	// Step 6: Finalize and report
	result.Finalize()
	if r.opts.observer != nil {
		r.opts.observer.ObserveReconcile(result)
	}
	logger.Info().
		Int("updated", result.Stats.Updated).
		Int("created", result.Stats.Created).
		Int("unchanged", result.Stats.Unchanged).
		Int("skipped", result.Stats.Skipped).
		Int("failed", result.Stats.Failed).
		Int("orphans", result.Stats.Orphans).
		Bool("dry_run", r.opts.dryRun).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciled table")

	return result, nil
}

// plan merges each row with its indexed snapshot and decides whether it is
// a create, an update or a no-op. A local id appearing twice keeps its
// last row, so no two writes in a run ever target the same remote record.
// A row whose remote record exists but cannot be decoded is reported as a
// failure and left alone.
func (r *reconciler[T]) plan(ctx context.Context, rows []T, index Index[T], undecodable map[int]*errors.DecodeError, result *Result) ([]*write[T], error) {
	logger := logging.FromContext(ctx)

	plan := make([]*write[T], 0, len(rows))
	position := make(map[int]int, len(rows))
	for _, row := range rows {
		id := r.mapper.Key(row)
		if id <= 0 {
			result.Stats.Skipped++
			logger.Warn().Int("local_id", id).Msg("Skipping local row without an id")
			continue
		}

		existing, found := index[id]
		if decodeErr, known := undecodable[id]; known && !found {
			if r.opts.failFast {
				return nil, decodeErr
			}
			result.Failed = append(result.Failed, Failure{LocalID: id, RemoteID: decodeErr.RecordID, Operation: "merge", Err: decodeErr})
			logger.Warn().Err(decodeErr).Int("local_id", id).Str("record_id", decodeErr.RecordID).
				Msg("Remote record cannot be decoded; skipping row")
			continue
		}

		w := &write[T]{kind: kindCreate, localID: id}
		r.mapper.ClearRemoteOwned(&row)
		if found {
			r.mapper.CopyRemoteOwned(&row, existing.Value)
			w.kind = kindUpdate
			w.remoteID = existing.Record.ID
			w.merged = true
		}

		fields, err := r.mapper.Encode(row)
		if err != nil {
			if r.opts.failFast {
				return nil, errors.WrapValidation(fmt.Sprintf("row %d", id), err)
			}
			result.Failed = append(result.Failed, Failure{LocalID: id, RemoteID: w.remoteID, Operation: "encode", Err: err})
			logger.Warn().Err(err).Int("local_id", id).Msg("Skipping row that failed to encode")
			continue
		}
		if fields == nil {
			fields = mirror.Fields{}
		}
		fields[constants.LinkField] = id
		w.row = row
		w.fields = fields

		if found {
			w.changes = r.opts.differ.Fields(existing.Record.Fields, fields)
			if len(w.changes) == 0 && !r.opts.force {
				w.kind = kindUnchanged
				w.record = existing.Record
			}
		}

		if at, dup := position[id]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("local id %d appears more than once; keeping the last row", id))
			plan[at] = w
			continue
		}
		position[id] = len(plan)
		plan = append(plan, w)
	}
	return plan, nil
}

// apply issues the planned creates and updates in input order, fanning
// batches out over at most concurrency goroutines. With a concurrency of
// one the calls are strictly sequential.
func (r *reconciler[T]) apply(ctx context.Context, table string, plan []*write[T], result *Result) error {
	if r.opts.dryRun {
		return nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)
	for _, batch := range batches(plan, r.opts.batchSize) {
		g.Go(func() error {
			failed, err := r.writeBatch(gctx, table, batch)
			if len(failed) > 0 {
				mu.Lock()
				result.Failed = append(result.Failed, failed...)
				mu.Unlock()
			}
			return err
		})
	}
	return g.Wait()
}

// writeBatch sends one create or update call. Permanent validation errors,
// and updates of records deleted since indexing, are isolated to the
// offending rows and reported as failures; anything else is returned as a
// *errors.RemoteWriteError.
func (r *reconciler[T]) writeBatch(ctx context.Context, table string, batch []*write[T]) ([]Failure, error) {
	kind := batch[0].kind
	records := make([]mirror.Record, len(batch))
	for i, w := range batch {
		records[i] = mirror.Record{ID: w.remoteID, Fields: w.fields}
	}

	var (
		out []mirror.Record
		err error
	)
	if kind == kindCreate {
		out, err = r.mirror.CreateRecords(ctx, table, records)
	} else {
		out, err = r.mirror.UpdateRecords(ctx, table, records)
	}

	if err == nil {
		for i, w := range batch {
			w.done = true
			if i < len(out) {
				w.record = out[i]
			} else {
				w.record = mirror.Record{ID: w.remoteID, Fields: w.fields}
			}
		}
		return nil, nil
	}

	gone := kind == kindUpdate && errors.IsNotFound(err)
	permanent := (errors.IsPermanent(err) || gone) && !r.opts.failFast
	if permanent && len(batch) > 1 {
		var failed []Failure
		for _, w := range batch {
			f, err := r.writeBatch(ctx, table, []*write[T]{w})
			if err != nil {
				return failed, err
			}
			failed = append(failed, f...)
		}
		return failed, nil
	}

	w := batch[0]
	if permanent {
		logging.FromContext(ctx).Warn().Err(err).
			Int("local_id", w.localID).
			Str("record_id", w.remoteID).
			Str("operation", kind.String()).
			Msg("Remote store rejected row; skipping")
		return []Failure{{LocalID: w.localID, RemoteID: w.remoteID, Operation: kind.String(), Err: err}}, nil
	}
	return nil, errors.NewRemoteWriteError(table, kind.String(), w.localID, w.remoteID, err)
}

func (r *reconciler[T]) tally(w *write[T], result *Result) {
	wrote := w.done || r.opts.dryRun
	switch {
	case w.kind == kindUnchanged:
		result.Stats.Unchanged++
	case w.kind == kindCreate && wrote:
		result.Stats.Created++
		result.Changeset.Add(differ.RecordChange{LocalID: w.localID, RemoteID: w.record.ID, Type: differ.ChangeTypeAdd})
	case w.kind == kindUpdate && wrote:
		result.Stats.Updated++
		result.Changeset.Add(differ.RecordChange{LocalID: w.localID, RemoteID: w.remoteID, Type: differ.ChangeTypeUpdate, Changes: w.changes})
	}
}

// trigger runs registered hooks in input order.
func (r *reconciler[T]) trigger(ctx context.Context, plan []*write[T], result *Result) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	logger := logging.FromContext(ctx)

	for _, w := range plan {
		switch {
		case w.kind == kindCreate && w.done:
			for _, fn := range r.hooks.onCreated {
				fn(w.row, w.record)
			}
		case w.kind == kindUpdate && w.done:
			for _, fn := range r.hooks.onUpdated {
				fn(w.row, w.record, w.changes)
			}
		}

		if !w.merged || (w.kind == kindUpdate && !w.done) {
			continue
		}
		for _, fn := range r.hooks.onMerged {
			if err := fn(ctx, w.row); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("read-back of local id %d failed: %v", w.localID, err))
				logger.Warn().Err(err).Int("local_id", w.localID).Msg("Failed to read back remote fields")
			}
		}
	}
}

// batches groups consecutive pending writes of the same kind into calls of
// at most size records. Unchanged rows are dropped.
func batches[T any](plan []*write[T], size int) [][]*write[T] {
	var (
		out [][]*write[T]
		cur []*write[T]
	)
	for _, w := range plan {
		if w.kind == kindUnchanged {
			continue
		}
		if len(cur) > 0 && (cur[0].kind != w.kind || len(cur) == size) {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, w)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
