// Package sync holds the pieces shared by every entity sync: run options,
// the per-table reconcile step and the aggregated run result.
package sync

import (
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/reconciler"
)

// Options controls a sync run.
type Options struct {
	// Orchestration control
	DryRun   bool          // Compute results without writing to the remote store
	FailFast bool          // Abort on the first write error, validation errors included
	Force    bool          // Write matched records even when unchanged
	Timeout  time.Duration // Timeout for the entire run (0 means none)

	// Entity selection
	Entities []string // Which entities to sync (empty means all)

	// Remote write shaping
	View        string // Remote view records are indexed from
	Concurrency int    // Writes in flight at once
	BatchSize   int    // Records per create or update call

	// Observer receives every table result.
	Observer reconciler.Observer
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		View:        constants.DefaultView,
		Concurrency: constants.DefaultConcurrency,
		BatchSize:   1,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks the options against the entities that can be synced.
func (s *Options) Validate(known []string) error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if s.Concurrency < 1 || s.Concurrency > constants.MaxConcurrency {
		return &errors.ValidationError{
			Field:   "Concurrency",
			Value:   s.Concurrency,
			Message: fmt.Sprintf("must be between 1 and %d", constants.MaxConcurrency),
		}
	}
	if s.BatchSize < 1 || s.BatchSize > constants.MaxBatchSize {
		return &errors.ValidationError{
			Field:   "BatchSize",
			Value:   s.BatchSize,
			Message: fmt.Sprintf("must be between 1 and %d", constants.MaxBatchSize),
		}
	}
	for _, e := range s.Entities {
		if !slices.Contains(known, e) {
			return &errors.ValidationError{
				Field:   "Entities",
				Value:   e,
				Message: fmt.Sprintf("entity '%s' not found", e),
			}
		}
	}
	return nil
}

// Selected reports whether entity is part of the run.
func (s *Options) Selected(entity string) bool {
	return len(s.Entities) == 0 || slices.Contains(s.Entities, entity)
}

// ReconcilerOptions converts the run options into reconciler options.
func (s *Options) ReconcilerOptions() []reconciler.Option {
	opts := []reconciler.Option{
		reconciler.WithView(s.View),
		reconciler.WithDryRun(s.DryRun),
		reconciler.WithForceUpdate(s.Force),
		reconciler.WithFailFast(s.FailFast),
	}
	if s.Concurrency > 0 {
		opts = append(opts, reconciler.WithConcurrency(s.Concurrency))
	}
	if s.BatchSize > 0 {
		opts = append(opts, reconciler.WithBatchSize(s.BatchSize))
	}
	if s.Observer != nil {
		opts = append(opts, reconciler.WithObserver(s.Observer))
	}
	return opts
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithFailFast configures fail-fast behavior.
func WithFailFast(failFast bool) Option {
	return func(opts *Options) {
		opts.FailFast = failFast
	}
}

// WithForce configures unconditional updates.
func WithForce(force bool) Option {
	return func(opts *Options) {
		opts.Force = force
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithEntities configures which entities to sync.
func WithEntities(entities ...string) Option {
	return func(opts *Options) {
		opts.Entities = entities
	}
}

// WithView configures the remote view to index from.
func WithView(view string) Option {
	return func(opts *Options) {
		opts.View = view
	}
}

// WithConcurrency configures how many writes run at once.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		opts.Concurrency = n
	}
}

// WithBatchSize configures records per write call.
func WithBatchSize(n int) Option {
	return func(opts *Options) {
		opts.BatchSize = n
	}
}

// WithObserver reports every table result to obs.
func WithObserver(obs reconciler.Observer) Option {
	return func(opts *Options) {
		opts.Observer = obs
	}
}
