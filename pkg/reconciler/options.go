package reconciler

import (
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/differ"
	"github.com/agentstation/airsync/pkg/errors"
)

type options struct {
	view        string
	concurrency int
	batchSize   int
	dryRun      bool
	force       bool
	failFast    bool
	differ      differ.Differ
	observer    Observer
}

func defaultOptions() *options {
	return &options{
		view:        constants.DefaultView,
		concurrency: constants.DefaultConcurrency,
		batchSize:   1,
		differ:      differ.New(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithView sets the remote view records are indexed from. An empty view
// lists the whole table.
func WithView(view string) Option {
	return func(o *options) error {
		o.view = view
		return nil
	}
}

// WithConcurrency sets how many writes may be in flight at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ValidationError{
				Field:   "concurrency",
				Value:   n,
				Message: "must be between 1 and 5",
			}
		}
		o.concurrency = n
		return nil
	}
}

// WithBatchSize sets how many records go into one create or update call.
func WithBatchSize(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxBatchSize {
			return &errors.ValidationError{
				Field:   "batch_size",
				Value:   n,
				Message: "must be between 1 and 10",
			}
		}
		o.batchSize = n
		return nil
	}
}

// WithDryRun computes the result without writing to the remote store.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithForceUpdate writes every matched record even when its payload is unchanged.
func WithForceUpdate(enabled bool) Option {
	return func(o *options) error {
		o.force = enabled
		return nil
	}
}

// WithFailFast aborts the run on the first write error, including
// validation errors that would otherwise be skipped.
func WithFailFast(enabled bool) Option {
	return func(o *options) error {
		o.failFast = enabled
		return nil
	}
}

// WithDiffer replaces the payload differ.
func WithDiffer(d differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{Field: "differ", Message: "cannot be nil"}
		}
		o.differ = d
		return nil
	}
}

// WithObserver reports every finished run to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) error {
		if obs == nil {
			return &errors.ValidationError{Field: "observer", Message: "cannot be nil"}
		}
		o.observer = obs
		return nil
	}
}
