package airsync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Syncer = (*client)(nil)

// Syncer reconciles the Local Store into the remote mirror.
type Syncer interface {
	// Sync runs the selected entity syncs in order. The first fatal error
	// aborts the run and no result is returned.
	Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error)
}

// RunObserver is told about every finished, non dry run sync.
type RunObserver interface {
	ObserveRun(err error, at time.Time)
}

// Sync reconciles the selected entities into the remote mirror.
func (c *client) Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse options over the client defaults
	options := sync.Defaults()
	options.Concurrency = c.options.concurrency
	options.Observer = c.options.observer
	options.Apply(opts...)

	// Step 2: Validate options upfront
	if err := options.Validate(Entities()); err != nil {
		return nil, err
	}

	// Step 3: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {} // No-op cancel if no timeout
	}
	defer cancel()

	c.runMu.Lock()
	defer c.runMu.Unlock()

	result := sync.NewResult(options.DryRun)
	result.RunID = uuid.NewString()
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.FromContext(ctx)
	logger.Info().
		Strs("entities", options.Entities).
		Bool("dry_run", options.DryRun).
		Msg("Starting sync")

	// Step 4: Sync every selected entity in order
	for _, name := range Entities() {
		if !options.Selected(name) {
			continue
		}
		e, err := c.entity(ctx, name)
		if err != nil {
			return nil, c.finish(options, err)
		}
		er, err := e.sync(ctx, options)
		if err != nil {
			logger.Error().Err(err).Str("entity", name).Msg("Sync aborted")
			return nil, c.finish(options, err)
		}
		logger.Info().Msg(er.Summary())
		result.Add(er)
	}
	result.Finish()

	// Step 5: Log change summary
	if result.HasChanges() {
		t := result.Totals()
		logger.Info().
			Int("created", t.Created).
			Int("updated", t.Updated).
			Dur("duration", result.Duration).
			Msg("Changes applied")
	} else {
		logger.Info().Bool("dry_run", options.DryRun).Msg("No changes applied")
	}

	// Step 6: Trigger hooks for remote changes
	if !options.DryRun {
		c.hooks.trigger(result)
	}
	return result, c.finish(options, nil)
}

// finish reports a finished run to the observer and passes err through.
func (c *client) finish(options *sync.Options, err error) error {
	if options.DryRun {
		return err
	}
	if obs, ok := c.options.observer.(RunObserver); ok {
		obs.ObserveRun(err, time.Now())
	}
	return err
}
