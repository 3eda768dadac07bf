package airsync

import (
	"context"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncer provides controls for automatic syncs.
type AutoSyncer interface {
	// AutoSyncOn begins automatic syncs at the configured interval
	AutoSyncOn() error

	// AutoSyncOff stops automatic syncs and waits for a running one to exit
	AutoSyncOff() error
}

// AutoSyncOn begins automatic syncs. Every tick syncs each entity on its
// own, so a failing entity does not hold back the others.
func (c *client) AutoSyncOn() error {
	if c.options.autoSyncInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   c.options.autoSyncInterval,
			Message: "sync interval must be positive",
		}
	}

	// Stop any existing auto-syncs to prevent resource leaks
	if err := c.AutoSyncOff(); err != nil {
		return err
	}

	// Recreate stopCh since it was closed in AutoSyncOff
	c.stopCh = make(chan struct{})
	c.syncDone = make(chan struct{})
	c.syncTicker = time.NewTicker(c.options.autoSyncInterval)

	ctx, cancel := context.WithCancel(context.Background())
	c.syncCancel = cancel

	go func(parentCtx context.Context, ticker *time.Ticker, stopCh, done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				if !c.syncAll(parentCtx) {
					return
				}
			case <-parentCtx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}(ctx, c.syncTicker, c.stopCh, c.syncDone)

	logging.Info().Dur("interval", c.options.autoSyncInterval).Msg("Automatic sync enabled")
	return nil
}

// syncAll runs one automatic sync of every entity. It reports false once
// the parent context is canceled.
func (c *client) syncAll(ctx context.Context) bool {
	for _, name := range Entities() {
		_, err := c.Sync(ctx,
			sync.WithEntities(name),
			sync.WithTimeout(constants.EntitySyncTimeout),
		)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return false
		}
		logging.Error().Err(err).Str("entity", name).Msg("Automatic sync failed")
	}
	return true
}

// AutoSyncOff stops automatic syncs.
func (c *client) AutoSyncOff() error {
	if c.syncTicker != nil {
		c.syncTicker.Stop()
		c.syncTicker = nil
	}
	if c.syncCancel != nil {
		c.syncCancel()
		c.syncCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	if c.syncDone != nil {
		<-c.syncDone
		c.syncDone = nil
	}
	return nil
}
