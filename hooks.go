package airsync

import (
	gosync "sync"

	"github.com/agentstation/airsync/pkg/differ"
	"github.com/agentstation/airsync/pkg/sync"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for remote record events
type (
	// RecordCreatedHook is called for every record created in the remote mirror
	RecordCreatedHook func(entity, table string, change differ.RecordChange)

	// RecordUpdatedHook is called for every record updated in the remote mirror
	RecordUpdatedHook func(entity, table string, change differ.RecordChange)
)

// Hooks provides event callback registration.
type Hooks interface {
	// OnCreated registers a callback for records created by a sync
	OnCreated(fn RecordCreatedHook)

	// OnUpdated registers a callback for records updated by a sync
	OnUpdated(fn RecordUpdatedHook)
}

// OnCreated registers a callback for records created by a sync.
func (c *client) OnCreated(fn RecordCreatedHook) {
	c.hooks.OnCreated(fn)
}

// OnUpdated registers a callback for records updated by a sync.
func (c *client) OnUpdated(fn RecordUpdatedHook) {
	c.hooks.OnUpdated(fn)
}

// hooks manages event callbacks for remote changes
type hooks struct {
	mu        gosync.RWMutex
	onCreated []RecordCreatedHook
	onUpdated []RecordUpdatedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) OnCreated(fn RecordCreatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCreated = append(h.onCreated, fn)
}

func (h *hooks) OnUpdated(fn RecordUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUpdated = append(h.onUpdated, fn)
}

// trigger walks the changesets of a sync result and fires the hooks.
func (h *hooks) trigger(result *sync.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, er := range result.Entities {
		for _, t := range er.Tables {
			if t.Changeset == nil {
				continue
			}
			for _, rc := range t.Changeset.Added {
				for _, fn := range h.onCreated {
					fn(er.Entity, t.Table, rc)
				}
			}
			for _, rc := range t.Changeset.Updated {
				for _, fn := range h.onUpdated {
					fn(er.Entity, t.Table, rc)
				}
			}
		}
	}
}
