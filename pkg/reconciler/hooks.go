package reconciler

import (
	"context"

	"github.com/agentstation/airsync/pkg/differ"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Hook function types for record events. Hooks run after all writes of a
// run have finished, one at a time, in input order.
type (
	// CreatedHook is called for every record created in the remote store.
	CreatedHook[T any] func(row T, record mirror.Record)

	// UpdatedHook is called for every record updated in the remote store.
	UpdatedHook[T any] func(row T, record mirror.Record, changes []differ.FieldChange)

	// MergedHook is called for every row that matched a remote record,
	// with remote-owned fields already copied in. It is how remote edits
	// are read back into the local store.
	MergedHook[T any] func(ctx context.Context, row T) error
)

// Observer receives the result of every run that completes.
type Observer interface {
	ObserveReconcile(result *Result)
}

type hooks[T any] struct {
	onCreated []CreatedHook[T]
	onUpdated []UpdatedHook[T]
	onMerged  []MergedHook[T]
}
