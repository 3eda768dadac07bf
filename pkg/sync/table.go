package sync

import (
	"context"

	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/store"
)

// Table reconciles one Local Store collection into one remote table.
type Table[T any] struct {
	Name    string
	Mirror  mirror.Mirror
	Mapper  reconciler.Mapper[T]
	Options []reconciler.Option

	// Source is the collection rows are listed from. When ReadBack is set,
	// rows merged with a remote record are upserted back into it so
	// remote-owned fields reach the Local Store.
	Source   *store.Collection[T]
	ReadBack bool

	// Register attaches extra hooks before the run.
	Register func(r reconciler.Reconciler[T])
}

// Sync lists every row of Source and reconciles them.
func (t *Table[T]) Sync(ctx context.Context) (*reconciler.Result, error) {
	rows, err := t.Source.List(ctx)
	if err != nil {
		return nil, err
	}
	return t.Reconcile(ctx, rows)
}

// Reconcile reconciles rows into the remote table.
func (t *Table[T]) Reconcile(ctx context.Context, rows []T) (*reconciler.Result, error) {
	r, err := reconciler.New[T](t.Mirror, t.Mapper, t.Options...)
	if err != nil {
		return nil, err
	}
	if t.ReadBack && t.Source != nil {
		r.OnMerged(func(ctx context.Context, row T) error {
			_, err := t.Source.Upsert(ctx, row)
			return err
		})
	}
	if t.Register != nil {
		t.Register(r)
	}
	return r.Reconcile(ctx, rows, t.Name)
}
