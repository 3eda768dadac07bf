// Package linker fills cross-reference fields between two mirrored tables.
// The parent table is indexed by a natural key the child rows also carry,
// and each child is pointed at its parent's remote record id.
package linker

import (
	"context"
	"fmt"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Stats counts the outcome of a Resolve pass.
type Stats struct {
	Linked   int
	Unlinked int
}

// IndexByKey lists table and maps the value of keyField to record id.
// Records with an empty or non-string key are ignored. When two records
// share a key the older one wins, matching how the reconciler treats
// duplicate link ids.
func IndexByKey(ctx context.Context, m mirror.Mirror, table, view, keyField string) (map[string]string, error) {
	if keyField == "" {
		return nil, &errors.ValidationError{Field: "keyField", Message: "cannot be empty"}
	}
	ctx = logging.WithTable(ctx, table)
	records, err := m.ListRecords(ctx, table, mirror.ListOptions{View: view})
	if err != nil {
		if !errors.IsRemoteFetch(err) {
			err = errors.NewRemoteFetchError(table, 0, err)
		}
		return nil, err
	}

	logger := logging.FromContext(ctx)
	index := make(map[string]string, len(records))
	created := make(map[string]mirror.Record, len(records))
	for _, rec := range records {
		key, err := rec.Fields.String(keyField)
		if err != nil || key == "" {
			logger.Debug().Str("record_id", rec.ID).
				Str("key_field", keyField).Msg("Record has no usable key")
			continue
		}
		if prev, dup := created[key]; dup && !rec.CreatedTime.Before(prev.CreatedTime) {
			continue
		}
		index[key] = rec.ID
		created[key] = rec
	}
	return index, nil
}

// Resolve points every row at its parent. A row whose key matches a parent
// gets a one-element link list; any other row gets an empty list, which is
// not an error since the parent may not be reconciled yet. Empty lists are
// left out of payloads and updates are partial, so an unresolved row keeps
// whatever link its remote record already has.
func Resolve[T any](rows []T, parents map[string]string, key func(T) string, set func(*T, []string)) Stats {
	var stats Stats
	for i := range rows {
		if id, ok := parents[key(rows[i])]; ok && id != "" {
			set(&rows[i], []string{id})
			stats.Linked++
			continue
		}
		set(&rows[i], nil)
		stats.Unlinked++
	}
	return stats
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("%d linked, %d unlinked", s.Linked, s.Unlinked)
}
