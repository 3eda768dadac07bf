// Package mirror defines the remote record store that local collections are
// reconciled into. Records are identified by an opaque string id assigned by
// the store and carry a loosely typed field mapping.
package mirror

import (
	"context"
	"time"
)

// Fields is the loosely typed field mapping of a remote record. Values are
// scalars, lists, or lists of record ids for cross references.
type Fields map[string]any

// Record is a row in a remote table.
type Record struct {
	ID          string    `json:"id,omitempty"`
	CreatedTime time.Time `json:"createdTime,omitzero"`
	Fields      Fields    `json:"fields"`
}

// ListOptions narrows a ListRecords call.
type ListOptions struct {
	View            string
	FilterByFormula string
	Fields          []string
	PageSize        int
}

// Mirror is the remote record store.
//
// ListRecords consumes every page and returns one logical sequence.
// CreateRecords and UpdateRecords accept at most constants.MaxBatchSize
// records per call; use Chunk to split larger slices. Updates only touch
// the fields present in the payload.
type Mirror interface {
	ListRecords(ctx context.Context, table string, opts ListOptions) ([]Record, error)
	CreateRecords(ctx context.Context, table string, records []Record) ([]Record, error)
	UpdateRecords(ctx context.Context, table string, records []Record) ([]Record, error)
}

// Chunk splits records into consecutive batches of at most size.
func Chunk(records []Record, size int) [][]Record {
	if size <= 0 || len(records) == 0 {
		return nil
	}
	batches := make([][]Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

// Clone returns a deep copy of f, including nested lists and maps.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneValue(x)
		}
		return out
	case Fields:
		return t.Clone()
	default:
		return v
	}
}
