package reconciler

import (
	"context"
	"fmt"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Indexed is a remote record together with its decoded value.
type Indexed[T any] struct {
	Record mirror.Record
	Value  T
}

// Index maps local ids to the remote record that mirrors them.
type Index[T any] map[int]Indexed[T]

// IndexReport describes the records BuildIndex could not use.
type IndexReport struct {
	Total      int
	Skipped    []*errors.DecodeError
	Duplicates []string // remote ids shadowed by an older record with the same link id

	// Undecodable holds, by link id, records whose link id could be read
	// but whose payload could not. Their local rows must not be recreated.
	Undecodable map[int]*errors.DecodeError
}

// BuildIndex lists every record in table and indexes it by link id.
//
// Listing failures are returned as *errors.RemoteFetchError and no index is
// returned. A record that fails to decode, or has no link id, is skipped and
// reported; if its link id alone is readable it is also kept in
// Undecodable. When several records carry the same link id the oldest wins.
func BuildIndex[T any](ctx context.Context, m mirror.Mirror, mapper Mapper[T], table string, opts mirror.ListOptions) (Index[T], *IndexReport, error) {
	logger := logging.FromContext(ctx)

	records, err := m.ListRecords(ctx, table, opts)
	if err != nil {
		if !errors.IsRemoteFetch(err) {
			err = errors.NewRemoteFetchError(table, 0, err)
		}
		return nil, nil, err
	}

	index := make(Index[T], len(records))
	report := &IndexReport{Total: len(records), Undecodable: map[int]*errors.DecodeError{}}
	for _, rec := range records {
		value, err := mapper.Decode(rec.Fields)
		if err != nil {
			decodeErr := asDecodeError(table, rec.ID, err)
			report.Skipped = append(report.Skipped, decodeErr)
			if id, idErr := rec.Fields.Int(constants.LinkField); idErr == nil && id > 0 {
				if _, seen := report.Undecodable[id]; !seen {
					report.Undecodable[id] = decodeErr
				}
			}
			logger.Warn().Err(err).Str("record_id", rec.ID).
				Msg("Skipping remote record that failed to decode")
			continue
		}

		id := mapper.Key(value)
		if id <= 0 {
			decodeErr := errors.NewDecodeError(table, rec.ID, constants.LinkField, fmt.Errorf("missing link id"))
			report.Skipped = append(report.Skipped, decodeErr)
			logger.Warn().Str("record_id", rec.ID).
				Msg("Skipping remote record without a link id")
			continue
		}

		if prev, ok := index[id]; ok {
			keep, shadowed := prev, Indexed[T]{Record: rec, Value: value}
			if rec.CreatedTime.Before(prev.Record.CreatedTime) {
				keep, shadowed = shadowed, prev
			}
			index[id] = keep
			report.Duplicates = append(report.Duplicates, shadowed.Record.ID)
			logger.Warn().Int("local_id", id).
				Str("kept", keep.Record.ID).Str("shadowed", shadowed.Record.ID).
				Msg("Multiple remote records share a link id")
			continue
		}
		index[id] = Indexed[T]{Record: rec, Value: value}
	}

	return index, report, nil
}

func asDecodeError(table, recordID string, err error) *errors.DecodeError {
	var de *errors.DecodeError
	if errors.As(err, &de) {
		if de.Table == "" {
			de.Table = table
		}
		if de.RecordID == "" {
			de.RecordID = recordID
		}
		return de
	}
	return errors.NewDecodeError(table, recordID, "", err)
}
