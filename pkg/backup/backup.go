// Package backup snapshots remote tables into a blob store.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"path"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/airsync/pkg/blob"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
)

// Key returns the blob key of a backup of table taken at the time stamp.
func Key(table, stamp string, f Format) string {
	return path.Join(table, stamp+f.Ext())
}

// Table writes every record of a remote table to store under
// <table>/<timestamp>.<ext> and returns the stored blob.
func Table(ctx context.Context, m mirror.Mirror, store blob.Store, table string, opts ...Option) (blob.Info, error) {
	o := Defaults().Apply(opts...)
	if !o.format.IsValid() {
		return blob.Info{}, errors.NewValidationError("format", o.format, "unsupported")
	}
	ctx = logging.WithTable(ctx, table)
	logger := logging.FromContext(ctx)

	records, err := m.ListRecords(ctx, table, mirror.ListOptions{View: o.view})
	if err != nil {
		return blob.Info{}, err
	}
	data, err := Encode(records, o.format)
	if err != nil {
		return blob.Info{}, err
	}

	key := Key(table, o.now().UTC().Format(constants.TimeFormatFilename), o.format)
	info, err := store.Put(ctx, key, bytes.NewReader(data), o.format.ContentType())
	if err != nil {
		return blob.Info{}, err
	}
	logger.Info().Str("key", info.Key).Int("records", len(records)).Int64("bytes", info.Size).Msg("Backed up table")
	return info, nil
}

// Encode renders records in format f. JSONL writes one record per line.
func Encode(records []mirror.Record, f Format) ([]byte, error) {
	if records == nil {
		records = []mirror.Record{}
	}
	switch f {
	case FormatJSONL:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return nil, errors.WrapParse("json", r.ID, err)
			}
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, errors.WrapParse("json", "records", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(records)
		if err != nil {
			return nil, errors.WrapParse("yaml", "records", err)
		}
		return data, nil
	}
	return nil, errors.NewValidationError("format", f, "unsupported")
}

// Decode reads records written by Encode in format f.
func Decode(data []byte, f Format) ([]mirror.Record, error) {
	var records []mirror.Record
	switch f {
	case FormatJSONL:
		dec := json.NewDecoder(bytes.NewReader(data))
		for dec.More() {
			var r mirror.Record
			if err := dec.Decode(&r); err != nil {
				return nil, errors.WrapParse("json", "backup", err)
			}
			records = append(records, r)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errors.WrapParse("json", "backup", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, errors.WrapParse("yaml", "backup", err)
		}
	default:
		return nil, errors.NewValidationError("format", f, "unsupported")
	}
	return records, nil
}
