package backup

import (
	"time"

	"github.com/agentstation/airsync/pkg/errors"
)

// Format is the encoding of a backup file.
type Format int

// Format constants.
const (
	FormatJSONL Format = iota
	FormatJSON
	FormatYAML
)

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSONL, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatJSONL:
		return "jsonl"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// Ext returns the file extension, with the leading dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/x-ndjson"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "jsonl":
		return FormatJSONL, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return 0, errors.NewValidationError("format", s, "must be jsonl, json or yaml")
}

// Options is the configuration for a backup.
type Options struct {
	format Format
	view   string
	now    func() time.Time
}

// Format returns the output format.
func (o *Options) Format() Format {
	return o.format
}

// Defaults returns the default backup options.
func Defaults() *Options {
	return &Options{format: FormatJSONL, now: time.Now}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option is a function that configures backup options.
type Option func(*Options)

// WithFormat for custom output format.
func WithFormat(f Format) Option {
	return func(o *Options) {
		o.format = f
	}
}

// WithView limits the backup to the records of a remote view.
func WithView(view string) Option {
	return func(o *Options) {
		o.view = view
	}
}

// WithClock sets the clock that stamps backup names.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}
