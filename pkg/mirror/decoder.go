package mirror

import (
	"time"

	"github.com/agentstation/airsync/pkg/errors"
)

// Decoder reads typed values out of Fields and keeps the first failure,
// so a mapper can decode a whole payload and check once.
//
//	d := rec.Fields.Decoder()
//	m.ID = d.Int("id")
//	m.Title = d.String("title")
//	if err := d.Err(); err != nil { ... }
type Decoder struct {
	fields Fields
	err    *errors.DecodeError
}

// Decoder returns a Decoder over f.
func (f Fields) Decoder() *Decoder {
	return &Decoder{fields: f}
}

func (d *Decoder) fail(key string, err error) {
	if d.err == nil && err != nil {
		d.err = errors.NewDecodeError("", "", key, err)
	}
}

// String decodes a string field.
func (d *Decoder) String(key string) string {
	v, err := d.fields.String(key)
	d.fail(key, err)
	return v
}

// Int decodes an integer field.
func (d *Decoder) Int(key string) int {
	v, err := d.fields.Int(key)
	d.fail(key, err)
	return v
}

// Bool decodes a checkbox field.
func (d *Decoder) Bool(key string) bool {
	v, err := d.fields.Bool(key)
	d.fail(key, err)
	return v
}

// Strings decodes a list field.
func (d *Decoder) Strings(key string) []string {
	v, err := d.fields.Strings(key)
	d.fail(key, err)
	return v
}

// Time decodes a date field with layout.
func (d *Decoder) Time(key, layout string) time.Time {
	v, err := d.fields.Time(key, layout)
	d.fail(key, err)
	return v
}

// Fail records err against key unless an earlier failure was recorded.
func (d *Decoder) Fail(key string, err error) {
	d.fail(key, err)
}

// Err returns the first failure as a *errors.DecodeError, or nil.
func (d *Decoder) Err() error {
	if d.err == nil {
		return nil
	}
	return d.err
}
