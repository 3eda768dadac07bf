// Package differ compares remote field payloads so the reconciler can skip
// writes that would not change anything and report what did change.
package differ

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/agentstation/airsync/pkg/mirror"
)

// Differ handles change detection between remote payloads.
type Differ interface {
	// Fields compares the keys present in updated against existing.
	// Keys only present in existing are ignored: a partial update leaves
	// them untouched.
	Fields(existing, updated mirror.Fields) []FieldChange
}

type differ struct {
	ignoreFields map[string]bool
	maxValueLen  int
}

// New creates a Differ with default settings.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
		maxValueLen:  80,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fields implements Differ.
func (diff *differ) Fields(existing, updated mirror.Fields) []FieldChange {
	keys := make([]string, 0, len(updated))
	for k := range updated {
		if !diff.ignoreFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var changes []FieldChange
	for _, k := range keys {
		oldRaw, had := existing[k]
		oldVal := normalize(oldRaw)
		newVal := normalize(updated[k])
		if reflect.DeepEqual(oldVal, newVal) {
			continue
		}

		change := FieldChange{
			Path:     k,
			OldValue: diff.display(oldVal),
			NewValue: diff.display(newVal),
			Type:     ChangeTypeUpdate,
		}
		switch {
		case !had || oldVal == nil:
			change.Type = ChangeTypeAdd
		case newVal == nil:
			change.Type = ChangeTypeRemove
		}
		changes = append(changes, change)
	}
	return changes
}

// normalize maps the shapes a value can take after a JSON round trip onto
// one canonical form: numbers become float64, typed slices become []any,
// and empty strings, empty lists and false collapse to nil (Airtable omits
// all three).
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	case bool:
		if !t {
			return nil
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []string:
		if len(t) == 0 {
			return nil
		}
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		if len(t) == 0 {
			return nil
		}
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case mirror.Fields:
		return normalize(map[string]any(t))
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		out := make(map[string]any, len(t))
		for k, x := range t {
			if n := normalize(x); n != nil {
				out[k] = n
			}
		}
		return out
	default:
		return v
	}
}

func (diff *differ) display(v any) string {
	if v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = fmt.Sprintf("%g", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			s = fmt.Sprintf("%v", t)
		} else {
			s = string(b)
		}
	}
	return truncateString(s, diff.maxValueLen)
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 3 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
