package differ

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a record or field was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a record or field was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates a field was cleared.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path"`
	OldValue string     `json:"old_value,omitempty"`
	NewValue string     `json:"new_value,omitempty"`
	Type     ChangeType `json:"type"`
}

// RecordChange is a create or update of one remote record.
type RecordChange struct {
	LocalID  int           `json:"local_id"`
	RemoteID string        `json:"remote_id,omitempty"`
	Type     ChangeType    `json:"type"`
	Changes  []FieldChange `json:"changes,omitempty"`
}

// Changeset collects the record changes of one table.
type Changeset struct {
	Table   string
	Added   []RecordChange
	Updated []RecordChange
}

// Add appends a record change to the matching list.
func (c *Changeset) Add(rc RecordChange) {
	if rc.Type == ChangeTypeAdd {
		c.Added = append(c.Added, rc)
		return
	}
	c.Updated = append(c.Updated, rc)
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c != nil && len(c.Added)+len(c.Updated) > 0
}

// Sort orders both lists by local id.
func (c *Changeset) Sort() {
	sort.Slice(c.Added, func(i, j int) bool { return c.Added[i].LocalID < c.Added[j].LocalID })
	sort.Slice(c.Updated, func(i, j int) bool { return c.Updated[i].LocalID < c.Updated[j].LocalID })
}

// String returns a one-line summary of the changeset.
func (c *Changeset) String() string {
	if !c.HasChanges() {
		return "No changes detected"
	}
	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, fmt.Sprintf("%d added", len(c.Added)))
	}
	if len(c.Updated) > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", len(c.Updated)))
	}
	return fmt.Sprintf("%s: %s", c.Table, strings.Join(parts, ", "))
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if !c.HasChanges() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, rc := range c.Added {
		fmt.Fprintf(w, "+ id %d\n", rc.LocalID)
	}
	for _, rc := range c.Updated {
		fmt.Fprintf(w, "~ id %d (%s)\n", rc.LocalID, rc.RemoteID)
		for _, fc := range rc.Changes {
			fmt.Fprintf(w, "    %s: %q -> %q\n", fc.Path, fc.OldValue, fc.NewValue)
		}
	}
}
