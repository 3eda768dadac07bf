package reconciler_test

import (
	"fmt"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/mirror"
)

// note is a minimal entity: tags are edited only in the remote store.
type note struct {
	ID    int
	Title string
	Body  string
	Tags  []string
}

type noteMapper struct{}

func (noteMapper) Key(n note) int { return n.ID }

func (noteMapper) Encode(n note) (mirror.Fields, error) {
	if n.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	f := mirror.Fields{}
	f.SetString("title", n.Title)
	f.SetString("body", n.Body)
	f.SetStrings("tags", n.Tags)
	return f, nil
}

func (noteMapper) Decode(f mirror.Fields) (note, error) {
	var (
		n   note
		err error
	)
	if n.ID, err = f.Int("id"); err != nil {
		return n, errors.NewDecodeError("", "", "id", err)
	}
	if n.Title, err = f.String("title"); err != nil {
		return n, errors.NewDecodeError("", "", "title", err)
	}
	if n.Body, err = f.String("body"); err != nil {
		return n, errors.NewDecodeError("", "", "body", err)
	}
	if n.Tags, err = f.Strings("tags"); err != nil {
		return n, errors.NewDecodeError("", "", "tags", err)
	}
	return n, nil
}

func (noteMapper) ClearRemoteOwned(n *note) { n.Tags = nil }

func (noteMapper) CopyRemoteOwned(n *note, remote note) { n.Tags = remote.Tags }

func notes(n int) []note {
	out := make([]note, n)
	for i := range out {
		out[i] = note{ID: i + 1, Title: fmt.Sprintf("note %d", i+1)}
	}
	return out
}

func linkIDs(records []mirror.Record) map[int]int {
	counts := map[int]int{}
	for _, r := range records {
		id, _ := r.Fields.Int("id")
		counts[id]++
	}
	return counts
}
