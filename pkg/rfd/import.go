package rfd

import (
	"context"

	"github.com/jszwec/csvutil"

	"github.com/agentstation/airsync/internal/github"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
)

// Location of the RFD index.
const (
	Repo      = "rfd"
	IndexPath = "/.helpers/rfd.csv"
	Branch    = "master"
)

// Repository reads the rfd repository.
type Repository interface {
	File(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
	LastCommit(ctx context.Context, owner, repo, path, ref string) (github.Commit, error)
}

// ParseIndex decodes the rfd.csv index and expands every row.
func ParseIndex(data []byte) ([]RFD, error) {
	var rfds []RFD
	if err := csvutil.Unmarshal(data, &rfds); err != nil {
		return nil, errors.WrapParse("csv", IndexPath, err)
	}
	for i := range rfds {
		rfds[i].Expand()
	}
	return rfds, nil
}

// Fetch reads the RFD index of owner's rfd repository and enriches each
// RFD with its authors and last commit. Enrichment failures are logged
// and leave those fields empty.
func Fetch(ctx context.Context, repo Repository, owner string) ([]RFD, error) {
	data, err := repo.File(ctx, owner, Repo, IndexPath, Branch)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "fetch", err)
	}
	rfds, err := ParseIndex(data)
	if err != nil {
		return nil, err
	}
	for i := range rfds {
		if err := Enrich(ctx, repo, owner, &rfds[i]); err != nil {
			if errors.IsCanceled(err) {
				return nil, err
			}
			logging.FromContext(ctx).Warn().Err(err).Int("number", rfds[i].Number).Msg("Failed to enrich RFD")
		}
	}
	return rfds, nil
}

// Enrich fills Authors, Sha and CommitDate from the RFD's source.
func Enrich(ctx context.Context, repo Repository, owner string, r *RFD) error {
	branch := r.Branch()
	for _, doc := range []struct {
		name     string
		markdown bool
	}{{"README.adoc", false}, {"README.md", true}} {
		content, err := repo.File(ctx, owner, Repo, r.Dir()+"/"+doc.name, branch)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if authors := ParseAuthors(string(content), doc.markdown); authors != "" {
			r.Authors = authors
		}
		break
	}

	commit, err := repo.LastCommit(ctx, owner, Repo, r.Dir(), branch)
	if err != nil {
		return err
	}
	r.Sha = commit.SHA
	r.CommitDate = commit.Date
	return nil
}

// Import upserts rfds into the Local Store, keeping the remote-owned
// fields already stored.
func (s *Syncer) Import(ctx context.Context, rfds []RFD) (int, error) {
	n := 0
	for _, r := range rfds {
		if r.NumberString == "" {
			r.Expand()
		}
		if existing, err := s.rfds.GetByKey(ctx, r.NumberString); err == nil {
			r.Milestones = existing.Milestones
			r.RelevantComponents = existing.RelevantComponents
		} else if !errors.IsNotFound(err) {
			return n, err
		}
		if _, err := s.rfds.Upsert(ctx, r); err != nil {
			return n, err
		}
		n++
	}
	logging.FromContext(ctx).Info().Str("entity", Entity).Int("rfds", n).Msg("Imported RFDs")
	return n, nil
}
