package journalclub

import (
	"context"
	"encoding/json"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
)

// Location of the meetings file.
const (
	Repo         = "papers"
	MeetingsPath = "/.helpers/meetings.json"
	Branch       = "master"
)

// FileFetcher reads a file out of a GitHub repository.
type FileFetcher interface {
	File(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// FetchMeetings reads the meetings list from the papers repository of owner.
func FetchMeetings(ctx context.Context, gh FileFetcher, owner string) ([]Meeting, error) {
	data, err := gh.File(ctx, owner, Repo, MeetingsPath, Branch)
	if err != nil {
		return nil, errors.NewSyncError(Entity, "fetch", err)
	}
	return ParseMeetings(data)
}

// ParseMeetings decodes a meetings.json document.
func ParseMeetings(data []byte) ([]Meeting, error) {
	var meetings []Meeting
	if err := json.Unmarshal(data, &meetings); err != nil {
		return nil, errors.WrapParse("json", MeetingsPath, err)
	}
	return meetings, nil
}

// ImportStats counts what an import wrote to the Local Store.
type ImportStats struct {
	Meetings int
	Papers   int
	Skipped  int
}

// Import upserts meetings and their papers into the Local Store. Each
// paper is tagged with its meeting's issue. Notes already stored for a
// meeting are kept.
func (s *Syncer) Import(ctx context.Context, meetings []Meeting) (ImportStats, error) {
	logger := logging.FromContext(logging.WithEntity(ctx, Entity))

	var stats ImportStats
	for _, m := range meetings {
		if m.Issue == "" {
			stats.Skipped++
			logger.Warn().Str("title", m.Title).Msg("Skipping meeting without an issue")
			continue
		}
		if existing, err := s.meetings.GetByKey(ctx, m.Issue); err == nil {
			m.Notes = existing.Notes
		} else if !errors.IsNotFound(err) {
			return stats, err
		}

		papers := m.Papers
		if _, err := s.meetings.Upsert(ctx, m); err != nil {
			return stats, err
		}
		stats.Meetings++

		for _, p := range papers {
			if p.Link == "" {
				stats.Skipped++
				logger.Warn().Str("meeting", m.Issue).Str("title", p.Title).Msg("Skipping paper without a link")
				continue
			}
			p.Meeting = m.Issue
			if _, err := s.papers.Upsert(ctx, p); err != nil {
				return stats, err
			}
			stats.Papers++
		}
	}

	logger.Info().
		Int("meetings", stats.Meetings).
		Int("papers", stats.Papers).
		Int("skipped", stats.Skipped).
		Msg("Imported journal club meetings")
	return stats, nil
}
