package rfd_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/internal/github"
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/mirror/memory"
	"github.com/agentstation/airsync/pkg/notify/slack"
	"github.com/agentstation/airsync/pkg/reconciler"
	"github.com/agentstation/airsync/pkg/rfd"
	"github.com/agentstation/airsync/pkg/store"
)

type fakeRepo struct {
	files   map[string]string
	commits map[string]github.Commit
}

func (f fakeRepo) File(_ context.Context, owner, repo, path, ref string) ([]byte, error) {
	data, ok := f.files[fmt.Sprintf("%s/%s%s@%s", owner, repo, path, ref)]
	if !ok {
		return nil, errors.NewNotFoundError("file", path)
	}
	return []byte(data), nil
}

func (f fakeRepo) LastCommit(_ context.Context, _, _, path, ref string) (github.Commit, error) {
	c, ok := f.commits[path+"@"+ref]
	if !ok {
		return github.Commit{}, errors.NewNotFoundError("commit", path)
	}
	return c, nil
}

type poster struct{ sent []string }

func (p *poster) Post(_ context.Context, msg slack.Message) error {
	p.sent = append(p.sent, msg.Text)
	return nil
}

func newSyncer(t *testing.T, m mirror.Mirror, opts ...rfd.Option) *rfd.Syncer {
	t.Helper()
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	db, err := store.Open(ctx, store.Config{DSN: filepath.Join(t.TempDir(), "airsync.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s, err := rfd.NewSyncer(ctx, m, db, opts...)
	require.NoError(t, err)
	return s
}

func TestFetch(t *testing.T) {
	date := time.Date(2021, 4, 2, 0, 0, 0, 0, time.UTC)
	repo := fakeRepo{
		files: map[string]string{
			"acme/rfd/.helpers/rfd.csv@master": "num,title,state,link\n" +
				"1,Intro,published,https://github.com/acme/rfd/tree/master/rfd/0001\n" +
				"2,Draft,ideation,https://github.com/acme/rfd/tree/0002/rfd/0002\n",
			"acme/rfd/rfd/0001/README.adoc@master": ":authors: Ada\n",
		},
		commits: map[string]github.Commit{
			"/rfd/0001@master": {SHA: "abc", Date: date},
		},
	}

	rfds, err := rfd.Fetch(context.Background(), repo, "acme")
	require.NoError(t, err)
	require.Len(t, rfds, 2)
	assert.Equal(t, "Ada", rfds[0].Authors)
	assert.Equal(t, "abc", rfds[0].Sha)
	assert.Equal(t, date, rfds[0].CommitDate)
	assert.Empty(t, rfds[1].Sha, "enrichment failures leave fields empty")

	_, err = rfd.Fetch(context.Background(), repo, "nobody")
	assert.True(t, errors.IsNotFound(err))
}

func TestSyncKeepsRemoteMilestones(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	p := &poster{}
	s := newSyncer(t, m, rfd.WithNotifier(p), rfd.WithTable("Roadmap"))

	n, err := s.Import(ctx, []rfd.RFD{{Number: 1, Title: "Intro", State: "published"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := s.Sync(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, reconciler.Stats{Created: 1}, res.Tables[0].Stats)
	require.Len(t, p.sent, 1)
	assert.Contains(t, p.sent[0], "RFD 1 Intro")
	assert.Empty(t, m.Records(constants.RFDsTable))

	rec := m.Records("Roadmap")[0]
	_, err = m.UpdateRecords(ctx, "Roadmap", []mirror.Record{{ID: rec.ID, Fields: mirror.Fields{"milestones": []string{"recMS"}}}})
	require.NoError(t, err)

	res, err = s.Sync(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, reconciler.Stats{Unchanged: 1}, res.Tables[0].Stats)

	// A re-import of the index keeps what was read back.
	_, err = s.Import(ctx, []rfd.RFD{{Number: 1, Title: "Intro", State: "committed"}})
	require.NoError(t, err)
	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"recMS"}, rows[0].Milestones)
	assert.Equal(t, "committed", rows[0].State)

	res, err = s.Sync(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, reconciler.Stats{Updated: 1}, res.Tables[0].Stats)
	assert.Equal(t, []string{"recMS"}, m.Records("Roadmap")[0].Fields["milestones"])
	assert.Len(t, p.sent, 1, "updates are not announced")
}
