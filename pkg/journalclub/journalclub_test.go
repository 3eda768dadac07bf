package journalclub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/notify/slack"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"", Date{}},
		{"   ", Date{}},
		{"01/01/1969", Date{}},
		{"03/15/2021", NewDate(2021, time.March, 15)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%q: got %v", tt.in, got)
	}

	_, err := ParseDate("2021-03-15")
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{A: NewDate(2020, time.December, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"12/01/2020","b":""}`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"12/01/2020"`), &d))
	assert.Equal(t, "12/01/2020", d.String())
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))
}

func TestPapersRoundTrip(t *testing.T) {
	papers := []Paper{
		{Title: "Paxos Made Simple", Link: "https://example.com/paxos.pdf", Meeting: "https://github.com/org/papers/issues/7"},
		{Title: "Raft", Link: "https://example.com/raft.pdf"},
	}
	encoded, err := EncodePapers(papers)
	require.NoError(t, err)
	require.Len(t, encoded, 2)
	assert.JSONEq(t, `{"title":"Raft","link":"https://example.com/raft.pdf"}`, encoded[1])

	decoded, err := DecodePapers(encoded)
	require.NoError(t, err)
	if diff := cmp.Diff(papers, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	empty, err := EncodePapers(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = DecodePapers([]string{"{not json"})
	assert.Error(t, err)
}

func TestMeetingMapperRoundTrip(t *testing.T) {
	m := Meeting{
		ID:          42,
		Title:       "Consensus",
		Issue:       "https://github.com/org/papers/issues/7",
		Papers:      []Paper{{Title: "Raft", Link: "https://example.com/raft.pdf"}},
		IssueDate:   NewDate(2020, time.May, 1),
		MeetingDate: NewDate(2020, time.May, 8),
		Coordinator: "jess",
		State:       "open",
		Notes:       "bring snacks",
	}
	fields, err := MeetingMapper{}.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, "2020-05-01", fields["issue_date"])
	assert.Equal(t, "2020-05-08", fields["meeting_date"])
	assert.NotContains(t, fields, "recording")
	fields["id"] = 42

	got, err := MeetingMapper{}.Decode(fields)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMeetingMapperDecodesRemoteShapes(t *testing.T) {
	got, err := MeetingMapper{}.Decode(map[string]any{
		"id":           42.0,
		"issue":        "https://github.com/org/papers/issues/7",
		"issue_date":   "2020-01-02",
		"meeting_date": "1969-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got.ID)
	assert.True(t, NewDate(2020, time.January, 2).Equal(got.IssueDate))
	assert.True(t, got.MeetingDate.IsZero(), "placeholder date reads as unset")
	assert.Empty(t, got.Title)
	assert.Nil(t, got.Papers)

	_, err = MeetingMapper{}.Decode(map[string]any{"id": 42.0, "issue_date": "01/02/2020"})
	var de *errors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "issue_date", de.Field)
}

func TestMeetingMapperRejectsBadPapers(t *testing.T) {
	_, err := MeetingMapper{}.Decode(map[string]any{"id": 1, "papers": []any{"nope"}})
	var de *errors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "papers", de.Field)
}

func TestMeetingRemoteOwnedFields(t *testing.T) {
	local := Meeting{ID: 1, Title: "t", Papers: []Paper{{Title: "stale"}}, Notes: "stale"}
	MeetingMapper{}.ClearRemoteOwned(&local)
	assert.Nil(t, local.Papers)
	assert.Empty(t, local.Notes)

	MeetingMapper{}.CopyRemoteOwned(&local, Meeting{Papers: []Paper{{Title: "fresh"}}, Notes: "fresh", Title: "ignored"})
	assert.Equal(t, "fresh", local.Notes)
	assert.Equal(t, "fresh", local.Papers[0].Title)
	assert.Equal(t, "t", local.Title)
}

func TestSlackMessage(t *testing.T) {
	m := Meeting{
		Title:       "Consensus",
		Issue:       "https://github.com/org/papers/issues/7",
		IssueDate:   NewDate(2020, time.May, 1),
		MeetingDate: NewDate(2020, time.May, 8),
		Coordinator: "jess",
		State:       "open",
		Recording:   "https://example.com/rec",
		Papers: []Paper{
			{Title: "Consensus", Link: "https://example.com/a.pdf"},
			{Title: "Raft", Link: "https://example.com/raft.pdf"},
		},
	}
	want := []slack.Block{
		slack.Section("<https://github.com/org/papers/issues/7|*Consensus*>"),
		slack.Context("<https://github.com/jess|@jess> | issue date: 05/01/2020 | status: *open* | meeting date: 05/08/2020"),
		slack.Context("<https://example.com/rec|Meeting recording>"),
		slack.Context("<https://example.com/a.pdf|Paper>"),
		slack.Context("<https://example.com/raft.pdf|Raft>"),
	}
	if diff := cmp.Diff(want, SlackMessage(m).Blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}

	m.MeetingDate = Date{}
	m.Recording = ""
	m.Papers = nil
	blocks := SlackMessage(m).Blocks
	require.Len(t, blocks, 2)
	assert.NotContains(t, blocks[1].Elements[0].Text, "meeting date")
}

func TestParseMeetings(t *testing.T) {
	data := []byte(`[{
		"title": "Consensus",
		"issue": "https://github.com/org/papers/issues/7",
		"papers": [{"title": "Raft", "link": "https://example.com/raft.pdf"}],
		"issue_date": "05/01/2020",
		"meeting_date": "",
		"coordinator": "jess",
		"state": "closed"
	}]`)
	meetings, err := ParseMeetings(data)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "05/01/2020", meetings[0].IssueDate.String())
	assert.True(t, meetings[0].MeetingDate.IsZero())
	assert.Equal(t, "Raft", meetings[0].Papers[0].Title)

	_, err = ParseMeetings([]byte(`{`))
	assert.Error(t, err)
}
