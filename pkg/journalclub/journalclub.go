// Package journalclub syncs journal club meetings and the papers they
// discuss.
//
// Meetings are imported from the papers repository into the Local Store,
// reconciled into the meetings table, and then papers are pointed at their
// meeting's remote record and reconciled into the papers table. The
// papers list on a meeting is curated remotely and read back.
package journalclub

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
)

// Entity is the name used to select this sync.
const Entity = "journal-club"

// Meeting is one journal club session, keyed by its GitHub issue URL.
type Meeting struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Issue       string  `json:"issue"`
	Papers      []Paper `json:"papers,omitempty"`
	IssueDate   Date    `json:"issue_date"`
	MeetingDate Date    `json:"meeting_date"`
	Coordinator string  `json:"coordinator,omitempty"`
	State       string  `json:"state,omitempty"`
	Recording   string  `json:"recording,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// Paper is a paper discussed at a meeting. Meeting holds the meeting's
// issue URL; LinkToMeeting holds the meeting's remote record id once
// resolved.
type Paper struct {
	ID            int      `json:"id,omitempty"`
	Title         string   `json:"title,omitempty"`
	Link          string   `json:"link,omitempty"`
	Meeting       string   `json:"meeting,omitempty"`
	LinkToMeeting []string `json:"link_to_meeting,omitempty"`
}

// Date is a calendar date. In the papers repository and in JSON it is
// written as month/day/year; the empty string and the 01/01/1969
// placeholder both mean no date. Remote date columns use ISO dates.
type Date struct {
	time.Time
}

var placeholder = time.Date(1969, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewDate returns the date y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s as month/day/year.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return Date{}, errors.WrapParse("date", s, err)
	}
	if t.Equal(placeholder) {
		return Date{}, nil
	}
	return Date{t}, nil
}

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// String formats the date, or returns "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(constants.DateFormat)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// paperDoc is the remote string encoding of a paper inside a meeting.
type paperDoc struct {
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Meeting string `json:"meeting,omitempty"`
}

// EncodePapers renders papers as the list of JSON strings the meetings
// table stores.
func EncodePapers(papers []Paper) ([]string, error) {
	if len(papers) == 0 {
		return nil, nil
	}
	out := make([]string, len(papers))
	for i, p := range papers {
		b, err := json.Marshal(paperDoc{Title: p.Title, Link: p.Link, Meeting: p.Meeting})
		if err != nil {
			return nil, errors.WrapParse("json", "papers", err)
		}
		out[i] = string(b)
	}
	return out, nil
}

// DecodePapers parses the list of JSON strings the meetings table stores.
func DecodePapers(encoded []string) ([]Paper, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	out := make([]Paper, len(encoded))
	for i, s := range encoded {
		var doc paperDoc
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, errors.WrapParse("json", "papers", err)
		}
		out[i] = Paper{Title: doc.Title, Link: doc.Link, Meeting: doc.Meeting}
	}
	return out, nil
}
