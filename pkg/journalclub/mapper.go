package journalclub

import (
	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/reconciler"
)

// Remote field names.
const (
	fieldTitle         = "title"
	fieldIssue         = "issue"
	fieldPapers        = "papers"
	fieldIssueDate     = "issue_date"
	fieldMeetingDate   = "meeting_date"
	fieldCoordinator   = "coordinator"
	fieldState         = "state"
	fieldRecording     = "recording"
	fieldNotes         = "notes"
	fieldLink          = "link"
	fieldMeeting       = "meeting"
	fieldLinkToMeeting = "link_to_meeting"
)

// MeetingMapper maps meetings to the meetings table. Papers and Notes are
// edited remotely.
type MeetingMapper struct{}

var _ reconciler.Mapper[Meeting] = MeetingMapper{}

// Key implements reconciler.Mapper.
func (MeetingMapper) Key(m Meeting) int { return m.ID }

// Encode implements reconciler.Mapper.
func (MeetingMapper) Encode(m Meeting) (mirror.Fields, error) {
	papers, err := EncodePapers(m.Papers)
	if err != nil {
		return nil, err
	}
	f := mirror.Fields{}
	f.SetString(fieldTitle, m.Title)
	f.SetString(fieldIssue, m.Issue)
	f.SetStrings(fieldPapers, papers)
	f.SetTime(fieldIssueDate, m.IssueDate.Time, constants.RemoteDateFormat)
	f.SetTime(fieldMeetingDate, m.MeetingDate.Time, constants.RemoteDateFormat)
	f.SetString(fieldCoordinator, m.Coordinator)
	f.SetString(fieldState, m.State)
	f.SetString(fieldRecording, m.Recording)
	f.SetString(fieldNotes, m.Notes)
	return f, nil
}

// Decode implements reconciler.Mapper.
func (MeetingMapper) Decode(f mirror.Fields) (Meeting, error) {
	d := f.Decoder()
	m := Meeting{
		ID:          d.Int(constants.LinkField),
		Title:       d.String(fieldTitle),
		Issue:       d.String(fieldIssue),
		IssueDate:   remoteDate(d, fieldIssueDate),
		MeetingDate: remoteDate(d, fieldMeetingDate),
		Coordinator: d.String(fieldCoordinator),
		State:       d.String(fieldState),
		Recording:   d.String(fieldRecording),
		Notes:       d.String(fieldNotes),
	}
	papers, err := DecodePapers(d.Strings(fieldPapers))
	d.Fail(fieldPapers, err)
	m.Papers = papers
	return m, d.Err()
}

// remoteDate reads an ISO date column. Records written with the 1969
// placeholder read as no date.
func remoteDate(d *mirror.Decoder, key string) Date {
	t := d.Time(key, constants.RemoteDateFormat)
	if t.Equal(placeholder) {
		return Date{}
	}
	return Date{t}
}

// ClearRemoteOwned implements reconciler.Mapper.
func (MeetingMapper) ClearRemoteOwned(m *Meeting) {
	m.Papers = nil
	m.Notes = ""
}

// CopyRemoteOwned implements reconciler.Mapper.
func (MeetingMapper) CopyRemoteOwned(m *Meeting, remote Meeting) {
	m.Papers = remote.Papers
	m.Notes = remote.Notes
}

// PaperMapper maps papers to the papers table.
type PaperMapper struct{}

var _ reconciler.Mapper[Paper] = PaperMapper{}

// Key implements reconciler.Mapper.
func (PaperMapper) Key(p Paper) int { return p.ID }

// Encode implements reconciler.Mapper.
func (PaperMapper) Encode(p Paper) (mirror.Fields, error) {
	f := mirror.Fields{}
	f.SetString(fieldTitle, p.Title)
	f.SetString(fieldLink, p.Link)
	f.SetString(fieldMeeting, p.Meeting)
	f.SetStrings(fieldLinkToMeeting, p.LinkToMeeting)
	return f, nil
}

// Decode implements reconciler.Mapper.
func (PaperMapper) Decode(f mirror.Fields) (Paper, error) {
	d := f.Decoder()
	p := Paper{
		ID:            d.Int(constants.LinkField),
		Title:         d.String(fieldTitle),
		Link:          d.String(fieldLink),
		Meeting:       d.String(fieldMeeting),
		LinkToMeeting: d.Strings(fieldLinkToMeeting),
	}
	return p, d.Err()
}

// ClearRemoteOwned implements reconciler.Mapper.
func (PaperMapper) ClearRemoteOwned(*Paper) {}

// CopyRemoteOwned implements reconciler.Mapper.
func (PaperMapper) CopyRemoteOwned(*Paper, Paper) {}

type meetingCodec struct{}

func (meetingCodec) NaturalKey(m Meeting) string { return m.Issue }
func (meetingCodec) SetID(m *Meeting, id int)    { m.ID = id }

type paperCodec struct{}

func (paperCodec) NaturalKey(p Paper) string { return p.Link }
func (paperCodec) SetID(p *Paper, id int)    { p.ID = id }
