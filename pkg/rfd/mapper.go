package rfd

import (
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/reconciler"
)

// commitDateLayout matches how the remote store renders date-time fields.
const commitDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Mapper maps RFDs to the RFDs table.
type Mapper struct{}

var _ reconciler.Mapper[RFD] = Mapper{}

// Key implements reconciler.Mapper.
func (Mapper) Key(r RFD) int { return r.ID }

// Encode implements reconciler.Mapper.
func (Mapper) Encode(r RFD) (mirror.Fields, error) {
	f := mirror.Fields{"number": r.Number}
	f.SetString("numberString", r.NumberString)
	f.SetString("title", r.Title)
	f.SetString("name", r.Name)
	f.SetString("state", r.State)
	f.SetString("link", r.Link)
	f.SetString("shortLink", r.ShortLink)
	f.SetString("renderedLink", r.RenderedLink)
	f.SetString("discussion", r.Discussion)
	f.SetString("authors", r.Authors)
	f.SetString("sha", r.Sha)
	f.SetTime("commitDate", r.CommitDate.UTC(), commitDateLayout)
	f.SetStrings("milestones", r.Milestones)
	f.SetStrings("relevantComponents", r.RelevantComponents)
	return f, nil
}

// Decode implements reconciler.Mapper.
func (Mapper) Decode(f mirror.Fields) (RFD, error) {
	d := f.Decoder()
	r := RFD{
		ID:                 d.Int(constants.LinkField),
		Number:             d.Int("number"),
		NumberString:       d.String("numberString"),
		Title:              d.String("title"),
		Name:               d.String("name"),
		State:              d.String("state"),
		Link:               d.String("link"),
		ShortLink:          d.String("shortLink"),
		RenderedLink:       d.String("renderedLink"),
		Discussion:         d.String("discussion"),
		Authors:            d.String("authors"),
		Sha:                d.String("sha"),
		CommitDate:         d.Time("commitDate", time.RFC3339),
		Milestones:         d.Strings("milestones"),
		RelevantComponents: d.Strings("relevantComponents"),
	}
	return r, d.Err()
}

// ClearRemoteOwned implements reconciler.Mapper.
func (Mapper) ClearRemoteOwned(r *RFD) {
	r.Milestones = nil
	r.RelevantComponents = nil
}

// CopyRemoteOwned implements reconciler.Mapper.
func (Mapper) CopyRemoteOwned(r *RFD, remote RFD) {
	r.Milestones = remote.Milestones
	r.RelevantComponents = remote.RelevantComponents
}

type codec struct{}

func (codec) NaturalKey(r RFD) string { return r.NumberString }
func (codec) SetID(r *RFD, id int)    { r.ID = id }
