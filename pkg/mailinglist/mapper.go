package mailinglist

import (
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/reconciler"
)

const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Mapper maps subscribers to the signups table.
type Mapper struct{}

var _ reconciler.Mapper[Subscriber] = Mapper{}

// Key implements reconciler.Mapper.
func (Mapper) Key(s Subscriber) int { return s.ID }

// Encode implements reconciler.Mapper.
func (Mapper) Encode(s Subscriber) (mirror.Fields, error) {
	f := mirror.Fields{
		"wantsPodcastUpdates": s.WantsPodcastUpdates,
		"wantsNewsletter":     s.WantsNewsletter,
		"wantsProductUpdates": s.WantsProductUpdates,
	}
	f.SetString("email", s.Email)
	f.SetString("firstName", s.FirstName)
	f.SetString("lastName", s.LastName)
	f.SetString("name", s.Name)
	f.SetString("company", s.Company)
	f.SetString("interest", s.Interest)
	f.SetTime("dateAdded", s.DateAdded.UTC(), dateLayout)
	f.SetTime("dateOptin", s.DateOptin.UTC(), dateLayout)
	f.SetTime("dateLastChanged", s.DateLastChanged.UTC(), dateLayout)
	f.SetString("notes", s.Notes)
	f.SetStrings("tags", s.Tags)
	f.SetStrings("linkToPeople", s.LinkToPeople)
	return f, nil
}

// Decode implements reconciler.Mapper.
func (Mapper) Decode(f mirror.Fields) (Subscriber, error) {
	d := f.Decoder()
	s := Subscriber{
		ID:                  d.Int(constants.LinkField),
		Email:               d.String("email"),
		FirstName:           d.String("firstName"),
		LastName:            d.String("lastName"),
		Name:                d.String("name"),
		Company:             d.String("company"),
		Interest:            d.String("interest"),
		WantsPodcastUpdates: d.Bool("wantsPodcastUpdates"),
		WantsNewsletter:     d.Bool("wantsNewsletter"),
		WantsProductUpdates: d.Bool("wantsProductUpdates"),
		DateAdded:           d.Time("dateAdded", time.RFC3339),
		DateOptin:           d.Time("dateOptin", time.RFC3339),
		DateLastChanged:     d.Time("dateLastChanged", time.RFC3339),
		Notes:               d.String("notes"),
		Tags:                d.Strings("tags"),
		LinkToPeople:        d.Strings("linkToPeople"),
	}
	return s, d.Err()
}

// ClearRemoteOwned implements reconciler.Mapper.
func (Mapper) ClearRemoteOwned(s *Subscriber) {
	s.Notes = ""
	s.Tags = nil
	s.LinkToPeople = nil
}

// CopyRemoteOwned implements reconciler.Mapper.
func (Mapper) CopyRemoteOwned(s *Subscriber, remote Subscriber) {
	s.Notes = remote.Notes
	s.Tags = remote.Tags
	s.LinkToPeople = remote.LinkToPeople
}

type codec struct{}

func (codec) NaturalKey(s Subscriber) string { return s.Email }
func (codec) SetID(s *Subscriber, id int)    { s.ID = id }
