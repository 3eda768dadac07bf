// Package mailinglist syncs mailing list signups.
package mailinglist

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jszwec/csvutil"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/notify/slack"
)

// Entity is the name used to select this sync.
const Entity = "mailing-list"

// Subscriber is one signup. Notes, Tags and LinkToPeople are maintained
// in the remote store.
type Subscriber struct {
	ID                  int       `json:"id" csv:"-"`
	Email               string    `json:"email" csv:"email"`
	FirstName           string    `json:"first_name,omitempty" csv:"first_name,omitempty"`
	LastName            string    `json:"last_name,omitempty" csv:"last_name,omitempty"`
	Name                string    `json:"name,omitempty" csv:"-"`
	Company             string    `json:"company,omitempty" csv:"company,omitempty"`
	Interest            string    `json:"interest,omitempty" csv:"interest,omitempty"`
	WantsPodcastUpdates bool      `json:"wants_podcast_updates" csv:"wants_podcast_updates,omitempty"`
	WantsNewsletter     bool      `json:"wants_newsletter" csv:"wants_newsletter,omitempty"`
	WantsProductUpdates bool      `json:"wants_product_updates" csv:"wants_product_updates,omitempty"`
	DateAdded           time.Time `json:"date_added" csv:"date_added,omitempty"`
	DateOptin           time.Time `json:"date_optin" csv:"date_optin,omitempty"`
	DateLastChanged     time.Time `json:"date_last_changed" csv:"date_last_changed,omitempty"`
	Notes               string    `json:"notes,omitempty" csv:"-"`
	Tags                []string  `json:"tags,omitempty" csv:"-"`
	LinkToPeople        []string  `json:"link_to_people,omitempty" csv:"-"`
}

// Expand normalizes the email and fills Name.
func (s *Subscriber) Expand() {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Name = strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}

// ParseCSV reads subscribers from a signup export. Rows without an email
// are dropped.
func ParseCSV(r io.Reader) ([]Subscriber, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.WrapParse("csv", "subscribers", err)
	}

	var out []Subscriber
	for {
		var s Subscriber
		if err := dec.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.WrapParse("csv", "subscribers", err)
		}
		s.Expand()
		if s.Email == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// SlackMessage announces a signup. now anchors the "subscribed ... ago"
// phrase.
func SlackMessage(s Subscriber, now time.Time) slack.Message {
	blocks := []slack.Block{
		slack.Section(fmt.Sprintf("*%s* <mailto:%s|%s>", s.Name, s.Email, s.Email)),
	}
	if s.Interest != "" {
		blocks = append(blocks, slack.Section("\n>"+s.Interest))
	}
	blocks = append(blocks, slack.Context(fmt.Sprintf(
		"podcast updates: _%t_ | newsletter: _%t_ | product updates: _%t_",
		s.WantsPodcastUpdates, s.WantsNewsletter, s.WantsProductUpdates)))

	context := ""
	if s.Company != "" {
		context += fmt.Sprintf("works at %s | ", s.Company)
	}
	context += "subscribed to mailing list " + humanize.RelTime(s.DateAdded, now, "ago", "from now")
	blocks = append(blocks, slack.Context(context))

	return slack.Message{Text: s.Name + " subscribed to the mailing list", Blocks: blocks}
}
