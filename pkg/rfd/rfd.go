// Package rfd syncs Requests for Discussion from the rfd repository.
package rfd

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// Entity is the name used to select this sync.
const Entity = "rfds"

// Link templates for generated fields.
const (
	ShortLinkFormat  = "https://%d.rfd.oxide.computer"
	RenderedLinkBase = "https://rfd.shared.oxide.computer/rfd/"
)

// RFD is one Request for Discussion. Milestones and RelevantComponents
// exist only in the remote store.
type RFD struct {
	ID                 int       `json:"id" csv:"-"`
	Number             int       `json:"number" csv:"num"`
	NumberString       string    `json:"number_string,omitempty" csv:"-"`
	Title              string    `json:"title" csv:"title"`
	Name               string    `json:"name,omitempty" csv:"-"`
	State              string    `json:"state" csv:"state"`
	Link               string    `json:"link" csv:"link"`
	ShortLink          string    `json:"short_link,omitempty" csv:"-"`
	RenderedLink       string    `json:"rendered_link,omitempty" csv:"-"`
	Discussion         string    `json:"discussion,omitempty" csv:"discussion,omitempty"`
	Authors            string    `json:"authors,omitempty" csv:"authors,omitempty"`
	Sha                string    `json:"sha,omitempty" csv:"-"`
	CommitDate         time.Time `json:"commit_date,omitzero" csv:"-"`
	Milestones         []string  `json:"milestones,omitempty" csv:"-"`
	RelevantComponents []string  `json:"relevant_components,omitempty" csv:"-"`
}

// Expand fills the generated fields from Number and Title.
func (r *RFD) Expand() {
	r.NumberString = fmt.Sprintf("%04d", r.Number)
	r.Name = fmt.Sprintf("RFD %d %s", r.Number, r.Title)
	r.ShortLink = fmt.Sprintf(ShortLinkFormat, r.Number)
	r.RenderedLink = RenderedLinkBase + r.NumberString
}

// Branch is the branch the RFD's source lives on: master once published,
// otherwise a branch named after the zero-padded number.
func (r *RFD) Branch() string {
	if strings.Contains(r.Link, "/master/") {
		return "master"
	}
	return r.NumberString
}

// Dir is the RFD's directory in the repository.
func (r *RFD) Dir() string {
	return "/rfd/" + r.NumberString
}

// SlackText renders a one-line summary.
func SlackText(r RFD) string {
	msg := fmt.Sprintf("%s (_*%s*_) <%s|github> <%s|rendered>", r.Name, r.State, r.ShortLink, r.RenderedLink)
	if r.Discussion != "" {
		msg += fmt.Sprintf(" <%s|discussion>", r.Discussion)
	}
	return msg
}

// ParseAuthors reads the authors attribute out of an RFD document. Markdown
// documents carry it as front matter ("authors: ..."), AsciiDoc documents
// as a document attribute (":authors: ...").
func ParseAuthors(content string, markdown bool) string {
	prefix := ":authors:"
	if markdown {
		prefix = "authors:"
	}
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
