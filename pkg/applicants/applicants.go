// Package applicants syncs job applications exported from the application
// spreadsheets.
package applicants

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/agentstation/airsync/pkg/notify/slack"
)

// Entity is the name used to select this sync.
const Entity = "applicants"

// Review states. Anything unrecognised is triage.
const (
	StatusNextSteps   = "Next steps"
	StatusDeferred    = "Deferred"
	StatusDeclined    = "Declined"
	StatusHired       = "Hired"
	StatusConsulting  = "Consulting"
	StatusKeepingWarm = "Keeping warm"
	StatusTriage      = "Needs to be triaged"
)

// Applicant is one application. Status and the values fields are
// maintained by reviewers in the remote store.
type Applicant struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	SheetID           string    `json:"sheet_id,omitempty"`
	Status            string    `json:"status"`
	SubmittedTime     time.Time `json:"submitted_time"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	CountryCode       string    `json:"country_code,omitempty"`
	Location          string    `json:"location,omitempty"`
	GitHub            string    `json:"github,omitempty"`
	GitLab            string    `json:"gitlab,omitempty"`
	LinkedIn          string    `json:"linkedin,omitempty"`
	Portfolio         string    `json:"portfolio,omitempty"`
	Website           string    `json:"website,omitempty"`
	Resume            string    `json:"resume"`
	Materials         string    `json:"materials"`
	SentEmailReceived bool      `json:"sent_email_received"`
	ValueReflected    string    `json:"value_reflected,omitempty"`
	ValueViolated     string    `json:"value_violated,omitempty"`
	ValuesInTension   []string  `json:"values_in_tension,omitempty"`

	Answers
}

// Answers holds the sections parsed out of the candidate materials.
type Answers struct {
	WorkSamples                    string `json:"work_samples,omitempty"`
	WritingSamples                 string `json:"writing_samples,omitempty"`
	AnalysisSamples                string `json:"analysis_samples,omitempty"`
	PresentationSamples            string `json:"presentation_samples,omitempty"`
	ExploratorySamples             string `json:"exploratory_samples,omitempty"`
	QuestionTechnicallyChallenging string `json:"question_technically_challenging,omitempty"`
	QuestionProudOf                string `json:"question_proud_of,omitempty"`
	QuestionHappiest               string `json:"question_happiest,omitempty"`
	QuestionUnhappiest             string `json:"question_unhappiest,omitempty"`
	QuestionValueReflected         string `json:"question_value_reflected,omitempty"`
	QuestionValueViolated          string `json:"question_value_violated,omitempty"`
	QuestionValuesInTension        string `json:"question_values_in_tension,omitempty"`
	QuestionWhyUs                  string `json:"question_why_us,omitempty"`
}

// Key identifies an application: one per email per role.
func (a Applicant) Key() string {
	return strings.ToLower(a.Email) + "/" + a.Role
}

// NormalizeStatus maps the free-text spreadsheet status to a review state.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "next steps"):
		return StatusNextSteps
	case strings.Contains(s, "deferred"):
		return StatusDeferred
	case strings.Contains(s, "declined"):
		return StatusDeclined
	case strings.Contains(s, "hired"):
		return StatusHired
	case strings.Contains(s, "contractor"), strings.Contains(s, "consulting"):
		return StatusConsulting
	case strings.Contains(s, "keeping warm"):
		return StatusKeepingWarm
	default:
		return StatusTriage
	}
}

// ParseHandles turns the GitHub form answer into handles. Some applicants
// paste a GitLab URL there instead.
func ParseHandles(raw string) (github, gitlab string) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", ""
	}
	if strings.HasPrefix(s, "https://gitlab.com") {
		s = strings.TrimPrefix(s, "https://gitlab.com/")
		return "", "@" + strings.TrimSuffix(strings.TrimPrefix(s, "@"), "/")
	}
	for _, p := range []string{"https://github.com/", "http://github.com/", "https://www.github.com/"} {
		s = strings.TrimPrefix(s, p)
	}
	return "@" + strings.TrimSuffix(strings.TrimPrefix(s, "@"), "/"), ""
}

// SlackMessage summarises an application. now anchors the "applied ...
// ago" phrase.
func SlackMessage(a Applicant, now time.Time) slack.Message {
	intro := fmt.Sprintf("*%s*  <mailto:%s|%s>", a.Name, a.Email, a.Email)
	if a.Location != "" {
		intro += "  " + a.Location
	}

	info := fmt.Sprintf("<%s|resume> | <%s|materials>", a.Resume, a.Materials)
	if a.Phone != "" {
		info += fmt.Sprintf(" | <tel:%s|%s>", a.Phone, a.Phone)
	}
	if a.GitHub != "" {
		info += fmt.Sprintf(" | <https://github.com/%s|github:%s>", strings.TrimPrefix(a.GitHub, "@"), a.GitHub)
	}
	if a.GitLab != "" {
		info += fmt.Sprintf(" | <https://gitlab.com/%s|gitlab:%s>", strings.TrimPrefix(a.GitLab, "@"), a.GitLab)
	}
	for _, l := range []struct{ url, label string }{
		{a.LinkedIn, "linkedin"}, {a.Portfolio, "portfolio"}, {a.Website, "website"},
	} {
		if l.url != "" {
			info += fmt.Sprintf(" | <%s|%s>", l.url, l.label)
		}
	}

	values := valuesSummary(a)

	status := fmt.Sprintf("<https://docs.google.com/spreadsheets/d/%s|%s> Applicant | applied %s",
		a.SheetID, a.Role, humanize.RelTime(a.SubmittedTime, now, "ago", "from now"))
	if a.Status != "" {
		status += fmt.Sprintf(" | status: *%s*", a.Status)
	}

	return slack.Message{
		Text: fmt.Sprintf("New %s application from %s", a.Role, a.Name),
		Blocks: []slack.Block{
			slack.Section(intro),
			slack.Context(info),
			slack.Context(values),
			slack.Context(status),
		},
	}
}

func valuesSummary(a Applicant) string {
	var parts []string
	if a.ValueReflected != "" {
		parts = append(parts, fmt.Sprintf("values reflected: *%s*", a.ValueReflected))
	}
	if a.ValueViolated != "" {
		parts = append(parts, fmt.Sprintf("violated: *%s*", a.ValueViolated))
	}
	if len(a.ValuesInTension) > 0 {
		tension := fmt.Sprintf("in tension: *%s*", a.ValuesInTension[0])
		for _, v := range a.ValuesInTension[1:] {
			tension += fmt.Sprintf(" *& %s*", v)
		}
		parts = append(parts, tension)
	}
	if len(parts) == 0 {
		return "values not yet populated"
	}
	return strings.Join(parts, " | ")
}

// EmailSummary is the plain-text body of the new applicant notification.
func EmailSummary(a Applicant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Applicant Information for %s\n\n", a.Role)
	fmt.Fprintf(&b, "Submitted: %s\n", a.SubmittedTime.Format(time.RFC1123))
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n", a.Name, a.Email)
	for _, f := range []struct{ label, v string }{
		{"Phone", a.Phone}, {"Location", a.Location}, {"GitHub", a.GitHub}, {"GitLab", a.GitLab},
		{"LinkedIn", a.LinkedIn}, {"Portfolio", a.Portfolio}, {"Website", a.Website},
	} {
		if f.v != "" {
			fmt.Fprintf(&b, "%s: %s\n", f.label, f.v)
		}
	}
	fmt.Fprintf(&b, "Resume: %s\nMaterials: %s\n", a.Resume, a.Materials)
	return b.String()
}
