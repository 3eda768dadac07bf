package applicants

import (
	"strings"
	"time"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/mirror"
	"github.com/agentstation/airsync/pkg/reconciler"
)

const submittedLayout = "2006-01-02T15:04:05.000Z07:00"

// answerFields lists the remote long-text columns backed by Answers.
var answerFields = []struct {
	key   string
	field func(*Answers) *string
}{
	{"workSamples", func(a *Answers) *string { return &a.WorkSamples }},
	{"writingSamples", func(a *Answers) *string { return &a.WritingSamples }},
	{"analysisSamples", func(a *Answers) *string { return &a.AnalysisSamples }},
	{"presentationSamples", func(a *Answers) *string { return &a.PresentationSamples }},
	{"exploratorySamples", func(a *Answers) *string { return &a.ExploratorySamples }},
	{"questionTechnicallyChallenging", func(a *Answers) *string { return &a.QuestionTechnicallyChallenging }},
	{"questionProudOf", func(a *Answers) *string { return &a.QuestionProudOf }},
	{"questionHappiest", func(a *Answers) *string { return &a.QuestionHappiest }},
	{"questionUnhappiest", func(a *Answers) *string { return &a.QuestionUnhappiest }},
	{"questionValueReflected", func(a *Answers) *string { return &a.QuestionValueReflected }},
	{"questionValueViolated", func(a *Answers) *string { return &a.QuestionValueViolated }},
	{"questionValuesInTension", func(a *Answers) *string { return &a.QuestionValuesInTension }},
	{"questionWhyUs", func(a *Answers) *string { return &a.QuestionWhyUs }},
}

// Mapper maps applicants to the applications table.
type Mapper struct{}

var _ reconciler.Mapper[Applicant] = Mapper{}

// Key implements reconciler.Mapper.
func (Mapper) Key(a Applicant) int { return a.ID }

// Encode implements reconciler.Mapper.
func (Mapper) Encode(a Applicant) (mirror.Fields, error) {
	f := mirror.Fields{"sentEmailReceived": a.SentEmailReceived}
	f.SetString("name", a.Name)
	f.SetString("role", a.Role)
	f.SetString("sheetId", a.SheetID)
	f.SetString("status", a.Status)
	f.SetTime("submittedTime", a.SubmittedTime.UTC(), submittedLayout)
	f.SetString("email", a.Email)
	f.SetString("phone", a.Phone)
	f.SetString("countryCode", a.CountryCode)
	f.SetString("location", a.Location)
	f.SetString("github", a.GitHub)
	f.SetString("gitlab", a.GitLab)
	f.SetString("linkedin", a.LinkedIn)
	f.SetString("portfolio", a.Portfolio)
	f.SetString("website", a.Website)
	f.SetString("resume", a.Resume)
	f.SetString("materials", a.Materials)
	f.SetString("valueReflected", a.ValueReflected)
	f.SetString("valueViolated", a.ValueViolated)
	f.SetStrings("valuesInTension", a.ValuesInTension)
	for _, af := range answerFields {
		f.SetString(af.key, *af.field(&a.Answers))
	}
	return f, nil
}

// Decode implements reconciler.Mapper.
func (Mapper) Decode(f mirror.Fields) (Applicant, error) {
	d := f.Decoder()
	a := Applicant{
		ID:                d.Int(constants.LinkField),
		Name:              d.String("name"),
		Role:              d.String("role"),
		SheetID:           d.String("sheetId"),
		Status:            d.String("status"),
		SubmittedTime:     d.Time("submittedTime", time.RFC3339),
		Email:             d.String("email"),
		Phone:             d.String("phone"),
		CountryCode:       strings.ToLower(d.String("countryCode")),
		Location:          d.String("location"),
		GitHub:            d.String("github"),
		GitLab:            d.String("gitlab"),
		LinkedIn:          d.String("linkedin"),
		Portfolio:         d.String("portfolio"),
		Website:           d.String("website"),
		Resume:            d.String("resume"),
		Materials:         d.String("materials"),
		SentEmailReceived: d.Bool("sentEmailReceived"),
		ValueReflected:    d.String("valueReflected"),
		ValueViolated:     d.String("valueViolated"),
		ValuesInTension:   d.Strings("valuesInTension"),
	}
	for _, af := range answerFields {
		*af.field(&a.Answers) = d.String(af.key)
	}
	return a, d.Err()
}

// ClearRemoteOwned implements reconciler.Mapper.
func (Mapper) ClearRemoteOwned(a *Applicant) {
	a.Status = ""
	a.ValueReflected = ""
	a.ValueViolated = ""
	a.ValuesInTension = nil
}

// CopyRemoteOwned implements reconciler.Mapper.
func (Mapper) CopyRemoteOwned(a *Applicant, remote Applicant) {
	a.Status = remote.Status
	a.ValueReflected = remote.ValueReflected
	a.ValueViolated = remote.ValueViolated
	a.ValuesInTension = remote.ValuesInTension
}

type codec struct{}

func (codec) NaturalKey(a Applicant) string { return a.Key() }
func (codec) SetID(a *Applicant, id int)    { a.ID = id }
