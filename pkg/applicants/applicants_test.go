package applicants

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/airsync/pkg/logging"
)

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]string{
		"Next Steps please": StatusNextSteps,
		" deferred ":        StatusDeferred,
		"DECLINED":          StatusDeclined,
		"hired!":            StatusHired,
		"contractor":        StatusConsulting,
		"consulting":        StatusConsulting,
		"keeping warm":      StatusKeepingWarm,
		"":                  StatusTriage,
		"who knows":         StatusTriage,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeStatus(in), in)
	}
}

func TestParseHandles(t *testing.T) {
	tests := []struct {
		in, github, gitlab string
	}{
		{"https://github.com/Ada/", "@ada", ""},
		{"@ada", "@ada", ""},
		{"ada", "@ada", ""},
		{"https://gitlab.com/ada", "", "@ada"},
		{"  ", "", ""},
	}
	for _, tt := range tests {
		gh, gl := ParseHandles(tt.in)
		assert.Equal(t, tt.github, gh, tt.in)
		assert.Equal(t, tt.gitlab, gl, tt.in)
	}
}

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		location, phone, want string
	}{
		{"London, UK", "447400123456", "GB"},
		{"London, UK", "2015550123", "US"},
		{"Berlin, Germany", "", "DE"},
		{"Milan, Italy", "39021234567", "IT"},
		{"Prague", "420123456789", "CZ"},
		{"", "2015550123", DefaultRegion},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectRegion(tt.location, tt.phone), tt.location)
	}
}

func TestFormatPhone(t *testing.T) {
	got, ok := FormatPhone(CleanPhone(" (201) 555-0123 "), "US")
	assert.True(t, ok)
	assert.Equal(t, "+1 201-555-0123", got)

	got, ok = FormatPhone("12", "US")
	assert.False(t, ok)
	assert.Equal(t, "12", got)

	got, ok = FormatPhone("", "US")
	assert.True(t, ok)
	assert.Empty(t, got)
}

const materials = `Candidate Materials
Work sample(s)
my code
Writing samples
my essay
Analysis samples
logs
Presentation samples
talk
Questionnaire
What work have you found most challenging in your career and why?
Debugging.
What work have you done that you are particularly proud of and why?
Shipping.
Why do you want to work for Acme?
Because.`

func TestParseAnswers(t *testing.T) {
	want := Answers{
		WorkSamples:                    "my code",
		WritingSamples:                 "my essay",
		AnalysisSamples:                "logs",
		PresentationSamples:            "talk",
		QuestionTechnicallyChallenging: "Debugging.",
		QuestionWhyUs:                  "Because.",
	}
	if diff := cmp.Diff(want, ParseAnswers(materials)); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Answers{}, ParseAnswers("  "))
}

func TestParseCSV(t *testing.T) {
	logging.DisableLoggingForTest(t)
	in := strings.Join([]string{
		"timestamp,name,email,location,phone,github,status,sent_email_received,value_in_tension_1",
		`04/02/2021 10:00:00,Ada Lovelace,ada@example.com,"Newark, NJ",(201) 555-0123,https://github.com/Ada/,Next Steps please,FALSE,Humor`,
		"bad,Xavier,x@example.com,,,,,,",
		"04/03/2021 10:00:00,No Email,,,,,,,",
		"04/03/2021 11:00:00,Bob,bob@example.com,Berlin,12,,,TRUE,",
	}, "\n") + "\n"

	apps, err := ParseCSV(context.Background(), strings.NewReader(in), Sheet{Role: "Engineer", ID: "sheet1"})
	require.NoError(t, err)
	require.Len(t, apps, 2)

	ada := apps[0]
	assert.Equal(t, "Engineer", ada.Role)
	assert.Equal(t, "sheet1", ada.SheetID)
	assert.Equal(t, time.Date(2021, 4, 2, 18, 0, 0, 0, time.UTC), ada.SubmittedTime)
	assert.Equal(t, "+1 201-555-0123", ada.Phone)
	assert.Equal(t, "us", ada.CountryCode)
	assert.Equal(t, "@ada", ada.GitHub)
	assert.Equal(t, StatusNextSteps, ada.Status)
	assert.False(t, ada.SentEmailReceived)
	assert.Equal(t, []string{"humor"}, ada.ValuesInTension)

	bob := apps[1]
	assert.Equal(t, "12", bob.Phone)
	assert.Equal(t, "de", bob.CountryCode)
	assert.True(t, bob.SentEmailReceived)
	assert.Equal(t, StatusTriage, bob.Status)

	none, err := ParseCSV(context.Background(), strings.NewReader(""), Sheet{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSlackMessage(t *testing.T) {
	now := time.Date(2021, 4, 2, 21, 0, 0, 0, time.UTC)
	a := Applicant{
		Name: "Ada", Email: "ada@x.com", Role: "Engineer", SheetID: "s1",
		Resume: "https://r", Materials: "https://m", GitHub: "@ada",
		ValueReflected: "candor", ValuesInTension: []string{"humor", "rigor"},
		Status:        StatusTriage,
		SubmittedTime: now.Add(-3 * time.Hour),
	}
	msg := SlackMessage(a, now)
	require.Len(t, msg.Blocks, 4)
	assert.Equal(t, "*Ada*  <mailto:ada@x.com|ada@x.com>", msg.Blocks[0].Text.Text)
	assert.Equal(t, "<https://r|resume> | <https://m|materials> | <https://github.com/ada|github:@ada>", msg.Blocks[1].Elements[0].Text)
	assert.Equal(t, "values reflected: *candor* | in tension: *humor* *& rigor*", msg.Blocks[2].Elements[0].Text)
	assert.Equal(t, "<https://docs.google.com/spreadsheets/d/s1|Engineer> Applicant | applied 3 hours ago | status: *Needs to be triaged*",
		msg.Blocks[3].Elements[0].Text)

	assert.Equal(t, "values not yet populated", valuesSummary(Applicant{}))
}

func TestMapperRoundTrip(t *testing.T) {
	a := Applicant{
		ID: 9, Name: "Ada", Role: "Engineer", SheetID: "s1", Status: StatusHired,
		SubmittedTime: time.Date(2021, 4, 2, 18, 0, 0, 0, time.UTC),
		Email:         "ada@x.com", Phone: "+1 201-555-0123", CountryCode: "us",
		SentEmailReceived: true, ValuesInTension: []string{"humor"},
		Answers: Answers{QuestionWhyUs: "Because."},
	}
	fields, err := Mapper{}.Encode(a)
	require.NoError(t, err)
	assert.Equal(t, "Because.", fields["questionWhyUs"])
	fields["id"] = 9

	got, err := Mapper{}.Decode(fields)
	require.NoError(t, err)
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "ada@x.com/Engineer", got.Key())
}
