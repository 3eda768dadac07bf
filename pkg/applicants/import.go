package applicants

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/agentstation/airsync/pkg/errors"
	"github.com/agentstation/airsync/pkg/logging"
)

// TimestampLayout is the spreadsheet's submission timestamp format. Form
// timestamps are recorded in Pacific standard time.
const TimestampLayout = "01/02/2006 15:04:05"

var formZone = time.FixedZone("PST", -8*60*60)

// Sheet identifies the spreadsheet an export came from.
type Sheet struct {
	Role string
	ID   string
}

// row is one line of an application spreadsheet export.
type row struct {
	Timestamp         string `csv:"timestamp"`
	Name              string `csv:"name"`
	Email             string `csv:"email"`
	Location          string `csv:"location,omitempty"`
	Phone             string `csv:"phone,omitempty"`
	GitHub            string `csv:"github,omitempty"`
	Portfolio         string `csv:"portfolio,omitempty"`
	Website           string `csv:"website,omitempty"`
	LinkedIn          string `csv:"linkedin,omitempty"`
	Resume            string `csv:"resume,omitempty"`
	Materials         string `csv:"materials,omitempty"`
	Status            string `csv:"status,omitempty"`
	SentEmailReceived string `csv:"sent_email_received,omitempty"`
	ValueReflected    string `csv:"value_reflected,omitempty"`
	ValueViolated     string `csv:"value_violated,omitempty"`
	ValueInTension1   string `csv:"value_in_tension_1,omitempty"`
	ValueInTension2   string `csv:"value_in_tension_2,omitempty"`
	MaterialsText     string `csv:"materials_text,omitempty"`
}

// ParseCSV reads an application spreadsheet export. Rows without an email
// or with an unreadable timestamp are skipped with a warning, as are
// phone numbers that cannot be formatted, which are kept as entered.
func ParseCSV(ctx context.Context, r io.Reader, sheet Sheet) ([]Applicant, error) {
	logger := logging.FromContext(ctx)
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.WrapParse("csv", sheet.Role, err)
	}

	var out []Applicant
	for line := 2; ; line++ {
		var rw row
		if err := dec.Decode(&rw); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.WrapParse("csv", sheet.Role, err)
		}
		a, phoneOK, err := rw.applicant(sheet)
		if err != nil {
			logger.Warn().Err(err).Str("role", sheet.Role).Int("line", line).Msg("Skipping application row")
			continue
		}
		if !phoneOK {
			logger.Warn().Str("email", a.Email).Str("phone", a.Phone).Msg("Phone number is invalid, keeping as entered")
		}
		out = append(out, a)
	}
	return out, nil
}

func (rw row) applicant(sheet Sheet) (a Applicant, phoneOK bool, err error) {
	email := strings.TrimSpace(rw.Email)
	if email == "" {
		return a, false, errors.NewValidationError("email", "", "is required")
	}
	submitted, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(rw.Timestamp), formZone)
	if err != nil {
		return a, false, errors.NewParseError("timestamp", sheet.Role, "unreadable submission time", err)
	}

	a = Applicant{
		Name:              strings.TrimSpace(rw.Name),
		Role:              sheet.Role,
		SheetID:           sheet.ID,
		Status:            NormalizeStatus(rw.Status),
		SubmittedTime:     submitted.UTC(),
		Email:             email,
		Location:          strings.TrimSpace(rw.Location),
		LinkedIn:          lower(rw.LinkedIn),
		Portfolio:         lower(rw.Portfolio),
		Website:           lower(rw.Website),
		Resume:            strings.TrimSpace(rw.Resume),
		Materials:         strings.TrimSpace(rw.Materials),
		SentEmailReceived: !strings.Contains(strings.ToLower(rw.SentEmailReceived), "false"),
		ValueReflected:    lower(rw.ValueReflected),
		ValueViolated:     lower(rw.ValueViolated),
		Answers:           ParseAnswers(rw.MaterialsText),
	}
	a.GitHub, a.GitLab = ParseHandles(rw.GitHub)
	for _, v := range []string{rw.ValueInTension1, rw.ValueInTension2} {
		if v = lower(v); v != "" {
			a.ValuesInTension = append(a.ValuesInTension, v)
		}
	}

	phone := CleanPhone(rw.Phone)
	region := DetectRegion(a.Location, phone)
	a.CountryCode = strings.ToLower(region)
	a.Phone, phoneOK = FormatPhone(phone, region)
	return a, phoneOK, nil
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
