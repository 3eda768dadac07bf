package applicants

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed when no location rule matches.
const DefaultRegion = "US"

// regionRule maps location substrings to a region. When prefix is set the
// cleaned phone number must also start with that calling code.
type regionRule struct {
	region string
	places []string
	prefix string
}

// regionRules is checked in order; the first match wins.
var regionRules = []regionRule{
	{"GB", []string{"uk", "london", "ipswich", "united kingdom", "england"}, "44"},
	{"CZ", []string{"czech republic", "prague"}, "420"},
	{"TR", []string{"turkey"}, "90"},
	{"SE", []string{"sweden"}, "46"},
	{"IN", []string{"mumbai", "india", "bangalore"}, "91"},
	{"BR", []string{"brazil"}, ""},
	{"BE", []string{"belgium"}, ""},
	{"RO", []string{"romania"}, "40"},
	{"NG", []string{"nigeria"}, ""},
	{"AT", []string{"austria"}, ""},
	{"AU", []string{"australia"}, "61"},
	{"LK", []string{"sri lanka"}, "94"},
	{"SI", []string{"slovenia"}, "386"},
	{"FR", []string{"france"}, "33"},
	{"NL", []string{"netherlands"}, "31"},
	{"TW", []string{"taiwan"}, ""},
	{"NZ", []string{"new zealand"}, ""},
	{"IT", []string{"maragno", "italy"}, ""},
	{"KE", []string{"nairobi", "kenya"}, ""},
	{"AE", []string{"dubai"}, ""},
	{"PL", []string{"poland"}, ""},
	{"PT", []string{"portugal"}, ""},
	{"DE", []string{"berlin", "germany"}, ""},
	{"BJ", []string{"benin"}, "229"},
	{"IL", []string{"israel"}, ""},
	{"ES", []string{"spain"}, ""},
}

var phoneCleaner = strings.NewReplacer(" ", "", "-", "", "+", "", "(", "", ")", "")

// CleanPhone strips formatting characters from a phone number.
func CleanPhone(raw string) string {
	return phoneCleaner.Replace(strings.TrimSpace(raw))
}

// DetectRegion guesses the ISO region of an applicant from their free-text
// location and cleaned phone number.
func DetectRegion(location, phone string) string {
	loc := strings.ToLower(location)
	for _, r := range regionRules {
		if r.prefix != "" && !strings.HasPrefix(phone, r.prefix) {
			continue
		}
		for _, p := range r.places {
			if strings.Contains(loc, p) {
				return r.region
			}
		}
	}
	return DefaultRegion
}

// FormatPhone formats a cleaned number in international format for
// region. ok is false when the number does not parse or is not valid, in
// which case the input is returned unchanged.
func FormatPhone(phone, region string) (formatted string, ok bool) {
	if phone == "" {
		return "", true
	}
	num, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone, false
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), true
}
