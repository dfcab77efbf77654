package webhook

import (
	"fmt"
	"strings"
)

// InboundContact is the canonical, pipeline-internal contact record a
// provider adapter produces from a raw payload. It is created per request and
// its shape is folded into the persisted lead.
type InboundContact struct {
	FirstName       string
	LastName        string
	PhoneRaw        string
	PhoneNormalized string
	Email           string

	// Source is the free-text origin tag resolved from the payload. Empty
	// when the provider does not carry one.
	Source string
	// FilterableSource reports whether Source came from the payload and may
	// be checked against the endpoint's source filter. ActiveCampaign
	// payloads carry no source tag, so their leads are never filtered.
	FilterableSource bool

	Company      string
	Website      string
	Address      string
	City         string
	State        string
	PostalCode   string
	Country      string
	Tags         []string
	CustomFields map[string]string
	DateAdded    string
	DateOfBirth  string
	AssignedTo   string
	ListID       string
	DND          *bool
	DNDSettings  map[string]any

	// Provider-native identifiers, kept for cross-referencing.
	ProviderContactID  string
	ProviderLocationID string
}

// placeholderFirstName is used when no name field resolves at all; a lead
// with a phone number is still worth creating.
const placeholderFirstName = "Lead"

// SplitFullName splits a single "full name" field on whitespace: first token
// becomes the first name, the remainder joined becomes the last name.
func SplitFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// stringField returns the first non-empty string value among the given keys.
func stringField(obj map[string]any, keys ...string) string {
	if obj == nil {
		return ""
	}
	for _, key := range keys {
		if s := asString(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; ids arrive this way.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case int:
		return fmt.Sprintf("%d", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return ""
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// PhoneCandidatePolicy decides whether an opaque custom-field value looks
// like a phone number. The char/digit windows were tuned on observed
// ActiveCampaign payloads where custom fields are keyed by numeric ids.
type PhoneCandidatePolicy struct {
	MinChars  int
	MaxChars  int
	MinDigits int
	MaxDigits int
}

// DefaultPhoneCandidatePolicy matches production behavior.
var DefaultPhoneCandidatePolicy = PhoneCandidatePolicy{
	MinChars:  8,
	MaxChars:  20,
	MinDigits: 8,
	MaxDigits: 15,
}

// Matches reports whether the value falls in the candidate window.
func (p PhoneCandidatePolicy) Matches(value string) bool {
	if len(value) < p.MinChars || len(value) > p.MaxChars {
		return false
	}
	digits := digitsOnly(value)
	return len(digits) >= p.MinDigits && len(digits) <= p.MaxDigits
}

// phoneFieldNames are the known direct phone field spellings across
// providers, consulted in priority order.
var phoneFieldNames = []string{
	"phone", "phone_number", "mobile", "cellulare", "telefono",
	"PHONE", "MOBILE", "CELLULARE", "TELEFONO",
}

// findPhone looks for a phone in an object: known field names first, then
// any value matching the candidate policy (custom fields with numeric ids).
func findPhone(obj map[string]any, policy PhoneCandidatePolicy) string {
	if obj == nil {
		return ""
	}
	if s := stringField(obj, phoneFieldNames...); s != "" {
		return s
	}
	for _, value := range obj {
		s, ok := value.(string)
		if ok && policy.Matches(s) {
			return s
		}
	}
	return ""
}
