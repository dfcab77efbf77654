// Package webhook implements the inbound lead ingestion pipeline: payload
// normalization, provider adapters, tenant gating, campaign attribution and
// lead assembly for third-party CRM webhooks.
package webhook

import "strings"

// PhonePolicy controls the normalization heuristics. The defaults were tuned
// against observed provider payloads, which are dominated by Italian mobile
// numbers misreported under a US calling-code heuristic.
type PhonePolicy struct {
	// RepairUSMisdetect rewrites +1 3XXXXXXXXX into +39 3XXXXXXXXX.
	RepairUSMisdetect bool
}

// DefaultPhonePolicy matches production behavior.
var DefaultPhonePolicy = PhonePolicy{RepairUSMisdetect: true}

// NormalizePhone turns a raw phone string into canonical +<country><number>
// form. It returns "" for empty input; callers must treat that as "no phone".
// The function is total and idempotent.
func NormalizePhone(raw string) string {
	return DefaultPhonePolicy.Normalize(raw)
}

// Normalize applies the ordered normalization rules, specific before general
// so a 10/11/12-digit Italian pattern never falls through to the default.
func (p PhonePolicy) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := stripPhoneFormatting(raw)
	if cleaned == "" {
		return ""
	}
	digits := digitsOnly(cleaned)

	// +1 prefix but the national part looks like an Italian mobile
	// (3XX XXX XXXX): provider misclassified the country.
	if p.RepairUSMisdetect && strings.HasPrefix(cleaned, "+1") && len(digits) == 11 && strings.HasPrefix(digits, "13") {
		return "+39" + digits[1:]
	}

	// Bare Italian mobile without any prefix.
	if len(digits) == 10 && strings.HasPrefix(digits, "3") {
		return "+39" + digits
	}

	// Italian country code present but no +.
	if len(digits) == 12 && strings.HasPrefix(digits, "393") {
		return "+" + digits
	}

	// Legacy 0039 international dialing prefix.
	if strings.HasPrefix(digits, "0039") {
		return "+39" + digits[4:]
	}

	// Generic 00 international prefix.
	if strings.HasPrefix(cleaned, "00") {
		return "+" + digits[2:]
	}

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	return "+" + cleaned
}

func stripPhoneFormatting(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '-', '(', ')', '.', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
