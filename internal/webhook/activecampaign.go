package webhook

import "strings"

// acceptedACEventTypes are the ActiveCampaign events treated as
// contact-creation-like. Payloads without a type are accepted too.
var acceptedACEventTypes = map[string]bool{
	"subscribe":      true,
	"contact_add":    true,
	"contact_update": true,
}

// ActiveCampaignAdapter parses ActiveCampaign webhooks. Form submissions
// arrive as flat bracket-notation keys and are denested before field
// extraction; custom fields are keyed by opaque numeric ids, so phone
// resolution falls back to a shape heuristic.
type ActiveCampaignAdapter struct {
	cfg AdapterConfig
}

func NewActiveCampaignAdapter(cfg AdapterConfig) *ActiveCampaignAdapter {
	return &ActiveCampaignAdapter{cfg: cfg}
}

func (a *ActiveCampaignAdapter) Provider() Provider { return ProviderActiveCampaign }

func (a *ActiveCampaignAdapter) Parse(raw map[string]any) (*InboundContact, error) {
	payload := Denest(raw)

	if eventType := asString(payload["type"]); eventType != "" && !acceptedACEventTypes[strings.ToLower(eventType)] {
		return nil, &IgnoredEventError{EventType: eventType}
	}

	acContact := asMap(payload["contact"])

	contact := &InboundContact{
		FirstName: firstOf(
			stringField(acContact, "firstName", "first_name"),
			stringField(payload, "firstName", "first_name"),
		),
		LastName: firstOf(
			stringField(acContact, "lastName", "last_name"),
			stringField(payload, "lastName", "last_name"),
		),
		// ActiveCampaign payloads carry no source tag; the endpoint's
		// configured source is applied downstream.
		FilterableSource: false,
	}

	if contact.FirstName == "" && contact.LastName == "" {
		if full := firstOf(stringField(acContact, "name"), stringField(payload, "name")); full != "" {
			contact.FirstName, contact.LastName = SplitFullName(full)
		}
	}
	if contact.FirstName == "" {
		contact.FirstName = placeholderFirstName
	}

	contact.PhoneRaw = firstOf(
		stringField(acContact, phoneFieldNames...),
		stringField(payload, phoneFieldNames...),
		findPhone(asMap(acContact["fields"]), a.cfg.PhoneCandidates),
		findPhone(asMap(payload["fields"]), a.cfg.PhoneCandidates),
	)
	contact.PhoneNormalized = a.cfg.Phone.Normalize(contact.PhoneRaw)
	contact.Email = firstOf(stringField(acContact, "email"), stringField(payload, "email"))
	if contact.PhoneNormalized == "" {
		// Partial contact returned so the failure can be audited with context.
		return contact, ErrMissingPhone
	}
	contact.Company = stringField(acContact, "orgname")
	contact.ProviderContactID = stringField(acContact, "id")
	contact.ListID = stringField(payload, "list")
	contact.Tags = asStringSlice(acContact["tags"])
	contact.CustomFields = parseCustomFields(acContact["fieldValues"])
	if contact.CustomFields == nil {
		contact.CustomFields = flattenScalarMap(asMap(acContact["fields"]))
	}

	return contact, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func flattenScalarMap(obj map[string]any) map[string]string {
	if len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for key, value := range obj {
		if s := asString(value); s != "" {
			out[key] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
