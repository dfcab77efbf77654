package webhook

// HubdigitalAdapter parses webhooks from the Hubdigital (GoHighLevel-style)
// CRM. Payloads are flat JSON objects with explicit contact fields.
type HubdigitalAdapter struct {
	cfg AdapterConfig
}

func NewHubdigitalAdapter(cfg AdapterConfig) *HubdigitalAdapter {
	return &HubdigitalAdapter{cfg: cfg}
}

func (a *HubdigitalAdapter) Provider() Provider { return ProviderHubdigital }

// Parse maps a Hubdigital payload into the canonical contact. Only
// ContactCreate events (or payloads without a type) are processed.
func (a *HubdigitalAdapter) Parse(payload map[string]any) (*InboundContact, error) {
	if eventType := asString(payload["type"]); eventType != "" && eventType != "ContactCreate" {
		return nil, &IgnoredEventError{EventType: eventType}
	}

	contact := &InboundContact{
		FirstName:        stringField(payload, "firstName"),
		LastName:         stringField(payload, "lastName"),
		Source:           stringField(payload, "source"),
		FilterableSource: true,
	}

	if contact.FirstName == "" && contact.LastName == "" {
		if full := stringField(payload, "name"); full != "" {
			contact.FirstName, contact.LastName = SplitFullName(full)
		}
	}
	if contact.FirstName == "" {
		contact.FirstName = placeholderFirstName
	}

	contact.PhoneRaw = stringField(payload, phoneFieldNames...)
	contact.PhoneNormalized = a.cfg.Phone.Normalize(contact.PhoneRaw)
	contact.Email = stringField(payload, "email")
	if contact.PhoneNormalized == "" {
		// Partial contact returned so the failure can be audited with context.
		return contact, ErrMissingPhone
	}

	contact.Company = stringField(payload, "companyName")
	contact.Website = stringField(payload, "website")
	contact.Address = stringField(payload, "address1")
	contact.City = stringField(payload, "city")
	contact.State = stringField(payload, "state")
	contact.PostalCode = stringField(payload, "postalCode")
	contact.Country = stringField(payload, "country")
	contact.DateAdded = stringField(payload, "dateAdded")
	contact.DateOfBirth = stringField(payload, "dateOfBirth")
	contact.AssignedTo = stringField(payload, "assignedTo")
	contact.ProviderContactID = stringField(payload, "id")
	contact.ProviderLocationID = stringField(payload, "locationId")
	contact.Tags = asStringSlice(payload["tags"])
	contact.CustomFields = parseCustomFields(payload["customFields"])

	if dnd, ok := payload["dnd"].(bool); ok {
		contact.DND = &dnd
	}
	if settings := asMap(payload["dndSettings"]); settings != nil {
		contact.DNDSettings = settings
	}

	return contact, nil
}

// parseCustomFields accepts both provider shapes: a list of {id, value}
// pairs and a plain key/value object.
func parseCustomFields(raw any) map[string]string {
	switch t := raw.(type) {
	case []any:
		out := make(map[string]string, len(t))
		for _, item := range t {
			entry := asMap(item)
			if entry == nil {
				continue
			}
			id := stringField(entry, "id", "field")
			if id == "" {
				continue
			}
			out[id] = asString(entry["value"])
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(t))
		for key, value := range t {
			out[key] = asString(value)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
