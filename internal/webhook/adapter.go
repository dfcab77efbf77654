package webhook

import (
	"errors"
	"fmt"
)

// Provider identifies a supported webhook provider.
type Provider string

const (
	// ProviderHubdigital is the GoHighLevel-style CRM integration.
	ProviderHubdigital Provider = "hubdigital"
	// ProviderActiveCampaign is the ActiveCampaign integration.
	ProviderActiveCampaign Provider = "activecampaign"
)

// ErrMissingPhone is returned when no phone number resolves from the payload
// after trying every known field. This is a hard validation failure.
var ErrMissingPhone = errors.New("webhook: phone number is required")

// IgnoredEventError marks payloads whose event type is not a
// contact-creation event. Not an error condition for the caller: the
// provider gets a 200 so it does not retry.
type IgnoredEventError struct {
	EventType string
}

func (e *IgnoredEventError) Error() string {
	return fmt.Sprintf("webhook: event type %q ignored", e.EventType)
}

// Adapter maps one provider's raw payload into the canonical InboundContact.
type Adapter interface {
	Provider() Provider
	Parse(payload map[string]any) (*InboundContact, error)
}

// AdapterConfig carries the normalization policies shared by all adapters.
type AdapterConfig struct {
	Phone           PhonePolicy
	PhoneCandidates PhoneCandidatePolicy
}

// DefaultAdapterConfig matches production behavior.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Phone:           DefaultPhonePolicy,
		PhoneCandidates: DefaultPhoneCandidatePolicy,
	}
}

// NewAdapters builds the adapter set keyed by provider.
func NewAdapters(cfg AdapterConfig) map[Provider]Adapter {
	return map[Provider]Adapter{
		ProviderHubdigital:     NewHubdigitalAdapter(cfg),
		ProviderActiveCampaign: NewActiveCampaignAdapter(cfg),
	}
}
