// Package leads persists the idempotent lead records produced by the
// ingestion pipeline and picked up by downstream messaging workers.
package leads

import (
	"strings"
	"time"

	"github.com/AlessioChianetta/leadgate/internal/campaigns"
)

// StatusPending is the status every ingested lead starts in.
const StatusPending = "pending"

// Info is the open bag of provider- and campaign-derived lead fields stored
// as jsonb. Known fields are typed; provider custom fields stay a
// map-of-scalars keyed by the provider's own ids.
type Info struct {
	Source     string `json:"source,omitempty"`
	Objectives string `json:"objectives,omitempty"`
	Desires    string `json:"desires,omitempty"`
	Hook       string `json:"hook,omitempty"`

	Email      string `json:"email,omitempty"`
	Company    string `json:"company,omitempty"`
	Website    string `json:"website,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`

	Tags         []string          `json:"tags,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	DateAdded    string            `json:"dateAdded,omitempty"`
	DateOfBirth  string            `json:"dateOfBirth,omitempty"`
	AssignedTo   string            `json:"assignedTo,omitempty"`
	ListID       string            `json:"list,omitempty"`

	ProviderContactID  string `json:"providerContactId,omitempty"`
	ProviderLocationID string `json:"providerLocationId,omitempty"`

	DND         *bool          `json:"dnd,omitempty"`
	DNDSettings map[string]any `json:"dndSettings,omitempty"`
}

// Lead is a persisted lead. Created exactly once per successful ingestion
// and never mutated by the pipeline afterwards; uniqueness on
// (consultant_id, phone_number) is enforced by the store.
type Lead struct {
	ID            string    `json:"id"`
	ConsultantID  string    `json:"consultant_id"`
	AgentConfigID string    `json:"agent_config_id"`
	CampaignID    string    `json:"campaign_id,omitempty"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	PhoneNumber   string    `json:"phone_number"`
	Info          Info      `json:"lead_info"`
	IdealState    string    `json:"ideal_state,omitempty"`
	Status        string    `json:"status"`
	ContactSchedule time.Time `json:"contact_schedule"`

	CampaignSnapshot *campaigns.Snapshot `json:"campaign_snapshot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CreateLeadRequest is the assembled lead handed to the store.
type CreateLeadRequest struct {
	ConsultantID    string
	AgentConfigID   string
	CampaignID      string
	FirstName       string
	LastName        string
	PhoneNumber     string
	Info            Info
	IdealState      string
	ContactSchedule time.Time

	CampaignSnapshot *campaigns.Snapshot
}

// Validate checks the hard requirements; enrichment fields are optional.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.ConsultantID) == "" {
		return ErrMissingConsultant
	}
	if strings.TrimSpace(r.AgentConfigID) == "" {
		return ErrMissingAgent
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return ErrMissingPhone
	}
	return nil
}
