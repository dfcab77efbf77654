// Package events announces pipeline outcomes to downstream workers.
package events

import "time"

// LeadCreatedV1 is published after a lead is persisted so messaging workers
// can pick it up without polling.
type LeadCreatedV1 struct {
	EventID       string    `json:"event_id"`
	ConsultantID  string    `json:"consultant_id"`
	LeadID        string    `json:"lead_id"`
	AgentConfigID string    `json:"agent_config_id"`
	CampaignID    string    `json:"campaign_id,omitempty"`
	PhoneNumber   string    `json:"phone_number"`
	Provider      string    `json:"provider"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
