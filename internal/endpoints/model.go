// Package endpoints stores per-tenant webhook endpoint configurations: the
// secret-keyed records that authenticate inbound CRM calls and carry the
// source filter, target campaign and agent defaults for a webhook.
package endpoints

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no config matches the given secret.
var ErrNotFound = errors.New("endpoints: config not found")

// Config is a consultant-owned webhook endpoint configuration. The pipeline
// treats it as read-only apart from the atomic counter increments.
type Config struct {
	ID           string `json:"id"`
	ConsultantID string `json:"consultant_id"`
	Provider     string `json:"provider"`
	ConfigName   string `json:"config_name,omitempty"`
	SecretKey    string `json:"-"`

	AgentConfigID    string `json:"agent_config_id,omitempty"`
	TargetCampaignID string `json:"target_campaign_id,omitempty"`
	// DefaultSource doubles as the source filter: when set, only leads whose
	// payload source equals it are accepted (for providers that carry one).
	DefaultSource string `json:"default_source,omitempty"`

	IsActive      bool       `json:"is_active"`
	LeadsCreated  int        `json:"leads_created"`
	LeadsSkipped  int        `json:"leads_skipped"`
	LastWebhookAt *time.Time `json:"last_webhook_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
