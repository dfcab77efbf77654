// Package audit records one append-only entry per inbound webhook call, for
// support and debugging. The pipeline never reads these entries back.
package audit

import (
	"encoding/json"
	"time"
)

// Outcome classifies how a webhook call ended.
type Outcome string

const (
	// OutcomeSuccess means a lead was created.
	OutcomeSuccess Outcome = "success"
	// OutcomeError covers auth, validation, conflict and unexpected failures.
	OutcomeError Outcome = "error"
	// OutcomeSkipped means the event type was ignored.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFiltered means the source filter rejected the lead.
	OutcomeFiltered Outcome = "filtered"
)

// Entry is one immutable audit record for an inbound webhook call.
type Entry struct {
	ID           string  `json:"id"`
	ConfigID     string  `json:"config_id,omitempty"`
	ConsultantID string  `json:"consultant_id,omitempty"`
	Provider     string  `json:"provider"`
	Outcome      Outcome `json:"outcome"`
	Message      string  `json:"message,omitempty"`
	LeadID       string  `json:"lead_id,omitempty"`

	// Identity fields extracted from the payload, for quick scanning in the
	// support UI without unpacking the raw body.
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Source    string `json:"source,omitempty"`

	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
	Processed  json.RawMessage `json:"processed,omitempty"`

	RequestMethod string          `json:"request_method,omitempty"`
	RequestURL    string          `json:"request_url,omitempty"`
	RemoteIP      string          `json:"remote_ip,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty"`
	Headers       json.RawMessage `json:"headers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// WithOutcome returns a copy of the entry stamped with its final outcome.
func (e Entry) WithOutcome(outcome Outcome, message string) Entry {
	e.Outcome = outcome
	e.Message = message
	return e
}
