// Package campaigns resolves which marketing campaign an inbound lead
// belongs to and produces the defaults and snapshot merged into the lead.
package campaigns

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a campaign id does not resolve.
var ErrNotFound = errors.New("campaigns: campaign not found")

// Campaign is a consultant-owned marketing campaign. Read-only to the
// ingestion pipeline.
type Campaign struct {
	ID           string
	ConsultantID string
	Name         string

	// SourceMappings holds the lower-cased source tags this campaign claims.
	SourceMappings []string

	Objectives      string
	ImplicitDesires string
	HookText        string
	IdealState      string

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is the immutable copy of campaign fields stored on a lead at
// ingestion time, so the UI can show the attribution even if the campaign is
// later edited or deleted.
type Snapshot struct {
	Name       string `json:"name"`
	Goal       string `json:"goal"`
	Objectives string `json:"objectives,omitempty"`
	Desires    string `json:"desires,omitempty"`
	Hook       string `json:"hook,omitempty"`
	IdealState string `json:"idealState,omitempty"`
}

// NewSnapshot denormalizes the campaign's copy fields.
func NewSnapshot(c *Campaign) *Snapshot {
	if c == nil {
		return nil
	}
	goal := c.Objectives
	if goal == "" {
		goal = c.Name
	}
	return &Snapshot{
		Name:       c.Name,
		Goal:       goal,
		Objectives: c.Objectives,
		Desires:    c.ImplicitDesires,
		Hook:       c.HookText,
		IdealState: c.IdealState,
	}
}
