package campaigns

import (
	"context"
	"errors"

	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

// Attribution is the result of resolving a lead's owning campaign. Campaign
// is nil when neither priority tier matched; the lead is still created.
type Attribution struct {
	Campaign *Campaign
	Snapshot *Snapshot
}

// Attributor resolves zero or one campaign for an inbound lead.
//
// Priority: an active campaign claiming the lead's source tag wins over the
// endpoint's explicitly configured target campaign. Lookup failures degrade
// to the next tier instead of aborting ingestion; attribution is
// best-effort enrichment, not a correctness gate.
type Attributor struct {
	repo   Repository
	logger *logging.Logger
}

func NewAttributor(repo Repository, logger *logging.Logger) *Attributor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Attributor{repo: repo, logger: logger}
}

// Resolve walks the priority chain for the given source tag and optional
// explicit target campaign id.
func (a *Attributor) Resolve(ctx context.Context, consultantID, source, targetCampaignID string) Attribution {
	if source != "" {
		campaign, err := a.repo.FindActiveBySource(ctx, consultantID, source)
		switch {
		case err == nil:
			return Attribution{Campaign: campaign, Snapshot: NewSnapshot(campaign)}
		case errors.Is(err, ErrNotFound):
			// fall through to the explicit target
		default:
			a.logger.Warn("campaign source-mapping lookup failed, falling back",
				"error", err,
				"consultant_id", consultantID,
				"source", source,
			)
		}
	}

	if targetCampaignID != "" {
		campaign, err := a.repo.GetByID(ctx, targetCampaignID)
		switch {
		case err == nil:
			return Attribution{Campaign: campaign, Snapshot: NewSnapshot(campaign)}
		case errors.Is(err, ErrNotFound):
			a.logger.Warn("configured target campaign not found",
				"campaign_id", targetCampaignID,
				"consultant_id", consultantID,
			)
		default:
			a.logger.Warn("target campaign lookup failed",
				"error", err,
				"campaign_id", targetCampaignID,
			)
		}
	}

	return Attribution{}
}
