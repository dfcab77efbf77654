// Package admin exposes the read surface operators use to inspect webhook
// traffic: endpoint configs with their counters, and the audit trail.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioChianetta/leadgate/internal/audit"
	"github.com/AlessioChianetta/leadgate/internal/endpoints"
	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

// auditLister is the audit read seam, narrowed for tests.
type auditLister interface {
	ListByConfig(ctx context.Context, configID string, limit int) ([]audit.Entry, error)
}

// Handler serves the admin endpoints.
type Handler struct {
	endpoints endpoints.Repository
	audit     auditLister
	logger    *logging.Logger
}

func NewHandler(eps endpoints.Repository, auditStore auditLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{endpoints: eps, audit: auditStore, logger: logger}
}

type endpointSummary struct {
	ID               string `json:"id"`
	Provider         string `json:"provider"`
	ConfigName       string `json:"config_name,omitempty"`
	AgentConfigID    string `json:"agent_config_id,omitempty"`
	TargetCampaignID string `json:"target_campaign_id,omitempty"`
	DefaultSource    string `json:"default_source,omitempty"`
	IsActive         bool   `json:"is_active"`
	LeadsCreated     int    `json:"leads_created"`
	LeadsSkipped     int    `json:"leads_skipped"`
	LastWebhookAt    string `json:"last_webhook_at,omitempty"`
}

// ListEndpointConfigs returns a consultant's webhook endpoint configs with
// their traffic counters. Secrets are never exposed here.
func (h *Handler) ListEndpointConfigs(w http.ResponseWriter, r *http.Request) {
	consultantID := r.URL.Query().Get("consultant_id")
	if consultantID == "" {
		http.Error(w, "consultant_id is required", http.StatusBadRequest)
		return
	}

	configs, err := h.endpoints.ListByConsultant(r.Context(), consultantID)
	if err != nil {
		h.logger.Error("admin list endpoint configs failed", "error", err, "consultant_id", consultantID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	summaries := make([]endpointSummary, 0, len(configs))
	for _, cfg := range configs {
		s := endpointSummary{
			ID:               cfg.ID,
			Provider:         cfg.Provider,
			ConfigName:       cfg.ConfigName,
			AgentConfigID:    cfg.AgentConfigID,
			TargetCampaignID: cfg.TargetCampaignID,
			DefaultSource:    cfg.DefaultSource,
			IsActive:         cfg.IsActive,
			LeadsCreated:     cfg.LeadsCreated,
			LeadsSkipped:     cfg.LeadsSkipped,
		}
		if cfg.LastWebhookAt != nil {
			s.LastWebhookAt = cfg.LastWebhookAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		summaries = append(summaries, s)
	}

	writeJSON(w, http.StatusOK, map[string]any{"configs": summaries})
}

// ListAuditEntries returns the newest audit entries for one endpoint config.
func (h *Handler) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	configID := chi.URLParam(r, "configID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.audit.ListByConfig(r.Context(), configID, limit)
	if err != nil {
		h.logger.Error("admin list audit entries failed", "error", err, "config_id", configID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
