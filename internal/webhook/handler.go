package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioChianetta/leadgate/internal/agents"
	"github.com/AlessioChianetta/leadgate/internal/audit"
	"github.com/AlessioChianetta/leadgate/internal/campaigns"
	"github.com/AlessioChianetta/leadgate/internal/endpoints"
	"github.com/AlessioChianetta/leadgate/internal/events"
	"github.com/AlessioChianetta/leadgate/internal/leads"
	observemetrics "github.com/AlessioChianetta/leadgate/internal/observability/metrics"
	"github.com/AlessioChianetta/leadgate/internal/tenancy"
	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

const maxBodyBytes = 1 << 20

// auditRecorder is the audit sink seam; recording must never fail the request.
type auditRecorder interface {
	Record(entry audit.Entry)
}

// campaignAttributor resolves the owning campaign for a lead.
type campaignAttributor interface {
	Resolve(ctx context.Context, consultantID, source, targetCampaignID string) campaigns.Attribution
}

// LeadAnnouncer publishes lead events for downstream workers. Optional.
type LeadAnnouncer interface {
	PublishLeadCreated(ctx context.Context, evt events.LeadCreatedV1) error
}

// Handler drives the ingestion pipeline for all providers: tenant gate,
// payload adaptation, source filter, campaign attribution, lead assembly.
type Handler struct {
	endpoints  endpoints.Repository
	agents     agents.Repository
	attributor campaignAttributor
	leads      leads.Repository
	recorder   auditRecorder
	announcer  LeadAnnouncer
	adapters   map[Provider]Adapter
	metrics    *observemetrics.WebhookMetrics
	logger     *logging.Logger
	now        func() time.Time
}

// HandlerConfig wires the pipeline's collaborators.
type HandlerConfig struct {
	Endpoints  endpoints.Repository
	Agents     agents.Repository
	Attributor campaignAttributor
	Leads      leads.Repository
	Recorder   auditRecorder
	Announcer  LeadAnnouncer
	Adapters   map[Provider]Adapter
	Metrics    *observemetrics.WebhookMetrics
	Logger     *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Adapters == nil {
		cfg.Adapters = NewAdapters(DefaultAdapterConfig())
	}
	return &Handler{
		endpoints:  cfg.Endpoints,
		agents:     cfg.Agents,
		attributor: cfg.Attributor,
		leads:      cfg.Leads,
		recorder:   cfg.Recorder,
		announcer:  cfg.Announcer,
		adapters:   cfg.Adapters,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type webhookResponse struct {
	Success        bool   `json:"success"`
	LeadID         string `json:"leadId,omitempty"`
	Message        string `json:"message,omitempty"`
	Skipped        bool   `json:"skipped,omitempty"`
	ExpectedSource string `json:"expectedSource,omitempty"`
	ReceivedSource string `json:"receivedSource,omitempty"`
	Provider       string `json:"provider,omitempty"`
	Error          string `json:"error,omitempty"`
}

// HandleTest answers the provider's webhook-registration liveness probe.
func (h *Handler) HandleTest(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	writeJSON(w, http.StatusOK, webhookResponse{
		Success:  true,
		Message:  "Webhook endpoint is active",
		Provider: provider,
	})
}

// Handle processes one inbound webhook call. Every exit path, success or
// failure, records exactly one audit entry.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	providerParam := Provider(chi.URLParam(r, "provider"))
	secret := chi.URLParam(r, "secret")

	entry := audit.Entry{
		Provider:      string(providerParam),
		RequestMethod: r.Method,
		RequestURL:    r.URL.String(),
		RemoteIP:      r.RemoteAddr,
		UserAgent:     r.UserAgent(),
		Headers:       marshalHeaders(r.Header),
	}

	adapter, ok := h.adapters[providerParam]
	if !ok {
		h.logger.Warn("webhook for unknown provider", "provider", string(providerParam))
		h.finish(w, start, http.StatusUnauthorized, webhookResponse{Success: false, Error: "Unauthorized"},
			entry.WithOutcome(audit.OutcomeError, "unknown provider"))
		return
	}

	// Tenant gate runs before any payload contents are read or logged, so an
	// unauthenticated caller never lands tenant data in the audit trail.
	cfg, err := h.endpoints.GetBySecret(r.Context(), secret)
	if errors.Is(err, endpoints.ErrNotFound) {
		h.logger.Warn("webhook with unknown secret", "provider", string(providerParam), "secret_prefix", secretPrefix(secret))
		h.finish(w, start, http.StatusUnauthorized, webhookResponse{Success: false, Error: "Unauthorized"},
			entry.WithOutcome(audit.OutcomeError, "unknown secret"))
		return
	}
	if err != nil {
		h.logger.Error("endpoint config lookup failed", "error", err)
		h.finish(w, start, http.StatusInternalServerError, webhookResponse{Success: false, Error: "Internal server error"},
			entry.WithOutcome(audit.OutcomeError, "config lookup failed"))
		return
	}
	if cfg.Provider != string(providerParam) {
		// A leaked secret for one provider must not open another's endpoint.
		h.logger.Warn("webhook provider mismatch", "provider", string(providerParam), "config_provider", cfg.Provider)
		h.finish(w, start, http.StatusUnauthorized, webhookResponse{Success: false, Error: "Unauthorized"},
			entry.WithOutcome(audit.OutcomeError, "provider mismatch"))
		return
	}

	entry.ConfigID = cfg.ID
	entry.ConsultantID = cfg.ConsultantID
	ctx := tenancy.WithConsultantID(r.Context(), cfg.ConsultantID)

	if !cfg.IsActive {
		h.logger.Warn("webhook endpoint inactive", "config_id", cfg.ID, "consultant_id", cfg.ConsultantID)
		h.finish(w, start, http.StatusForbidden, webhookResponse{Success: false, Error: "Forbidden - Webhook is inactive"},
			entry.WithOutcome(audit.OutcomeError, "endpoint inactive"))
		return
	}

	rawBody, payload, err := decodeBody(r)
	if err != nil {
		h.logger.Error("webhook payload decode failed", "error", err, "config_id", cfg.ID)
		entry.RawPayload = rawBody
		h.finish(w, start, http.StatusInternalServerError, webhookResponse{Success: false, Error: "Internal server error"},
			entry.WithOutcome(audit.OutcomeError, "payload decode failed"))
		return
	}
	entry.RawPayload = rawBody

	contact, err := adapter.Parse(payload)
	if contact != nil {
		entry.FirstName = contact.FirstName
		entry.LastName = contact.LastName
		entry.Phone = contact.PhoneNormalized
		entry.Email = contact.Email
		entry.Source = contact.Source
	}
	var ignored *IgnoredEventError
	switch {
	case errors.As(err, &ignored):
		h.logger.Info("webhook event ignored", "event_type", ignored.EventType, "config_id", cfg.ID)
		h.finish(w, start, http.StatusOK,
			webhookResponse{Success: true, Message: fmt.Sprintf("Event type '%s' ignored", ignored.EventType)},
			entry.WithOutcome(audit.OutcomeSkipped, fmt.Sprintf("event type %s ignored", ignored.EventType)))
		return
	case errors.Is(err, ErrMissingPhone):
		h.logger.Warn("webhook payload missing phone", "config_id", cfg.ID, "provider", cfg.Provider)
		h.finish(w, start, http.StatusBadRequest,
			webhookResponse{Success: false, Error: "Phone number is required"},
			entry.WithOutcome(audit.OutcomeError, "missing phone number"))
		return
	case err != nil:
		h.logger.Error("webhook payload parse failed", "error", err, "config_id", cfg.ID)
		h.finish(w, start, http.StatusInternalServerError, webhookResponse{Success: false, Error: "Internal server error"},
			entry.WithOutcome(audit.OutcomeError, "payload parse failed"))
		return
	}

	// Source filter applies only to providers whose payloads carry a source
	// tag. A mismatch is a business-rule rejection, not an error: the
	// provider must not retry.
	if contact.FilterableSource && cfg.DefaultSource != "" && contact.Source != cfg.DefaultSource {
		if err := h.endpoints.IncrementLeadsSkipped(ctx, cfg.ID); err != nil {
			h.logger.Error("failed to increment skipped counter", "error", err, "config_id", cfg.ID)
		}
		h.logger.Info("lead filtered by source",
			"config_id", cfg.ID,
			"expected_source", cfg.DefaultSource,
			"received_source", contact.Source,
		)
		h.finish(w, start, http.StatusOK, webhookResponse{
			Success:        true,
			Skipped:        true,
			Message:        fmt.Sprintf("Lead skipped: source %q does not match filter %q", contact.Source, cfg.DefaultSource),
			ExpectedSource: cfg.DefaultSource,
			ReceivedSource: contact.Source,
		}, entry.WithOutcome(audit.OutcomeFiltered, "source filter mismatch"))
		return
	}

	source := resolveLeadSource(contact, cfg)
	entry.Source = source

	agent, err := h.resolveAgent(ctx, cfg)
	if err != nil {
		h.logger.Error("no agent available for webhook lead", "error", err, "consultant_id", cfg.ConsultantID)
		h.finish(w, start, http.StatusInternalServerError,
			webhookResponse{Success: false, Error: "No agent configured"},
			entry.WithOutcome(audit.OutcomeError, "no agent configured"))
		return
	}

	attribution := h.attributor.Resolve(ctx, cfg.ConsultantID, source, cfg.TargetCampaignID)

	req := assembleLead(cfg, agent, contact, source, attribution, h.now())

	if processed, err := json.Marshal(req.Info); err == nil {
		entry.Processed = processed
	}

	lead, err := h.leads.Create(ctx, req)
	if errors.Is(err, leads.ErrDuplicatePhone) {
		h.logger.Info("duplicate lead rejected", "config_id", cfg.ID, "phone", contact.PhoneNormalized)
		h.finish(w, start, http.StatusConflict,
			webhookResponse{Success: false, Error: "Lead with this phone number already exists"},
			entry.WithOutcome(audit.OutcomeError, "duplicate phone number"))
		return
	}
	if err != nil {
		h.logger.Error("lead insert failed", "error", err, "config_id", cfg.ID)
		h.finish(w, start, http.StatusInternalServerError, webhookResponse{Success: false, Error: "Internal server error"},
			entry.WithOutcome(audit.OutcomeError, "lead insert failed"))
		return
	}

	if err := h.endpoints.IncrementLeadsCreated(ctx, cfg.ID); err != nil {
		h.logger.Error("failed to increment created counter", "error", err, "config_id", cfg.ID)
	}
	h.announceLead(ctx, cfg, lead, source)
	h.metrics.ObserveLeadCreated(cfg.Provider)

	entry.LeadID = lead.ID
	h.logger.Info("lead created",
		"lead_id", lead.ID,
		"config_id", cfg.ID,
		"agent_config_id", lead.AgentConfigID,
		"campaign_id", lead.CampaignID,
	)
	h.finish(w, start, http.StatusOK, webhookResponse{Success: true, LeadID: lead.ID},
		entry.WithOutcome(audit.OutcomeSuccess, "lead created"))
}

// resolveAgent picks the endpoint's configured agent, falling back to the
// consultant's first available agent.
func (h *Handler) resolveAgent(ctx context.Context, cfg *endpoints.Config) (*agents.AgentConfig, error) {
	if cfg.AgentConfigID != "" {
		agent, err := h.agents.GetByID(ctx, cfg.AgentConfigID)
		if err == nil {
			return agent, nil
		}
		if !errors.Is(err, agents.ErrNoAgent) {
			return nil, err
		}
		h.logger.Warn("configured agent missing, falling back to first available",
			"agent_config_id", cfg.AgentConfigID,
			"consultant_id", cfg.ConsultantID,
		)
	}
	agent, err := h.agents.FirstForConsultant(ctx, cfg.ConsultantID)
	if err != nil {
		return nil, err
	}
	if cfg.AgentConfigID == "" {
		h.logger.Info("using fallback agent", "agent_config_id", agent.ID, "consultant_id", cfg.ConsultantID)
	}
	return agent, nil
}

func (h *Handler) announceLead(ctx context.Context, cfg *endpoints.Config, lead *leads.Lead, source string) {
	if h.announcer == nil {
		return
	}
	evt := events.LeadCreatedV1{
		ConsultantID:  lead.ConsultantID,
		LeadID:        lead.ID,
		AgentConfigID: lead.AgentConfigID,
		CampaignID:    lead.CampaignID,
		PhoneNumber:   lead.PhoneNumber,
		Provider:      cfg.Provider,
		Source:        source,
		OccurredAt:    lead.CreatedAt,
	}
	if err := h.announcer.PublishLeadCreated(ctx, evt); err != nil {
		h.logger.Error("failed to announce lead", "error", err, "lead_id", lead.ID)
	}
}

func (h *Handler) finish(w http.ResponseWriter, start time.Time, status int, resp webhookResponse, entry audit.Entry) {
	if h.recorder != nil {
		h.recorder.Record(entry)
	}
	h.metrics.ObserveInbound(entry.Provider, string(entry.Outcome))
	h.metrics.ObserveLatency(entry.Provider, h.now().Sub(start).Seconds())
	writeJSON(w, status, resp)
}

// resolveLeadSource decides the source tag stored on the lead. Providers
// without a payload source inherit the endpoint's configured source; either
// way the provider name is the last resort.
func resolveLeadSource(contact *InboundContact, cfg *endpoints.Config) string {
	if contact.FilterableSource {
		if contact.Source != "" {
			return contact.Source
		}
		return cfg.Provider
	}
	if cfg.DefaultSource != "" {
		return cfg.DefaultSource
	}
	return cfg.Provider
}

// assembleLead merges the canonical contact, the campaign defaults and the
// agent defaults into a persistable lead. Campaign copy beats agent copy on
// conflict.
func assembleLead(cfg *endpoints.Config, agent *agents.AgentConfig, contact *InboundContact, source string, attribution campaigns.Attribution, now time.Time) *leads.CreateLeadRequest {
	campaign := attribution.Campaign

	info := leads.Info{
		Source:     source,
		Objectives: coalesce(campaignField(campaign, func(c *campaigns.Campaign) string { return c.Objectives }), agent.DefaultObjectives),
		Desires:    coalesce(campaignField(campaign, func(c *campaigns.Campaign) string { return c.ImplicitDesires }), agent.DefaultDesires),
		Hook:       coalesce(campaignField(campaign, func(c *campaigns.Campaign) string { return c.HookText }), agent.DefaultHook),

		Email:      contact.Email,
		Company:    contact.Company,
		Website:    contact.Website,
		Address:    contact.Address,
		City:       contact.City,
		State:      contact.State,
		PostalCode: contact.PostalCode,
		Country:    contact.Country,

		Tags:         contact.Tags,
		CustomFields: contact.CustomFields,
		DateAdded:    contact.DateAdded,
		DateOfBirth:  contact.DateOfBirth,
		AssignedTo:   contact.AssignedTo,
		ListID:       contact.ListID,

		ProviderContactID:  contact.ProviderContactID,
		ProviderLocationID: contact.ProviderLocationID,

		DND:         contact.DND,
		DNDSettings: contact.DNDSettings,
	}

	campaignID := ""
	if campaign != nil {
		campaignID = campaign.ID
	}

	return &leads.CreateLeadRequest{
		ConsultantID:     cfg.ConsultantID,
		AgentConfigID:    agent.ID,
		CampaignID:       campaignID,
		FirstName:        contact.FirstName,
		LastName:         contact.LastName,
		PhoneNumber:      contact.PhoneNormalized,
		Info:             info,
		IdealState:       coalesce(campaignField(campaign, func(c *campaigns.Campaign) string { return c.IdealState }), agent.DefaultIdealState),
		ContactSchedule:  now,
		CampaignSnapshot: attribution.Snapshot,
	}
}

func campaignField(c *campaigns.Campaign, get func(*campaigns.Campaign) string) string {
	if c == nil {
		return ""
	}
	return get(c)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodeBody reads the request body and decodes it into a flat map. The
// GoHighLevel-style provider posts JSON; ActiveCampaign posts form-encoded
// bracket keys.
func decodeBody(r *http.Request) ([]byte, map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("webhook: read body: %w", err)
	}

	contentType := r.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/x-www-form-urlencoded" {
		values, err := parseFormBody(string(body))
		if err != nil {
			return body, nil, err
		}
		return body, values, nil
	}

	payload := map[string]any{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return body, nil, fmt.Errorf("webhook: decode json: %w", err)
		}
	}
	return body, payload, nil
}

// parseFormBody turns a form-encoded body into the flat string map the
// adapters expect. Repeated keys keep their first value.
func parseFormBody(body string) (map[string]any, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("webhook: decode form: %w", err)
	}
	payload := make(map[string]any, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			payload[key] = vs[0]
		}
	}
	return payload, nil
}

func secretPrefix(secret string) string {
	if len(secret) <= 8 {
		return secret
	}
	return secret[:8] + "..."
}

func marshalHeaders(h http.Header) json.RawMessage {
	redacted := make(map[string][]string, len(h))
	for key, values := range h {
		switch strings.ToLower(key) {
		case "authorization", "cookie":
			redacted[key] = []string{"[REDACTED]"}
		default:
			redacted[key] = values
		}
	}
	raw, err := json.Marshal(redacted)
	if err != nil {
		return nil
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, resp webhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
