package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioChianetta/leadgate/internal/agents"
	"github.com/AlessioChianetta/leadgate/internal/audit"
	"github.com/AlessioChianetta/leadgate/internal/campaigns"
	"github.com/AlessioChianetta/leadgate/internal/endpoints"
	"github.com/AlessioChianetta/leadgate/internal/leads"
)

type stubEndpoints struct {
	config       *endpoints.Config
	err          error
	createdBumps int
	skippedBumps int
}

func (s *stubEndpoints) GetBySecret(_ context.Context, secret string) (*endpoints.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.config == nil || s.config.SecretKey != secret {
		return nil, endpoints.ErrNotFound
	}
	return s.config, nil
}

func (s *stubEndpoints) ListByConsultant(context.Context, string) ([]*endpoints.Config, error) {
	return nil, nil
}

func (s *stubEndpoints) IncrementLeadsCreated(context.Context, string) error {
	s.createdBumps++
	return nil
}

func (s *stubEndpoints) IncrementLeadsSkipped(context.Context, string) error {
	s.skippedBumps++
	return nil
}

type stubAgents struct {
	byID     map[string]*agents.AgentConfig
	fallback *agents.AgentConfig
}

func (s *stubAgents) GetByID(_ context.Context, id string) (*agents.AgentConfig, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, agents.ErrNoAgent
}

func (s *stubAgents) FirstForConsultant(context.Context, string) (*agents.AgentConfig, error) {
	if s.fallback == nil {
		return nil, agents.ErrNoAgent
	}
	return s.fallback, nil
}

type stubAttributor struct {
	bySource map[string]*campaigns.Campaign
	byID     map[string]*campaigns.Campaign
}

func (s *stubAttributor) Resolve(_ context.Context, _, source, targetCampaignID string) campaigns.Attribution {
	if c, ok := s.bySource[strings.ToLower(source)]; ok {
		return campaigns.Attribution{Campaign: c, Snapshot: campaigns.NewSnapshot(c)}
	}
	if c, ok := s.byID[targetCampaignID]; ok {
		return campaigns.Attribution{Campaign: c, Snapshot: campaigns.NewSnapshot(c)}
	}
	return campaigns.Attribution{}
}

type stubLeads struct {
	created []*leads.CreateLeadRequest
	err     error
}

func (s *stubLeads) Create(_ context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, req)
	return &leads.Lead{
		ID:            "lead-1",
		ConsultantID:  req.ConsultantID,
		AgentConfigID: req.AgentConfigID,
		CampaignID:    req.CampaignID,
		PhoneNumber:   req.PhoneNumber,
		Status:        leads.StatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

type captureRecorder struct {
	entries []audit.Entry
}

func (c *captureRecorder) Record(entry audit.Entry) {
	c.entries = append(c.entries, entry)
}

type pipelineFixture struct {
	handler   *Handler
	endpoints *stubEndpoints
	leads     *stubLeads
	recorder  *captureRecorder
}

func newPipelineFixture(cfg *endpoints.Config) *pipelineFixture {
	eps := &stubEndpoints{config: cfg}
	lds := &stubLeads{}
	rec := &captureRecorder{}
	h := NewHandler(HandlerConfig{
		Endpoints: eps,
		Agents: &stubAgents{
			byID: map[string]*agents.AgentConfig{
				"agent-1": {ID: "agent-1", ConsultantID: "consultant-1", DefaultObjectives: "agent objectives"},
			},
			fallback: &agents.AgentConfig{ID: "agent-fallback", ConsultantID: "consultant-1"},
		},
		Attributor: &stubAttributor{},
		Leads:      lds,
		Recorder:   rec,
	})
	return &pipelineFixture{handler: h, endpoints: eps, leads: lds, recorder: rec}
}

func activeConfig() *endpoints.Config {
	return &endpoints.Config{
		ID:            "config-1",
		ConsultantID:  "consultant-1",
		Provider:      "hubdigital",
		SecretKey:     "whsec_good",
		AgentConfigID: "agent-1",
		IsActive:      true,
	}
}

func postWebhook(h *Handler, provider, secret, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+provider+"/"+secret, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("provider", provider)
	routeCtx.URLParams.Add("secret", secret)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rw := httptest.NewRecorder()
	h.Handle(rw, req)
	return rw
}

func decodeResponse(t *testing.T, rw *httptest.ResponseRecorder) webhookResponse {
	t.Helper()
	var resp webhookResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestHandleUnknownSecret(t *testing.T) {
	f := newPipelineFixture(activeConfig())

	rw := postWebhook(f.handler, "hubdigital", "whsec_wrong", "application/json", `{"type":"ContactCreate"}`)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if resp.Success || resp.Error != "Unauthorized" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(f.recorder.entries) != 1 || f.recorder.entries[0].Outcome != audit.OutcomeError {
		t.Fatalf("audit entries = %+v", f.recorder.entries)
	}
	// Auth failures must not log the payload.
	if f.recorder.entries[0].RawPayload != nil {
		t.Fatal("unauthorized entry carried the payload")
	}
}

func TestHandleProviderMismatch(t *testing.T) {
	f := newPipelineFixture(activeConfig())

	rw := postWebhook(f.handler, "activecampaign", "whsec_good", "application/json", `{}`)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rw.Code)
	}
}

func TestHandleInactiveEndpoint(t *testing.T) {
	cfg := activeConfig()
	cfg.IsActive = false
	f := newPipelineFixture(cfg)

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json", `{"type":"ContactCreate"}`)

	if rw.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rw.Code)
	}
	if len(f.leads.created) != 0 {
		t.Fatal("inactive endpoint created a lead")
	}
}

func TestHandleIgnoredEventType(t *testing.T) {
	f := newPipelineFixture(activeConfig())

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactUpdate","phone":"3331234567"}`)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if !resp.Success || !strings.Contains(resp.Message, "ContactUpdate") {
		t.Fatalf("resp = %+v", resp)
	}
	if len(f.leads.created) != 0 {
		t.Fatal("ignored event created a lead")
	}
	if f.recorder.entries[0].Outcome != audit.OutcomeSkipped {
		t.Fatalf("outcome = %s, want skipped", f.recorder.entries[0].Outcome)
	}
}

func TestHandleMissingPhone(t *testing.T) {
	f := newPipelineFixture(activeConfig())

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","firstName":"Mario","email":"mario@example.com"}`)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if resp.Error != "Phone number is required" {
		t.Fatalf("error = %q", resp.Error)
	}
	// The partial contact still lands in the audit entry.
	entry := f.recorder.entries[0]
	if entry.FirstName != "Mario" || entry.Email != "mario@example.com" {
		t.Fatalf("entry identity = %+v", entry)
	}
}

func TestHandleSourceFilterSkips(t *testing.T) {
	cfg := activeConfig()
	cfg.DefaultSource = "facebook"
	f := newPipelineFixture(cfg)

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","phone":"3331234567","source":"tiktok"}`)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if !resp.Skipped || resp.ExpectedSource != "facebook" || resp.ReceivedSource != "tiktok" {
		t.Fatalf("resp = %+v", resp)
	}
	if f.endpoints.skippedBumps != 1 {
		t.Fatalf("skippedBumps = %d, want 1", f.endpoints.skippedBumps)
	}
	if len(f.leads.created) != 0 {
		t.Fatal("filtered lead was created")
	}
	if f.recorder.entries[0].Outcome != audit.OutcomeFiltered {
		t.Fatalf("outcome = %s, want filtered", f.recorder.entries[0].Outcome)
	}
}

func TestHandleSourceFilterMatchPasses(t *testing.T) {
	cfg := activeConfig()
	cfg.DefaultSource = "facebook"
	f := newPipelineFixture(cfg)

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","phone":"3331234567","source":"facebook"}`)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	if len(f.leads.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.leads.created))
	}
	if got := f.leads.created[0].Info.Source; got != "facebook" {
		t.Fatalf("lead source = %q, want facebook", got)
	}
}

func TestHandleCreatesLead(t *testing.T) {
	f := newPipelineFixture(activeConfig())

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","firstName":"Mario","lastName":"Rossi","phone":"333 123 4567","email":"mario@example.com"}`)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rw.Code, rw.Body.String())
	}
	resp := decodeResponse(t, rw)
	if !resp.Success || resp.LeadID != "lead-1" {
		t.Fatalf("resp = %+v", resp)
	}

	req := f.leads.created[0]
	if req.PhoneNumber != "+393331234567" {
		t.Fatalf("phone = %q, want +393331234567", req.PhoneNumber)
	}
	if req.FirstName != "Mario" || req.LastName != "Rossi" {
		t.Fatalf("name = %q %q", req.FirstName, req.LastName)
	}
	if req.Info.Objectives != "agent objectives" {
		t.Fatalf("objectives = %q, want agent default", req.Info.Objectives)
	}

	if f.endpoints.createdBumps != 1 {
		t.Fatalf("createdBumps = %d, want 1", f.endpoints.createdBumps)
	}
	entry := f.recorder.entries[0]
	if entry.Outcome != audit.OutcomeSuccess || entry.LeadID != "lead-1" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestHandleDuplicatePhone(t *testing.T) {
	f := newPipelineFixture(activeConfig())
	f.leads.err = leads.ErrDuplicatePhone

	rw := postWebhook(f.handler, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","phone":"3331234567"}`)

	if rw.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if resp.Error != "Lead with this phone number already exists" {
		t.Fatalf("error = %q", resp.Error)
	}
	if f.endpoints.createdBumps != 0 {
		t.Fatal("duplicate bumped the created counter")
	}
}

func TestHandleNoAgentConfigured(t *testing.T) {
	cfg := activeConfig()
	cfg.AgentConfigID = ""
	eps := &stubEndpoints{config: cfg}
	rec := &captureRecorder{}
	h := NewHandler(HandlerConfig{
		Endpoints:  eps,
		Agents:     &stubAgents{},
		Attributor: &stubAttributor{},
		Leads:      &stubLeads{},
		Recorder:   rec,
	})

	rw := postWebhook(h, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","phone":"3331234567"}`)

	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if resp.Error != "No agent configured" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestHandleSourceMappingBeatsTargetCampaign(t *testing.T) {
	cfg := activeConfig()
	cfg.TargetCampaignID = "campaign-target"
	eps := &stubEndpoints{config: cfg}
	lds := &stubLeads{}
	h := NewHandler(HandlerConfig{
		Endpoints: eps,
		Agents: &stubAgents{
			byID: map[string]*agents.AgentConfig{
				"agent-1": {ID: "agent-1", DefaultObjectives: "agent objectives"},
			},
		},
		Attributor: &stubAttributor{
			bySource: map[string]*campaigns.Campaign{
				"tiktok": {ID: "campaign-mapped", Name: "TikTok Push", Objectives: "mapped objectives"},
			},
			byID: map[string]*campaigns.Campaign{
				"campaign-target": {ID: "campaign-target", Name: "Default Push"},
			},
		},
		Leads:    lds,
		Recorder: &captureRecorder{},
	})

	rw := postWebhook(h, "hubdigital", "whsec_good", "application/json",
		`{"type":"ContactCreate","phone":"3331234567","source":"TikTok"}`)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	req := lds.created[0]
	if req.CampaignID != "campaign-mapped" {
		t.Fatalf("campaign = %q, want campaign-mapped", req.CampaignID)
	}
	if req.Info.Objectives != "mapped objectives" {
		t.Fatalf("objectives = %q, want campaign copy over agent default", req.Info.Objectives)
	}
	if req.CampaignSnapshot == nil || req.CampaignSnapshot.Name != "TikTok Push" {
		t.Fatalf("snapshot = %+v", req.CampaignSnapshot)
	}
}

func TestHandleActiveCampaignFormBody(t *testing.T) {
	cfg := activeConfig()
	cfg.Provider = "activecampaign"
	cfg.DefaultSource = "newsletter"
	f := newPipelineFixture(cfg)

	body := "type=subscribe&contact%5Bfirst_name%5D=Giulia&contact%5Blast_name%5D=Bianchi&contact%5Bphone%5D=3331234567"
	rw := postWebhook(f.handler, "activecampaign", "whsec_good", "application/x-www-form-urlencoded", body)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rw.Code, rw.Body.String())
	}
	req := f.leads.created[0]
	if req.FirstName != "Giulia" || req.PhoneNumber != "+393331234567" {
		t.Fatalf("lead = %+v", req)
	}
	// The configured source is informational here, never a filter.
	if req.Info.Source != "newsletter" {
		t.Fatalf("source = %q, want newsletter", req.Info.Source)
	}
}

func TestHandleTest(t *testing.T) {
	f := newPipelineFixture(activeConfig())

	req := httptest.NewRequest(http.MethodGet, "/webhook/hubdigital/whsec_good/test", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("provider", "hubdigital")
	routeCtx.URLParams.Add("secret", "whsec_good")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rw := httptest.NewRecorder()

	f.handler.HandleTest(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	resp := decodeResponse(t, rw)
	if !resp.Success || resp.Provider != "hubdigital" {
		t.Fatalf("resp = %+v", resp)
	}
}
