package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioChianetta/leadgate/internal/audit"
	"github.com/AlessioChianetta/leadgate/internal/endpoints"
)

type stubEndpoints struct {
	configs []*endpoints.Config
	err     error
}

func (s *stubEndpoints) GetBySecret(context.Context, string) (*endpoints.Config, error) {
	return nil, endpoints.ErrNotFound
}

func (s *stubEndpoints) ListByConsultant(context.Context, string) ([]*endpoints.Config, error) {
	return s.configs, s.err
}

func (s *stubEndpoints) IncrementLeadsCreated(context.Context, string) error  { return nil }
func (s *stubEndpoints) IncrementLeadsSkipped(context.Context, string) error { return nil }

type stubAudit struct {
	entries []audit.Entry
	err     error
	limit   int
}

func (s *stubAudit) ListByConfig(_ context.Context, _ string, limit int) ([]audit.Entry, error) {
	s.limit = limit
	return s.entries, s.err
}

func TestListEndpointConfigs(t *testing.T) {
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	h := NewHandler(&stubEndpoints{configs: []*endpoints.Config{
		{
			ID:            "config-1",
			Provider:      "hubdigital",
			ConfigName:    "Facebook Ads",
			SecretKey:     "whsec_secret",
			DefaultSource: "facebook",
			IsActive:      true,
			LeadsCreated:  7,
			LeadsSkipped:  2,
			LastWebhookAt: &at,
		},
	}}, &stubAudit{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/webhooks?consultant_id=consultant-1", nil)
	rw := httptest.NewRecorder()
	h.ListEndpointConfigs(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	var body struct {
		Configs []map[string]any `json:"configs"`
	}
	if err := json.NewDecoder(rw.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Configs) != 1 {
		t.Fatalf("configs = %d, want 1", len(body.Configs))
	}
	cfg := body.Configs[0]
	if cfg["leads_created"].(float64) != 7 || cfg["last_webhook_at"] != "2026-08-01T10:00:00Z" {
		t.Fatalf("config = %+v", cfg)
	}
	// The secret must never leave the admin surface.
	if _, present := cfg["secret_key"]; present {
		t.Fatal("secret key exposed")
	}
}

func TestListEndpointConfigsRequiresConsultant(t *testing.T) {
	h := NewHandler(&stubEndpoints{}, &stubAudit{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/webhooks", nil)
	rw := httptest.NewRecorder()
	h.ListEndpointConfigs(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rw.Code)
	}
}

func TestListAuditEntries(t *testing.T) {
	store := &stubAudit{entries: []audit.Entry{
		{ID: "entry-1", Provider: "hubdigital", Outcome: audit.OutcomeSuccess},
	}}
	h := NewHandler(&stubEndpoints{}, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/webhooks/config-1/audit?limit=10", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("configID", "config-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rw := httptest.NewRecorder()
	h.ListAuditEntries(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	if store.limit != 10 {
		t.Fatalf("limit = %d, want 10", store.limit)
	}
	var body struct {
		Entries []audit.Entry `json:"entries"`
	}
	if err := json.NewDecoder(rw.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].ID != "entry-1" {
		t.Fatalf("entries = %+v", body.Entries)
	}
}

func TestListAuditEntriesStoreFailure(t *testing.T) {
	h := NewHandler(&stubEndpoints{}, &stubAudit{err: errors.New("connection refused")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/webhooks/config-1/audit", nil)
	rw := httptest.NewRecorder()
	h.ListAuditEntries(rw, req)

	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rw.Code)
	}
}
