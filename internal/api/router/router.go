// Package router assembles the HTTP surface: public webhook intake, health
// and metrics, and the JWT-protected admin read endpoints.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AlessioChianetta/leadgate/internal/admin"
	httpmiddleware "github.com/AlessioChianetta/leadgate/internal/http/middleware"
	"github.com/AlessioChianetta/leadgate/internal/webhook"
	"github.com/AlessioChianetta/leadgate/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *webhook.Handler
	AdminHandler   *admin.Handler

	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// WebhookRateLimit is requests/sec per IP on the intake routes; zero
	// disables limiting.
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Route("/webhook/{provider}/{secret}", func(wh chi.Router) {
			if cfg.WebhookRateLimit > 0 {
				wh.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookRateBurst))
			}
			wh.Post("/", cfg.WebhookHandler.Handle)
			wh.Get("/test", cfg.WebhookHandler.HandleTest)
		})
	})

	if cfg.AdminHandler != nil {
		r.Route("/admin", func(adm chi.Router) {
			adm.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			adm.Get("/webhooks", cfg.AdminHandler.ListEndpointConfigs)
			adm.Get("/webhooks/{configID}/audit", cfg.AdminHandler.ListAuditEntries)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
