package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics exposes counters/histograms for the ingestion pipeline.
type WebhookMetrics struct {
	inboundTotal  *prometheus.CounterVec
	leadsCreated  *prometheus.CounterVec
	handleLatency *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Total inbound webhook calls",
		}, []string{"provider", "outcome"}),
		leadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgate",
			Subsystem: "webhook",
			Name:      "leads_created_total",
			Help:      "Total leads created via webhooks",
		}, []string{"provider"}),
		handleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadgate",
			Subsystem: "webhook",
			Name:      "handle_latency_seconds",
			Help:      "Latency of webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.leadsCreated, m.handleLatency)
	return m
}

func (m *WebhookMetrics) ObserveInbound(provider, outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *WebhookMetrics) ObserveLeadCreated(provider string) {
	if m == nil {
		return
	}
	m.leadsCreated.WithLabelValues(provider).Inc()
}

func (m *WebhookMetrics) ObserveLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.handleLatency.WithLabelValues(provider).Observe(seconds)
}
