package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the billing counters exported on /metrics.
type Metrics struct {
	InvoicesGenerated *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	Settlements       *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		InvoicesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastebill",
			Name:      "invoices_generated_total",
			Help:      "Monthly invoice generation attempts by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastebill",
			Name:      "gateway_notifications_total",
			Help:      "Payment gateway notifications by outcome.",
		}, []string{"outcome"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastebill",
			Name:      "invoice_settlements_total",
			Help:      "Invoice settlement attempts by source and result.",
		}, []string{"source", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.InvoicesGenerated, m.Notifications, m.Settlements)
	}
	return m
}

// NopMetrics returns unregistered counters, for tests and tools.
func NopMetrics() *Metrics {
	return NewMetrics(nil)
}

func (m *Metrics) ObserveInvoice(result string) {
	if m == nil {
		return
	}
	m.InvoicesGenerated.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSettlement(source, result string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(source, result).Inc()
}
