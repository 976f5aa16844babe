// Package metrics exposes the application's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module registers the instruments on the default registry.
var Module = fx.Provide(func() *Metrics { return New(prometheus.DefaultRegisterer) })

// Metrics holds application-level counters.
type Metrics struct {
	AuditEntries      *prometheus.CounterVec
	AuditWriteErrors  prometheus.Counter
	InvoiceRecomputes prometheus.Counter
}

// New builds the instruments against the given registerer. Tests pass a
// fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuditEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamdesk_audit_entries_total",
			Help: "Audit entries written, by action.",
		}, []string{"action"}),
		AuditWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamdesk_audit_write_errors_total",
			Help: "Audit entries that failed to persist.",
		}),
		InvoiceRecomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamdesk_invoice_recomputes_total",
			Help: "Invoice total recomputations performed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.AuditEntries, m.AuditWriteErrors, m.InvoiceRecomputes)
	}
	return m
}
