package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the transfer-core Prometheus collectors.
type Metrics struct {
	transfersTotal     *prometheus.CounterVec
	transferFailures   *prometheus.CounterVec
	transferAmount     prometheus.Histogram
	ledgerAppendErrors prometheus.Counter
	publishErrors      prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total number of transfer attempts by terminal status",
			},
			[]string{"status"},
		),
		transferFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_failures_total",
				Help:      "Total number of failed transfers by reason",
			},
			[]string{"reason"},
		),
		transferAmount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_amount",
				Help:      "Face value of completed transfers",
				Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
			},
		),
		ledgerAppendErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_append_errors_total",
				Help:      "Total number of ledger writes that failed at the store",
			},
		),
		publishErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_errors_total",
				Help:      "Total number of event publishes that failed",
			},
		),
	}

	reg.MustRegister(
		m.transfersTotal,
		m.transferFailures,
		m.transferAmount,
		m.ledgerAppendErrors,
		m.publishErrors,
	)
	return m
}

// ObserveTransfer records one terminal transfer outcome. amount is observed
// only for completed transfers; reason only for failed ones.
func (m *Metrics) ObserveTransfer(status string, reason string, amount float64) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(status).Inc()
	if reason != "" {
		m.transferFailures.WithLabelValues(reason).Inc()
	} else {
		m.transferAmount.Observe(amount)
	}
}

// LedgerAppendError counts a failed ledger append.
func (m *Metrics) LedgerAppendError() {
	if m == nil {
		return
	}
	m.ledgerAppendErrors.Inc()
}

// PublishError counts a failed event publish.
func (m *Metrics) PublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}
