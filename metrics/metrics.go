// Package metrics holds the prometheus collectors for invitations, deliveries and
// HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

const namespace = "doorbell"

// Invitation outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeInProgress = "in_progress"
	OutcomeProvision  = "provision_failed"
	OutcomeMembership = "membership_failed"
	OutcomeLink       = "link_failed"
)

// Metrics holds all application metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	InvitationsTotal      *prometheus.CounterVec
	DeliveryAttemptsTotal *prometheus.CounterVec
	BackendCallDuration   *prometheus.HistogramVec
	ReconciliationsTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),
		InvitationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invitation",
				Name:      "total",
				Help:      "Invitations handled, by outcome",
			},
			[]string{"outcome"},
		),
		DeliveryAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "delivery",
				Name:      "attempts_total",
				Help:      "Delivery attempts, by channel and result",
			},
			[]string{"channel", "result"},
		),
		BackendCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "call_duration_seconds",
				Help:      "Duration of calls to the backend, by operation",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "result"},
		),
		ReconciliationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciliation",
				Name:      "recorded_total",
				Help:      "Reconciliation records written, by stage",
			},
			[]string{"stage"},
		),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) RecordInvitation(outcome string) {
	m.InvitationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDelivery(channel string, err error) {
	m.DeliveryAttemptsTotal.WithLabelValues(channel, resultLabel(err)).Inc()
}

func (m *Metrics) RecordBackendCall(operation string, err error, duration time.Duration) {
	m.BackendCallDuration.WithLabelValues(operation, resultLabel(err)).Observe(duration.Seconds())
}

func (m *Metrics) RecordReconciliation(stage string) {
	m.ReconciliationsTotal.WithLabelValues(stage).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func metricsProvider() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

var Module = fx.Options(fx.Provide(metricsProvider))
