package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vendaria/trustcore/internal/config"
)

const (
	WebhookOutcomeAccepted            = "accepted"
	WebhookOutcomeReplayed            = "replayed"
	WebhookOutcomeInvalidSignature    = "invalid_signature"
	WebhookOutcomeUnknownTenant       = "unknown_tenant"
	WebhookOutcomeProviderUnavailable = "provider_unavailable"
	WebhookOutcomeTerminalNoop        = "terminal_noop"
	WebhookOutcomeError               = "error"
)

// Metrics captures trust-boundary health signals.
type Metrics struct {
	webhookDeliveries *prometheus.CounterVec
	guardDenials      *prometheus.CounterVec
	restoreDecisions  *prometheus.CounterVec
	backupRequests    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// New returns the singleton metrics registry backed by the default
// prometheus registerer.
func New(cfg config.Config) *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return metrics
}

// ResetForTest resets the singleton for tests.
func ResetForTest() {
	metricsOnce = sync.Once{}
	metrics = nil
}

func newMetrics(registerer prometheus.Registerer, cfg config.Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "trustcore"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	webhookDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "trustcore_webhook_deliveries_total",
		Help:        "Webhook deliveries by provider and outcome.",
		ConstLabels: constLabels,
	}, []string{"provider", "outcome"})
	guardDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "trustcore_guard_denials_total",
		Help:        "Callable guard denials by code.",
		ConstLabels: constLabels,
	}, []string{"code"})
	restoreDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "trustcore_restore_decisions_total",
		Help:        "Restore request decisions by resulting status.",
		ConstLabels: constLabels,
	}, []string{"status"})
	backupRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "trustcore_backup_requests_total",
		Help:        "Backup requests by dedupe outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	for _, collector := range []prometheus.Collector{
		webhookDeliveries,
		guardDenials,
		restoreDecisions,
		backupRequests,
	} {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &Metrics{
		webhookDeliveries: webhookDeliveries,
		guardDenials:      guardDenials,
		restoreDecisions:  restoreDecisions,
		backupRequests:    backupRequests,
	}
}

// RecordWebhookDelivery increments webhook delivery counts.
func (m *Metrics) RecordWebhookDelivery(provider string, outcome string) {
	if m == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(strings.TrimSpace(provider), strings.TrimSpace(outcome)).Inc()
}

// RecordGuardDenial increments guard denial counts.
func (m *Metrics) RecordGuardDenial(code string) {
	if m == nil {
		return
	}
	m.guardDenials.WithLabelValues(strings.TrimSpace(code)).Inc()
}

// RecordRestoreDecision increments restore decision counts.
func (m *Metrics) RecordRestoreDecision(status string) {
	if m == nil {
		return
	}
	m.restoreDecisions.WithLabelValues(strings.TrimSpace(status)).Inc()
}

// RecordBackupRequest increments backup request counts.
func (m *Metrics) RecordBackupRequest(outcome string) {
	if m == nil {
		return
	}
	m.backupRequests.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}
