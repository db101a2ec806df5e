package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vendaria/trustcore/internal/config"
)

func TestRecordWebhookDelivery(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newMetrics(registry, config.Config{
		AppName:     "trustcore",
		Environment: "test",
	})

	m.RecordWebhookDelivery("mercadopago", WebhookOutcomeAccepted)
	m.RecordWebhookDelivery("mercadopago", WebhookOutcomeAccepted)
	m.RecordWebhookDelivery("mercadopago", WebhookOutcomeReplayed)

	accepted := testutil.ToFloat64(m.webhookDeliveries.WithLabelValues("mercadopago", WebhookOutcomeAccepted))
	if accepted != 2 {
		t.Fatalf("expected 2 accepted deliveries, got %v", accepted)
	}
	replayed := testutil.ToFloat64(m.webhookDeliveries.WithLabelValues("mercadopago", WebhookOutcomeReplayed))
	if replayed != 1 {
		t.Fatalf("expected 1 replayed delivery, got %v", replayed)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordWebhookDelivery("mercadopago", WebhookOutcomeError)
	m.RecordGuardDenial("permission-denied")
	m.RecordRestoreDecision("approved")
	m.RecordBackupRequest("deduplicated")
}
