package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/vendaria/trustcore/internal/audit/domain"
	"github.com/vendaria/trustcore/internal/clock"
	"github.com/vendaria/trustcore/internal/config"
	obsmetrics "github.com/vendaria/trustcore/internal/observability/metrics"
	paymentdomain "github.com/vendaria/trustcore/internal/payment/domain"
	"github.com/vendaria/trustcore/internal/payment/provider/mercadopago"
	"github.com/vendaria/trustcore/internal/payment/replaycache"
	"github.com/vendaria/trustcore/internal/payment/signature"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const providerName = "mercadopago"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Cfg         config.Config
	Provider    mercadopago.Client
	Repo        paymentdomain.Repository
	ReplayCache *replaycache.Cache  `optional:"true"`
	AuditSvc    auditdomain.Service `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	secret      string
	provider    mercadopago.Client
	repo        paymentdomain.Repository
	replayCache *replaycache.Cache
	auditSvc    auditdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		secret:      strings.TrimSpace(p.Cfg.MercadoPagoWebhookSecret),
		provider:    p.Provider,
		repo:        p.Repo,
		replayCache: p.ReplayCache,
		auditSvc:    p.AuditSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

// HandleWebhook reconciles one provider delivery. Signature and replay
// rejection happen before any side effect; the nonce insert and the
// payment write share one transaction so concurrent identical deliveries
// can never both succeed.
func (s *Service) HandleWebhook(ctx context.Context, headers http.Header, providerPaymentID string, requestID string) error {
	providerPaymentID = strings.TrimSpace(providerPaymentID)
	requestID = strings.TrimSpace(requestID)
	if providerPaymentID == "" || requestID == "" {
		s.recordOutcome(obsmetrics.WebhookOutcomeInvalidSignature)
		return paymentdomain.ErrInvalidSignature
	}

	if err := signature.Verify(s.secret, headers, providerPaymentID, requestID); err != nil {
		s.recordOutcome(obsmetrics.WebhookOutcomeInvalidSignature)
		return err
	}

	if s.replayCache.Seen(ctx, providerPaymentID, requestID) {
		s.recordOutcome(obsmetrics.WebhookOutcomeReplayed)
		return paymentdomain.ErrReplayedDelivery
	}
	seen, err := s.repo.NonceExists(ctx, s.db, providerPaymentID, requestID)
	if err != nil {
		s.recordOutcome(obsmetrics.WebhookOutcomeError)
		return err
	}
	if seen {
		s.recordOutcome(obsmetrics.WebhookOutcomeReplayed)
		return paymentdomain.ErrReplayedDelivery
	}

	fetched, err := s.provider.GetPayment(ctx, providerPaymentID)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrProviderUnavailable) {
			s.recordOutcome(obsmetrics.WebhookOutcomeProviderUnavailable)
		} else {
			s.recordOutcome(obsmetrics.WebhookOutcomeError)
		}
		return err
	}

	tenantID := strings.TrimSpace(fetched.TenantID)
	if tenantID == "" {
		s.log.Warn("webhook delivery without routable tenant",
			zap.String("provider_payment_id", providerPaymentID),
		)
		s.recordOutcome(obsmetrics.WebhookOutcomeUnknownTenant)
		return paymentdomain.ErrUnknownTenant
	}

	status := paymentdomain.MapProviderStatus(fetched.Status)
	now := s.clock.Now()
	terminalSkip := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertNonce(ctx, tx, &paymentdomain.WebhookNonce{
			ProviderPaymentID: providerPaymentID,
			RequestID:         requestID,
			SignedTS:          signature.SignedTS(headers),
			CreatedAt:         now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return paymentdomain.ErrReplayedDelivery
		}

		current, err := s.repo.FindForUpdate(ctx, tx, tenantID, providerPaymentID)
		if err != nil {
			return err
		}
		if current != nil && current.Status.IsTerminal() {
			terminalSkip = true
			return nil
		}

		payment := &paymentdomain.Payment{
			ID:                s.genID.Generate(),
			TenantID:          tenantID,
			ProviderPaymentID: providerPaymentID,
			Provider:          providerName,
			OrderID:           fetched.ExternalReference,
			Status:            status,
			Raw:               datatypes.JSON(fetched.Raw),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if current != nil {
			payment.ID = current.ID
			payment.CreatedAt = current.CreatedAt
		}
		return s.repo.Upsert(ctx, tx, payment)
	})
	if err != nil {
		if errors.Is(err, paymentdomain.ErrReplayedDelivery) {
			s.recordOutcome(obsmetrics.WebhookOutcomeReplayed)
		} else {
			s.recordOutcome(obsmetrics.WebhookOutcomeError)
		}
		return err
	}

	s.replayCache.Mark(ctx, providerPaymentID, requestID)

	if terminalSkip {
		s.recordOutcome(obsmetrics.WebhookOutcomeTerminalNoop)
		return nil
	}

	s.recordOutcome(obsmetrics.WebhookOutcomeAccepted)
	s.writeAuditLog(ctx, tenantID, providerPaymentID, requestID, status)
	return nil
}

func (s *Service) recordOutcome(outcome string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordWebhookDelivery(providerName, outcome)
}

func (s *Service) writeAuditLog(ctx context.Context, tenantID string, providerPaymentID string, requestID string, status paymentdomain.Status) {
	if s.auditSvc == nil {
		return
	}
	targetID := providerPaymentID
	err := s.auditSvc.AuditLog(ctx, &tenantID, auditdomain.ActorTypeSystem, nil, "payment.reconciled", "payment", &targetID, map[string]any{
		"provider":   providerName,
		"request_id": requestID,
		"status":     string(status),
	})
	if err != nil {
		s.log.Warn("failed to write payment audit log", zap.Error(err))
	}
}
