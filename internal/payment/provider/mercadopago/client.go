package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vendaria/trustcore/internal/config"
	"github.com/vendaria/trustcore/internal/payment/domain"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Client looks up a payment on the provider side.
type Client interface {
	GetPayment(ctx context.Context, providerPaymentID string) (*domain.ProviderPayment, error)
}

type httpClient struct {
	baseURL     string
	accessToken string
	http        *http.Client
	log         *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.MercadoPagoBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		baseURL:     baseURL,
		accessToken: strings.TrimSpace(cfg.MercadoPagoAccessToken),
		http:        &http.Client{Timeout: timeout},
		log:         log.Named("payment.mercadopago"),
	}
}

type paymentResponse struct {
	ID                json.Number    `json:"id"`
	Status            string         `json:"status"`
	StatusDetail      string         `json:"status_detail"`
	ExternalReference string         `json:"external_reference"`
	Metadata          map[string]any `json:"metadata"`
}

func (c *httpClient) GetPayment(ctx context.Context, providerPaymentID string) (*domain.ProviderPayment, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, providerPaymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("provider payment lookup failed",
			zap.String("provider_payment_id", providerPaymentID),
			zap.Error(err),
		)
		return nil, domain.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.ErrProviderUnavailable
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Warn("provider returned server error",
			zap.String("provider_payment_id", providerPaymentID),
			zap.Int("status_code", resp.StatusCode),
		)
		return nil, domain.ErrProviderUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrInvalidPayment
	}

	var payment paymentResponse
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, domain.ErrInvalidPayment
	}

	return &domain.ProviderPayment{
		ID:                payment.ID.String(),
		Status:            payment.Status,
		StatusDetail:      payment.StatusDetail,
		ExternalReference: strings.TrimSpace(payment.ExternalReference),
		TenantID:          tenantFromMetadata(payment.Metadata),
		Raw:               body,
	}, nil
}

// tenantFromMetadata pulls the routing tenant out of the payment metadata
// the checkout flow attached at preference-creation time.
func tenantFromMetadata(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	for _, key := range []string{"tenant_id", "tenantId"} {
		if value, ok := metadata[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
