package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/vendaria/trustcore/internal/payment/domain"
	"go.uber.org/zap"
)

// HandlePaymentWebhook terminates a provider delivery. The response drives
// the provider's retry policy: 200 stops retries (accepted or unroutable),
// 401 stops retries (the same signature can never become valid), 500 asks
// for a backoff retry.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	providerPaymentID := strings.TrimSpace(c.Query("data.id"))
	requestID := strings.TrimSpace(c.GetHeader("x-request-id"))

	err := s.paymentSvc.HandleWebhook(c.Request.Context(), c.Request.Header, providerPaymentID, requestID)
	if err == nil {
		c.String(http.StatusOK, "ok")
		return
	}

	switch {
	case errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrReplayedDelivery):
		c.String(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, paymentdomain.ErrUnknownTenant):
		// Unroutable events return 200 so the provider stops retrying a
		// delivery that can never be routed.
		c.String(http.StatusOK, "ok")
	default:
		s.log.Error("payment webhook failed",
			zap.String("provider_payment_id", providerPaymentID),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "error")
	}
}
