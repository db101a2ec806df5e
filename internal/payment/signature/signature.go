package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vendaria/trustcore/internal/payment/domain"
)

const Header = "x-signature"

// Verify checks the delivery signature against the shared webhook secret.
// The signed manifest is "id:{paymentId};request-id:{requestId};ts:{ts};"
// with ts taken from the header itself. Every failure mode collapses to
// ErrInvalidSignature so the response gives no oracle about which check
// tripped.
func Verify(secret string, headers http.Header, providerPaymentID string, requestID string) error {
	if secret == "" {
		return domain.ErrInvalidSignature
	}
	ts, v1, err := parse(headers.Get(Header))
	if err != nil {
		return domain.ErrInvalidSignature
	}

	expected := Compute(secret, providerPaymentID, requestID, ts)
	delivered, err := hex.DecodeString(v1)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	if !hmac.Equal(expected, delivered) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Compute returns the raw HMAC-SHA256 of the signed manifest.
func Compute(secret string, providerPaymentID string, requestID string, ts int64) []byte {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%d;", providerPaymentID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return mac.Sum(nil)
}

// SignedTS extracts the ts component for nonce bookkeeping. It assumes the
// header already passed Verify.
func SignedTS(headers http.Header) int64 {
	ts, _, err := parse(headers.Get(Header))
	if err != nil {
		return 0
	}
	return ts
}

func parse(header string) (int64, string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, "", domain.ErrInvalidSignature
	}

	var tsRaw, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			tsRaw = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if tsRaw == "" || v1 == "" {
		return 0, "", domain.ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return 0, "", domain.ErrInvalidSignature
	}
	return ts, v1, nil
}
