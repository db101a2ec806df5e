package replaycache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vendaria/trustcore/internal/config"
	"go.uber.org/zap"
)

// Cache is a best-effort replay rejector in front of the durable nonce
// table. The table stays the source of truth; the cache only short-circuits
// obvious redeliveries before the provider fetch. A miss, a Redis outage or
// a disabled cache all degrade to "not seen".
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Cache {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	ttl := cfg.ReplayCacheTTL
	if ttl <= 0 {
		ttl = 36 * time.Hour
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		log:    log.Named("payment.replaycache"),
	}
}

func key(providerPaymentID string, requestID string) string {
	return fmt.Sprintf("webhook:nonce:%s:%s", providerPaymentID, requestID)
}

// Seen reports whether this delivery was already accepted.
func (c *Cache) Seen(ctx context.Context, providerPaymentID string, requestID string) bool {
	if c == nil || c.client == nil {
		return false
	}
	n, err := c.client.Exists(ctx, key(providerPaymentID, requestID)).Result()
	if err != nil {
		c.log.Warn("replay cache lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}

// Mark records an accepted delivery for the redelivery horizon.
func (c *Cache) Mark(ctx context.Context, providerPaymentID string, requestID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.SetNX(ctx, key(providerPaymentID, requestID), "1", c.ttl).Err(); err != nil {
		c.log.Warn("replay cache mark failed", zap.Error(err))
	}
}
