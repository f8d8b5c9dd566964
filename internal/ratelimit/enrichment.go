package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/skipscan/skipscan/internal/config"
	"github.com/skipscan/skipscan/internal/enrichment/endpoints"
	"github.com/skipscan/skipscan/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyEnrichAccount = "enrich:account:%s:%s"

// Defaults when no per-kind override is configured: one call per second
// sustained with a small burst.
const (
	defaultRatePerMinute = 60
	defaultBurst         = 10
)

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Endpoints *endpoints.Holder
	Metrics   *metrics.Metrics `optional:"true"`
}

// EnrichmentLimiter throttles provider-backed enrichment calls per account
// and kind. Without redis it is disabled and every call passes.
type EnrichmentLimiter struct {
	enabled bool
	bucket  *TokenBucket

	endpoints *endpoints.Holder
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewEnrichmentLimiter(p Params) *EnrichmentLimiter {
	log := p.Log.Named("ratelimit")

	addr := strings.TrimSpace(p.Config.RedisAddr)
	if addr == "" {
		log.Warn("redis not configured, enrichment rate limiting disabled")
		return &EnrichmentLimiter{log: log, endpoints: p.Endpoints, metrics: p.Metrics}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Config.RedisPassword),
	})

	return &EnrichmentLimiter{
		enabled:   true,
		bucket:    NewTokenBucket(client),
		endpoints: p.Endpoints,
		metrics:   p.Metrics,
		log:       log,
	}
}

func (l *EnrichmentLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow reports whether the account may run another call of the given
// kind right now. Redis failures fail open: enrichment keeps working and
// the failure is logged.
func (l *EnrichmentLimiter) Allow(ctx context.Context, accountID, kind string) (*RateLimitResult, bool) {
	if !l.Enabled() {
		return nil, true
	}

	ratePerMinute := defaultRatePerMinute
	if override := l.endpoints.RateFor(kind); override > 0 {
		ratePerMinute = override
	}
	rate := float64(ratePerMinute) / 60.0

	key := fmt.Sprintf(keyEnrichAccount, strings.TrimSpace(accountID), strings.TrimSpace(kind))
	result, err := l.bucket.Allow(ctx, key, rate, defaultBurst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, failing open",
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, true
	}

	if l.metrics != nil {
		if result.Allowed {
			l.metrics.RecordRateLimitAllowed(ctx, kind)
		} else {
			l.metrics.RecordRateLimitDenied(ctx, kind, "account_bucket")
		}
	}

	return result, result.Allowed
}
