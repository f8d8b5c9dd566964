package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skipscan/skipscan/internal/accountctx"
	enrichmentdomain "github.com/skipscan/skipscan/internal/enrichment/domain"
)

const bearerPrefix = "Bearer "

// AuthRequired authenticates the request from its bearer token and puts
// the account ID on the request context for downstream services.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		accountID, err := s.tokens.Verify(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := accountctx.WithAccountID(c.Request.Context(), int64(accountID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// EnrichRateLimit throttles single-record enrichment per account and kind.
// Batch uploads share one bucket under the batch-upload kind.
func (s *Server) EnrichRateLimit(fixedKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.enrichLimiter == nil || !s.enrichLimiter.Enabled() {
			c.Next()
			return
		}

		accountID, ok := accountctx.AccountIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		kind := fixedKind
		if kind == "" {
			kind = strings.TrimSpace(c.Param("kind"))
		}
		if kind == "" {
			kind = enrichmentdomain.KindBatchUpload
		}

		result, allowed := s.enrichLimiter.Allow(c.Request.Context(), accountID.String(), kind)
		if allowed {
			c.Next()
			return
		}

		if result != nil {
			retryAfter := int(result.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}

		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}})
	}
}
