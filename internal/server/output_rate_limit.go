package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	obslogger "github.com/ledgerwell/praxis/internal/observability/logger"
	"go.uber.org/zap"
)

// OutputRateLimit applies the per-caller token bucket to output
// generation. The limiter fails open internally, so a redis outage never
// blocks accounts production.
func (s *Server) OutputRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		dec := s.limiter.AllowGenerate(ctx, c.ClientIP())
		if !dec.Allowed {
			obslogger.FromContext(ctx).Warn("output generation rate limited",
				zap.String("client_ip", c.ClientIP()),
				zap.Duration("retry_after", dec.RetryAfter),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(dec.RetryAfter)))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

// retryAfterSeconds rounds up so a client honoring the header never
// retries straight into another denial.
func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
