package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	limit "github.com/yangxikun/gin-limit-by-key"
	"golang.org/x/time/rate"
)

// a client bucket is dropped after this long without requests
const limiterIdleTime = 10 * time.Minute

// rateLimitMiddleware keeps a token bucket per client address and rejects
// clients sending faster than the configured rate. A non-positive rate
// disables the limit.
func (s *Server) rateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	return limit.NewRateLimiter(
		func(c *gin.Context) string {
			return c.ClientIP()
		},
		func(c *gin.Context) (*rate.Limiter, time.Duration) {
			return rate.NewLimiter(rate.Limit(rps), burst), limiterIdleTime
		},
		func(c *gin.Context) {
			abortWithLocalizedError(c, http.StatusTooManyRequests, errorRateLimited)
		},
	)
}
