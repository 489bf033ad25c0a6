package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"keygate/internal/infrastructure/ratelimit"
	"keygate/internal/shared/config"
	"keygate/internal/shared/constants"
	"keygate/internal/shared/logger"
	"keygate/internal/shared/utils"
)

// HeartbeatRateLimit throttles the heartbeat endpoint per authenticated
// user. Runs after RequireAuth; falls back to the client IP when the
// route is somehow reached unauthenticated.
func HeartbeatRateLimit(limiter ratelimit.RateLimiter, cfg config.HeartbeatRateLimitConfig, log logger.Interface) gin.HandlerFunc {
	windowCfg := ratelimit.WindowConfig{
		Limit:  cfg.Limit,
		Window: time.Duration(cfg.WindowSeconds) * time.Second,
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if v, exists := c.Get(constants.ContextKeyUserID); exists {
			if userID, ok := v.(uint); ok {
				key = fmt.Sprintf("user:%d", userID)
			}
		}

		allowed, err := limiter.Allow("heartbeat:"+key, windowCfg)
		if err != nil {
			// Rate limiting is best-effort: never block traffic on a
			// limiter backend failure.
			log.Warnw("heartbeat rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "heartbeat rate limit exceeded, please slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}
