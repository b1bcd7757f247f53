// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggingMiddleware writes one line per request and records it in metrics
// when metrics is not nil.
func LoggingMiddleware(logger *utils.Logger, metrics *utils.APIMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if metrics != nil {
			metrics.RecordAPIRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
		}

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", fields)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", fields)
		default:
			logger.Debug("request", fields)
		}
	}
}

// RecoveryMiddleware turns panics into a 500 envelope.
func RecoveryMiddleware(rh *ResponseHelper) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		rh.InternalError(c, "panic recovered", fmt.Errorf("%v", recovered))
		c.Abort()
	})
}

// corsMiddleware allows cross-origin calls from the rehearsal UI.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimiter is a fixed-window request counter per key.
type RateLimiter struct {
	visitors  map[string]*Visitor
	mu        sync.Mutex
	nextSweep time.Time
	now       func() time.Time
}

// Visitor is one key's window.
type Visitor struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// NewRateLimiter creates an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*Visitor),
		now:      time.Now,
	}
}

// Allow consumes one request for key and reports whether it fits the window.
// It also returns the window state for the rate limit headers.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) (bool, Visitor) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now, window)

	visitor, exists := rl.visitors[key]
	if !exists || now.After(visitor.Reset) {
		visitor = &Visitor{Limit: limit, Remaining: limit - 1, Reset: now.Add(window)}
		rl.visitors[key] = visitor
		return true, *visitor
	}
	if visitor.Remaining <= 0 {
		return false, *visitor
	}
	visitor.Remaining--
	return true, *visitor
}

// sweep drops expired windows at most once per window. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time, window time.Duration) {
	if now.Before(rl.nextSweep) {
		return
	}
	for key, visitor := range rl.visitors {
		if now.After(visitor.Reset) {
			delete(rl.visitors, key)
		}
	}
	rl.nextSweep = now.Add(window)
}

// RateLimitMiddleware limits requests per key. A limit of zero or less
// disables limiting.
func RateLimitMiddleware(rl *RateLimiter, rh *ResponseHelper, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		allowed, visitor := rl.Allow(keyFunc(c), limit, window)
		remaining := visitor.Remaining
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", visitor.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", visitor.Reset.Unix()))

		if !allowed {
			rh.Error(c, http.StatusTooManyRequests, ErrorRateLimited, "Rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(rl *RateLimiter, rh *ResponseHelper, limit int, window time.Duration) gin.HandlerFunc {
	return RateLimitMiddleware(rl, rh, limit, window, func(c *gin.Context) string {
		return c.ClientIP()
	})
}
