package api

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
	"golang.org/x/time/rate"
)

// CORSConfig lists what cross-origin callers may do. An origin of "*"
// allows every origin.
type CORSConfig struct {
	Origins []string
	Methods []string
	Headers []string
}

// DefaultCORSConfig allows any origin to call the API with a bearer token
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Origins: []string{"*"},
		Methods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		Headers: []string{"Content-Type", "Authorization"},
	}
}

func CORS(cfg CORSConfig) gin.HandlerFunc {
	wildcard := slices.Contains(cfg.Origins, "*")
	methods := strings.Join(cfg.Methods, ", ")
	headers := strings.Join(cfg.Headers, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(cfg.Origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func RequestSizeLimit() gin.HandlerFunc {
	return RequestSizeLimitWithSize(1024 * 1024)
}

func RequestSizeLimitWithSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodPatch {
			if c.Request.ContentLength > maxBytes {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
					Status:  types.StatusError,
					Message: "Request body too large",
					Error:   string(apperrors.ErrCodeInvalidInput),
				})
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestLogger logs one line per request through the default logger
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start).Round(time.Microsecond),
			"client_ip", c.ClientIP(),
		}
		if userID := types.UserID(c); userID != "" {
			kv = append(kv, "user_id", userID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}

// Maintenance answers 503 for everything except the health check while
// enabled is true
func Maintenance(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Status:  types.StatusError,
			Message: "The service is undergoing maintenance. Please try again later.",
			Error:   string(apperrors.ErrCodeServiceDown),
		})
	}
}

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// ClientRateLimiter keeps one token bucket per client IP. Each route
// group gets its own instance so budgets do not leak between groups.
type ClientRateLimiter struct {
	clients sync.Map
	limit   rate.Limit
	burst   int
}

// NewClientRateLimiter allows perMinute requests per client with the
// given burst. A burst below 1 defaults to perMinute/6, at least 1.
func NewClientRateLimiter(perMinute, burst int) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = max(perMinute/6, 1)
	}
	return &ClientRateLimiter{
		limit: rate.Limit(float64(perMinute) / 60),
		burst: burst,
	}
}

func (l *ClientRateLimiter) get(key string) *clientLimiter {
	if v, ok := l.clients.Load(key); ok {
		return v.(*clientLimiter)
	}
	v, _ := l.clients.LoadOrStore(key, &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)})
	return v.(*clientLimiter)
}

// Allow reports whether the client identified by key may proceed
func (l *ClientRateLimiter) Allow(key string) bool {
	cl := l.get(key)
	cl.lastSeen.Store(time.Now().UnixNano())
	return cl.limiter.Allow()
}

// Middleware rejects clients over their budget with 429
func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Rate limit exceeded. Please slow down your requests.",
				Error:   string(apperrors.ErrCodeAPIRateLimit),
			})
			return
		}
		c.Next()
	}
}

// Sweep drops clients idle for longer than idle and returns how many
func (l *ClientRateLimiter) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle).UnixNano()
	removed := 0
	l.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			l.clients.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func cleanupOldRateLimiters(limiters []*ClientRateLimiter, cleanupStop chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, l := range limiters {
				l.Sweep(10 * time.Minute)
			}
		case <-cleanupStop:
			return
		}
	}
}
