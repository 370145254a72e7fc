// Package middleware holds HTTP middleware that needs its own
// dependencies, such as the response cache.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/internal/services/cache"
)

const keyPrefix = "http:"

// CacheConfig holds configuration for cache middleware
type CacheConfig struct {
	Cache   cache.Cache
	TTL     time.Duration
	Enabled bool
}

// CachedResponse is what gets stored per request key
type CachedResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	CachedAt    time.Time `json:"cachedAt"`
	ETag        string    `json:"etag"`
}

// responseWriter captures response for caching
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// CacheMiddleware serves anonymous GET responses from the cache. Requests
// carrying credentials always reach the handler because their responses
// may depend on the caller.
func CacheMiddleware(config CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.Enabled || config.Cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		if shouldBypassCache(c.Request) {
			c.Header("X-Cache", "BYPASS")
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := generateCacheKey(c.Request)

		var cached CachedResponse
		if cache.GetJSON(ctx, config.Cache, key, &cached) {
			if match := c.GetHeader("If-None-Match"); match != "" && match == cached.ETag {
				c.Header("X-Cache", "HIT")
				c.AbortWithStatus(http.StatusNotModified)
				return
			}
			c.Header("X-Cache", "HIT")
			c.Header("Age", strconv.Itoa(int(time.Since(cached.CachedAt).Seconds())))
			c.Header("ETag", cached.ETag)
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		w := &responseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = w

		c.Next()

		if w.Status() != http.StatusOK || w.body.Len() == 0 {
			return
		}

		_ = cache.SetJSON(ctx, config.Cache, key, CachedResponse{
			Status:      http.StatusOK,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
			CachedAt:    time.Now(),
			ETag:        generateETag(w.body.Bytes()),
		}, config.TTL)
	}
}

// Invalidate drops every cached response whose path starts with path
func Invalidate(ctx context.Context, c cache.Cache, path string) {
	if c == nil {
		return
	}
	if err := c.DeletePrefix(ctx, keyPrefix+path); err != nil {
		log.Warn("failed to invalidate cached responses", "path", path, "error", err)
	}
}

// shouldBypassCache checks if cache should be bypassed based on request headers
func shouldBypassCache(req *http.Request) bool {
	if req.Header.Get("Authorization") != "" {
		return true
	}

	cacheControl := req.Header.Get("Cache-Control")
	for _, directive := range strings.Split(strings.ToLower(cacheControl), ",") {
		directive = strings.TrimSpace(directive)
		if directive == "no-cache" || directive == "no-store" || directive == "max-age=0" {
			return true
		}
	}

	return req.Header.Get("Pragma") == "no-cache"
}

// generateCacheKey creates a unique key for the request
func generateCacheKey(req *http.Request) string {
	parts := []string{req.URL.Path}

	if req.URL.RawQuery != "" {
		params := req.URL.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			for _, v := range params[k] {
				parts = append(parts, fmt.Sprintf("%s=%s", k, v))
			}
		}
	}

	return keyPrefix + strings.Join(parts, ":")
}

// generateETag creates an ETag for the response body
func generateETag(body []byte) string {
	hash := sha256.Sum256(body)
	return fmt.Sprintf(`"%s"`, hex.EncodeToString(hash[:16]))
}
