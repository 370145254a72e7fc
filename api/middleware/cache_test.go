package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/internal/services/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedRouter(t *testing.T) (*gin.Engine, *cache.MemoryCache, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mc := cache.NewMemoryCache(1, time.Minute)
	t.Cleanup(mc.Stop)

	calls := 0
	router := gin.New()
	router.Use(CacheMiddleware(CacheConfig{Cache: mc, TTL: time.Minute, Enabled: true}))
	router.GET("/api/v1/posts", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	router.GET("/missing", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})
	return router, mc, &calls
}

func serve(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestCacheMiddleware_HitAfterMiss(t *testing.T) {
	router, _, calls := setupCachedRouter(t)

	first := serve(router, "/api/v1/posts?page=1", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(router, "/api/v1/posts?page=1", nil)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.NotEmpty(t, second.Header().Get("ETag"))
	assert.Equal(t, 1, *calls)

	notModified := serve(router, "/api/v1/posts?page=1", map[string]string{"If-None-Match": second.Header().Get("ETag")})
	assert.Equal(t, http.StatusNotModified, notModified.Code)
}

func TestCacheMiddleware_Bypass(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"authorization header", map[string]string{"Authorization": "Bearer token"}},
		{"no-cache", map[string]string{"Cache-Control": "no-cache"}},
		{"max-age zero", map[string]string{"Cache-Control": "max-age=0"}},
		{"pragma", map[string]string{"Pragma": "no-cache"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, calls := setupCachedRouter(t)

			serve(router, "/api/v1/posts", tt.headers)
			w := serve(router, "/api/v1/posts", tt.headers)

			assert.Equal(t, "BYPASS", w.Header().Get("X-Cache"))
			assert.Equal(t, 2, *calls)
		})
	}
}

func TestCacheMiddleware_SkipsErrors(t *testing.T) {
	router, _, calls := setupCachedRouter(t)

	serve(router, "/missing", nil)
	w := serve(router, "/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 2, *calls)
}

func TestInvalidate(t *testing.T) {
	router, mc, calls := setupCachedRouter(t)

	serve(router, "/api/v1/posts?siteId=a", nil)
	serve(router, "/api/v1/posts?siteId=b", nil)
	require.Equal(t, 2, *calls)

	Invalidate(context.Background(), mc, "/api/v1/posts")

	w := serve(router, "/api/v1/posts?siteId=a", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 3, *calls)

	Invalidate(context.Background(), nil, "/api/v1/posts")
}

func TestGenerateCacheKey(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/v1/posts?b=2&a=1", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/v1/posts?a=1&b=2", nil)

	assert.Equal(t, generateCacheKey(a), generateCacheKey(b))
	assert.Equal(t, "http:/api/v1/posts:a=1:b=2", generateCacheKey(a))
}
