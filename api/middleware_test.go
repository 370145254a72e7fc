package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		cfg             CORSConfig
		method          string
		origin          string
		expectedStatus  int
		expectedHeaders map[string]string
	}{
		{
			name:           "preflight request",
			cfg:            DefaultCORSConfig(),
			method:         "OPTIONS",
			origin:         "https://example.com",
			expectedStatus: http.StatusNoContent,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin":  "*",
				"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type, Authorization",
			},
		},
		{
			name:           "regular GET request",
			cfg:            DefaultCORSConfig(),
			method:         "GET",
			origin:         "https://example.com",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "*",
			},
		},
		{
			name:           "listed origin is echoed",
			cfg:            CORSConfig{Origins: []string{"https://blog.example.com"}, Methods: []string{"GET"}},
			method:         "GET",
			origin:         "https://blog.example.com",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "https://blog.example.com",
				"Vary":                        "Origin",
			},
		},
		{
			name:           "unlisted origin gets no allow header",
			cfg:            CORSConfig{Origins: []string{"https://blog.example.com"}, Methods: []string{"GET"}},
			method:         "GET",
			origin:         "https://evil.example.com",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, router := gin.CreateTestContext(w)

			router.Use(CORS(tt.cfg))
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for header, expectedValue := range tt.expectedHeaders {
				assert.Equal(t, expectedValue, w.Header().Get(header), "Header: %s", header)
			}
		})
	}
}

func TestRequestSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		bodySize       int
		expectedStatus int
	}{
		{
			name:           "small request under limit",
			bodySize:       100,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "large request over limit",
			bodySize:       2 * 1024 * 1024,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:           "request at limit",
			bodySize:       1024 * 1024,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, router := gin.CreateTestContext(w)

			router.Use(RequestSizeLimit())
			router.POST("/test", func(c *gin.Context) {
				body, err := io.ReadAll(c.Request.Body)
				if err != nil {
					c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"received": len(body)})
			})

			body := strings.Repeat("a", tt.bodySize)
			req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
			req.Header.Set("Content-Type", "text/plain")

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequestSizeLimitWithSize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	customLimit := int64(512 * 1024)

	tests := []struct {
		name           string
		bodySize       int
		expectedStatus int
	}{
		{
			name:           "request under custom limit",
			bodySize:       256 * 1024,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "request over custom limit",
			bodySize:       1024 * 1024,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, router := gin.CreateTestContext(w)

			router.Use(RequestSizeLimitWithSize(customLimit))
			router.POST("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			body := strings.Repeat("a", tt.bodySize)
			req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestClientRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name              string
		requestCount      int
		perMinute         int
		burst             int
		expectSomeBlocked bool
	}{
		{
			name:              "requests under burst",
			requestCount:      3,
			perMinute:         600,
			burst:             5,
			expectSomeBlocked: false,
		},
		{
			name:              "burst exhausted",
			requestCount:      6,
			perMinute:         6,
			burst:             3,
			expectSomeBlocked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewClientRateLimiter(tt.perMinute, tt.burst)

			router := gin.New()
			router.Use(limiter.Middleware())
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			successCount := 0
			blockedCount := 0
			for range tt.requestCount {
				w := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/test", nil)
				req.RemoteAddr = "127.0.0.1:12345"

				router.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
					assert.Equal(t, "60", w.Header().Get("Retry-After"))
				}
			}

			if tt.expectSomeBlocked {
				assert.Equal(t, tt.burst, successCount)
				assert.Greater(t, blockedCount, 0, "Expected some requests to be blocked")
			} else {
				assert.Equal(t, 0, blockedCount, "Expected no requests to be blocked")
				assert.Equal(t, tt.requestCount, successCount)
			}
		})
	}
}

func TestClientRateLimiter_DifferentClients(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewClientRateLimiter(2, 2)
	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	for range 3 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		router.ServeHTTP(w, req)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientRateLimiter_GroupsAreIndependent(t *testing.T) {
	generate := NewClientRateLimiter(1, 1)
	general := NewClientRateLimiter(120, 20)

	assert.True(t, generate.Allow("10.0.0.1"))
	assert.False(t, generate.Allow("10.0.0.1"))
	assert.True(t, general.Allow("10.0.0.1"))
}

func TestClientRateLimiter_Sweep(t *testing.T) {
	limiter := NewClientRateLimiter(60, 0)
	limiter.Allow("stale")

	assert.Equal(t, 0, limiter.Sweep(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, limiter.Sweep(time.Millisecond))
	assert.Equal(t, 0, limiter.Sweep(time.Millisecond))
}

func TestCleanupOldRateLimiters(t *testing.T) {
	cleanupStop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		cleanupOldRateLimiters([]*ClientRateLimiter{NewClientRateLimiter(60, 10)}, cleanupStop)
		close(done)
	}()

	close(cleanupStop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestMaintenance(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Maintenance(true))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/posts", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/posts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
