package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/pkg/config"
)

// Options configures the HTTP server and its global middleware
type Options struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	MaxBodyBytes   int64

	// CORS is nil when cross-origin requests are not allowed
	CORS *CORSConfig

	// RateLimits maps a limiter name ("generate", "default") to requests
	// per minute. A nil map disables rate limiting.
	RateLimits map[string]int

	Maintenance  bool
	ListCacheTTL time.Duration
}

// OptionsFromConfig derives server options from application config
func OptionsFromConfig(cfg *config.Config, address string) Options {
	opts := Options{
		Address:        address,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Maintenance:    cfg.Features.MaintenanceMode,
		ListCacheTTL:   cfg.Cache.DefaultTTL,
	}
	if cfg.Security.EnableCORS {
		cors := DefaultCORSConfig()
		if len(cfg.Security.CORSOrigins) > 0 {
			cors.Origins = cfg.Security.CORSOrigins
		}
		if len(cfg.Security.CORSMethods) > 0 {
			cors.Methods = cfg.Security.CORSMethods
		}
		if len(cfg.Security.CORSHeaders) > 0 {
			cors.Headers = cfg.Security.CORSHeaders
		}
		opts.CORS = &cors
	}
	if cfg.RateLimiting.Enabled {
		opts.RateLimits = cfg.RateLimiting.Endpoints
	}
	return opts
}

// Server represents the HTTP server
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	opts        Options
	limiters    []*ClientRateLimiter
	stopOnce    sync.Once
	cleanupStop chan struct{}

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server
func NewServer(opts Options) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	// Synchronous generation holds the connection for the whole pipeline
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Minute
	}
	if opts.MaxHeaderBytes <= 0 {
		opts.MaxHeaderBytes = 1 << 20
	}

	return &Server{
		engine:      engine,
		opts:        opts,
		cleanupStop: make(chan struct{}),
		httpServer: &http.Server{
			Addr:           opts.Address,
			Handler:        engine,
			ReadTimeout:    opts.ReadTimeout,
			WriteTimeout:   opts.WriteTimeout,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: opts.MaxHeaderBytes,
		},
	}
}

// generateTimeout leaves room inside the write deadline to send the
// generation result
func generateTimeout(writeTimeout time.Duration) time.Duration {
	if writeTimeout > 2*time.Minute {
		return writeTimeout - 30*time.Second
	}
	return writeTimeout * 3 / 4
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() error {
	s.setupMiddleware()
	if s.dependencies != nil && s.dependencies.GenerateTimeout <= 0 {
		s.dependencies.GenerateTimeout = generateTimeout(s.opts.WriteTimeout)
	}
	if err := RegisterRoutes(s.engine, s.dependencies, RouteOptions{
		RateLimit:    s.rateLimit,
		ListCacheTTL: s.opts.ListCacheTTL,
	}); err != nil {
		return err
	}

	if len(s.limiters) > 0 {
		go cleanupOldRateLimiters(s.limiters, s.cleanupStop)
	}
	return nil
}

func (s *Server) setupMiddleware() {
	if gin.Mode() == gin.ReleaseMode {
		s.engine.Use(RequestLogger())
	} else {
		s.engine.Use(gin.Logger())
	}

	if s.opts.CORS != nil {
		s.engine.Use(CORS(*s.opts.CORS))
	}

	if s.opts.MaxBodyBytes > 0 {
		s.engine.Use(RequestSizeLimitWithSize(s.opts.MaxBodyBytes))
	} else {
		s.engine.Use(RequestSizeLimit())
	}

	s.engine.Use(Maintenance(s.opts.Maintenance))
}

// rateLimit returns the middleware for the named limiter, or nil when
// rate limiting is off
func (s *Server) rateLimit(name string) gin.HandlerFunc {
	if s.opts.RateLimits == nil {
		return nil
	}
	perMinute, ok := s.opts.RateLimits[name]
	if !ok || perMinute <= 0 {
		return nil
	}

	limiter := NewClientRateLimiter(perMinute, 0)
	s.limiters = append(s.limiters, limiter)
	return limiter.Middleware()
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.cleanupStop) })
	return s.httpServer.Shutdown(ctx)
}
