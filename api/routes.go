package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/blog-api/api/auth"
	"github.com/killallgit/blog-api/api/comments"
	"github.com/killallgit/blog-api/api/generate"
	"github.com/killallgit/blog-api/api/health"
	"github.com/killallgit/blog-api/api/jobs"
	"github.com/killallgit/blog-api/api/media"
	"github.com/killallgit/blog-api/api/middleware"
	"github.com/killallgit/blog-api/api/posts"
	"github.com/killallgit/blog-api/api/reactions"
	"github.com/killallgit/blog-api/api/sites"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/api/users"
	"github.com/killallgit/blog-api/api/version"
	_ "github.com/killallgit/blog-api/docs/swagger"
)

// RateLimitFunc returns the middleware for a named rate limit, or nil
type RateLimitFunc func(name string) gin.HandlerFunc

// RouteOptions tunes route registration
type RouteOptions struct {
	RateLimit    RateLimitFunc
	ListCacheTTL time.Duration
}

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, opts RouteOptions) error {
	if deps == nil {
		return errors.New("dependencies are required")
	}
	if deps.Auth == nil {
		return errors.New("token validator is required")
	}
	rateLimit := opts.RateLimit
	if rateLimit == nil {
		rateLimit = func(string) gin.HandlerFunc { return nil }
	}

	// Unversioned routes are not rate limited
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)
	media.RegisterRoutes(engine, deps)

	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	authHandler := auth.NewHandler(deps.Auth)

	v1 := engine.Group("/api/v1")
	use(v1, rateLimit("default"))

	public := v1.Group("")
	public.Use(authHandler.OptionalAuthMiddleware())

	protected := v1.Group("")
	protected.Use(authHandler.AuthMiddleware())

	// Generation runs the whole pipeline and gets its own budget on top
	// of the default one
	generating := protected.Group("/posts")
	use(generating, rateLimit("generate"))
	generate.RegisterRoutes(generating, deps)

	jobs.RegisterRoutes(protected.Group("/jobs"), deps)

	var listCache gin.HandlerFunc
	if deps.Cache != nil {
		ttl := opts.ListCacheTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		listCache = middleware.CacheMiddleware(middleware.CacheConfig{
			Cache:   deps.Cache,
			TTL:     ttl,
			Enabled: true,
		})
	}
	posts.RegisterRoutes(public.Group("/posts"), protected.Group("/posts"), deps, listCache)
	sites.RegisterRoutes(public.Group("/sites"), protected.Group("/sites"), deps)
	comments.RegisterRoutes(public, protected, deps)
	reactions.RegisterRoutes(public, protected, deps)
	users.RegisterRoutes(protected.Group("/users"), deps)

	return nil
}

func use(group *gin.RouterGroup, mw gin.HandlerFunc) {
	if mw != nil {
		group.Use(mw)
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  types.StatusError,
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
