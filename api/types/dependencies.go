package types

import (
	"context"
	"time"

	"github.com/killallgit/blog-api/internal/database"
	"github.com/killallgit/blog-api/internal/services/auth"
	"github.com/killallgit/blog-api/internal/services/cache"
	"github.com/killallgit/blog-api/internal/services/comments"
	"github.com/killallgit/blog-api/internal/services/jobs"
	"github.com/killallgit/blog-api/internal/services/posts"
	"github.com/killallgit/blog-api/internal/services/reactions"
	"github.com/killallgit/blog-api/internal/services/sites"
	"github.com/killallgit/blog-api/internal/services/users"
	"github.com/killallgit/blog-api/internal/services/workers"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB              *database.DB
	PostService     posts.PostService
	SiteService     sites.SiteService
	UserService     users.UserService
	CommentService  comments.CommentService
	ReactionService *reactions.Service
	JobService      jobs.Service
	WorkerPool      *workers.WorkerPool
	Pipeline        workers.PipelineRunner
	Auth            TokenValidator
	Cache           cache.Cache

	// Version is the build version reported by /version
	Version string
	// TempDir is where normalized WAVs are written and served from
	TempDir string
	// AsyncGeneration allows ?async=true on the generate endpoint
	AsyncGeneration bool
	// GenerateTimeout bounds a synchronous generation so the response is
	// written before the server's write deadline
	GenerateTimeout time.Duration
}
