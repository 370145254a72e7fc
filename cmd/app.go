package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/api"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/database"
	authService "github.com/killallgit/blog-api/internal/services/auth"
	"github.com/killallgit/blog-api/internal/services/cache"
	"github.com/killallgit/blog-api/internal/services/cleanup"
	"github.com/killallgit/blog-api/internal/services/comments"
	"github.com/killallgit/blog-api/internal/services/generator"
	"github.com/killallgit/blog-api/internal/services/jobs"
	"github.com/killallgit/blog-api/internal/services/media"
	"github.com/killallgit/blog-api/internal/services/pipeline"
	"github.com/killallgit/blog-api/internal/services/posts"
	"github.com/killallgit/blog-api/internal/services/reactions"
	"github.com/killallgit/blog-api/internal/services/sites"
	"github.com/killallgit/blog-api/internal/services/speechflow"
	"github.com/killallgit/blog-api/internal/services/transcription"
	"github.com/killallgit/blog-api/internal/services/users"
	"github.com/killallgit/blog-api/internal/services/whisper"
	"github.com/killallgit/blog-api/internal/services/workers"
	"github.com/killallgit/blog-api/pkg/config"
	"github.com/killallgit/blog-api/pkg/download"
	"github.com/killallgit/blog-api/pkg/ffmpeg"
)

// speechflowRequestsPerSecond keeps polling well under the provider's quota
const speechflowRequestsPerSecond = 2

// openDatabase opens and migrates the configured database
func openDatabase(cfg *config.Config) (*database.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.Open(cfg.Database.Path, database.Options{
		Verbose:         cfg.Database.Verbose,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConnections,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// buildPipeline wires media handling, the transcription chain and the
// article generator around the given post store
func buildPipeline(cfg *config.Config, engine *ffmpeg.FFmpeg, postStore pipeline.PostStore, siteLocator pipeline.SiteLocator) *pipeline.Orchestrator {
	fetcher := download.NewDownloader(download.DownloadOptions{
		TempDir:      cfg.Storage.TempDir,
		MaxSize:      cfg.Media.MaxDownloadSize,
		Timeout:      cfg.Media.DownloadTimeout,
		UserAgent:    cfg.Media.UserAgent,
		AllowedMedia: download.MediaTypes,
		FilePrefix:   "download",
	})
	prober := media.NewProber(cfg.Media.ProbeTimeout, cfg.Media.UserAgent)
	normalizer := media.NewNormalizer(engine, fetcher, cfg.Storage.TempDir,
		media.WithPublicBaseURL(cfg.Storage.PublicBaseURL))

	backends := []transcription.Backend{
		transcription.FromSpeechFlow(speechflow.NewClient(speechflow.Config{
			BaseURL:      cfg.SpeechFlow.BaseURL,
			KeyID:        cfg.SpeechFlow.KeyID,
			KeySecret:    cfg.SpeechFlow.KeySecret,
			Lang:         cfg.SpeechFlow.Lang,
			ResultType:   cfg.SpeechFlow.ResultType,
			PollInterval: cfg.SpeechFlow.PollInterval,
			MaxAttempts:  cfg.SpeechFlow.MaxAttempts,
			Deadline:     cfg.SpeechFlow.Deadline,
			Timeout:      cfg.SpeechFlow.Timeout,
		}, speechflow.WithRateLimit(speechflowRequestsPerSecond, speechflowRequestsPerSecond))),
	}
	if cfg.Features.EnableWhisperFallback && cfg.Whisper.APIKey != "" {
		backends = append(backends, transcription.FromWhisper(whisper.NewClient(whisper.Config{
			APIKey:   cfg.Whisper.APIKey,
			APIURL:   cfg.Whisper.APIURL,
			Model:    cfg.Whisper.Model,
			Language: cfg.Whisper.Language,
			Timeout:  cfg.Whisper.Timeout,
		})))
	}
	backends = append(backends, &transcription.Placeholder{Delay: cfg.Fallback.Delay, Text: cfg.Fallback.Text})

	chain := transcription.NewChain(backends...)
	log.Info("transcription chain ready", "backends", chain.Backends())

	gen := generator.NewClient(generator.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	})

	var opts []pipeline.Option
	if siteLocator != nil {
		opts = append(opts, pipeline.WithSiteLocator(siteLocator))
	}
	return pipeline.New(prober, normalizer, chain, gen, postStore, opts...)
}

// application owns every long-lived component started by serve
type application struct {
	cfg     *config.Config
	db      *database.DB
	engine  *ffmpeg.FFmpeg
	cache   *cache.MemoryCache
	pool    *workers.WorkerPool
	cleanup *cleanup.Service
	server  *api.Server
}

func newApplication(cfg *config.Config, address string) (*application, error) {
	if err := os.MkdirAll(cfg.Storage.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	engine := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := engine.ValidateBinaries(); err != nil {
		return nil, fmt.Errorf("ffmpeg is required: %w", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	validator, err := authService.NewService(authService.Config{
		JWKSURL:  cfg.Auth.JWKSURL,
		Issuer:   cfg.Auth.Issuer,
		DevMode:  cfg.Auth.DevMode,
		DevToken: cfg.Auth.DevToken,
		DevUser:  cfg.Auth.DevUser,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	memCache := cache.NewMemoryCache(64, cfg.Cache.CleanupInterval)

	postService := posts.NewService(posts.NewRepository(db.DB))
	userService := users.NewService(users.NewRepository(db.DB), postService, cfg.Plans.BasicPostLimit)
	siteService := sites.NewService(sites.NewRepository(db.DB), userService, cfg.Plans.FreeSiteLimit)
	jobService := jobs.NewService(jobs.NewRepository(db.DB))

	orchestrator := buildPipeline(cfg, engine, postService, siteService)

	pool := workers.NewWorkerPool(jobService, cfg.Processing.Workers, cfg.Processing.PollInterval,
		workers.WithJobTimeout(cfg.Processing.JobTimeout))
	pool.RegisterProcessor(workers.NewPostGenerationProcessor(jobService, orchestrator))

	janitor := cleanup.NewService(cleanup.Options{
		TempDir:       cfg.Storage.TempDir,
		MaxAge:        cfg.Storage.MaxTempAge,
		Interval:      cfg.Storage.CleanupInterval,
		Jobs:          jobService,
		JobRetention:  cfg.Processing.JobRetention,
		StaleJobAfter: cfg.Processing.StaleJobAfter,
	})

	server := api.NewServer(api.OptionsFromConfig(cfg, address))
	server.SetDependencies(&types.Dependencies{
		DB:              db,
		PostService:     postService,
		SiteService:     siteService,
		UserService:     userService,
		CommentService:  comments.NewService(comments.NewRepository(db.DB)),
		ReactionService: reactions.NewService(db.DB, memCache, cfg.Cache.ReactionsTTL),
		JobService:      jobService,
		WorkerPool:      pool,
		Pipeline:        orchestrator,
		Auth:            validator,
		Cache:           memCache,
		Version:         Version,
		TempDir:         cfg.Storage.TempDir,
		AsyncGeneration: cfg.Features.EnableAsyncGeneration,
	})
	if err := server.Initialize(); err != nil {
		memCache.Stop()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return &application{
		cfg:     cfg,
		db:      db,
		engine:  engine,
		cache:   memCache,
		pool:    pool,
		cleanup: janitor,
		server:  server,
	}, nil
}

// startBackground starts the worker pool and the cleanup loop
func (a *application) startBackground(ctx context.Context) error {
	if err := a.pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	a.cleanup.Start(ctx)
	return nil
}

// shutdown stops accepting requests, drains background work and closes
// shared resources, in that order
func (a *application) shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.pool.Stop()
	a.cleanup.Stop()
	a.cache.Stop()
	if cerr := a.engine.Close(); cerr != nil {
		log.Warn("failed to close media engine", "error", cerr)
	}
	if cerr := a.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
