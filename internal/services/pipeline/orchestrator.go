// Package pipeline turns an uploaded media file into a draft blog post:
// probe, normalize, transcribe, generate, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/media"
	"github.com/killallgit/blog-api/internal/services/posts"
	"github.com/killallgit/blog-api/internal/services/transcription"
)

// Prober checks that the uploaded file can be fetched
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Normalizer produces a speech WAV from the uploaded file
type Normalizer interface {
	Normalize(ctx context.Context, url string) (*media.NormalizedAudio, error)
}

// Generator writes Markdown from a transcript
type Generator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

// PostStore persists generated posts
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
}

// SiteLocator returns the user's current site id, empty when none
type SiteLocator interface {
	CurrentSiteID(ctx context.Context, userID string) (string, error)
}

// Result is the outcome of one run. Err is kept for logs and job
// details and never serialized.
type Result struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
	Message string `json:"message,omitempty"`
	Stage   string `json:"-"`
	Source  string `json:"-"`
	Err     error  `json:"-"`
}

// ProgressFunc receives the stage about to start and a rough percentage
type ProgressFunc func(stage string, percent int)

// RunOption configures a single Run
type RunOption func(*runConfig)

type runConfig struct {
	progress ProgressFunc
}

// WithProgress reports stage transitions, used by the job worker
func WithProgress(fn ProgressFunc) RunOption {
	return func(c *runConfig) {
		c.progress = fn
	}
}

// Orchestrator sequences the pipeline stages
type Orchestrator struct {
	prober      Prober
	normalizer  Normalizer
	transcriber transcription.Transcriber
	generator   Generator
	store       PostStore
	sites       SiteLocator
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSiteLocator attaches new posts to the user's current site
func WithSiteLocator(sites SiteLocator) Option {
	return func(o *Orchestrator) {
		o.sites = sites
	}
}

// New creates an orchestrator
func New(prober Prober, normalizer Normalizer, transcriber transcription.Transcriber, generator Generator, store PostStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		prober:      prober,
		normalizer:  normalizer,
		transcriber: transcriber,
		generator:   generator,
		store:       store,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the pipeline for descriptor on behalf of userID. Every
// failure, including a panic in a stage, comes back as a Result with
// Success false.
func (o *Orchestrator) Run(ctx context.Context, descriptor any, userID string, opts ...RunOption) (result Result) {
	cfg := runConfig{progress: func(string, int) {}}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	logger := log.With("user_id", userID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panic", "panic", r)
			result = Result{Message: MsgUnexpected, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if strings.TrimSpace(userID) == "" {
		return Result{Message: MsgUnauthenticated, Stage: StageInput, Err: &MalformedInputError{Field: "userId", Message: MsgUnauthenticated}}
	}

	postID, source, err := o.run(ctx, descriptor, userID, cfg.progress)
	if err != nil {
		stage, msg := classify(err)
		logger.Error("pipeline failed", "stage", stage, "elapsed", time.Since(start).Round(time.Millisecond), "error", err)
		return Result{Message: msg, Stage: stage, Source: source, Err: err}
	}

	cfg.progress(StageDone, 100)
	logger.Info("pipeline complete", "post_id", postID, "source", source, "elapsed", time.Since(start).Round(time.Millisecond))
	return Result{Success: true, PostID: postID, Stage: StageDone, Source: source}
}

func (o *Orchestrator) run(ctx context.Context, descriptor any, userID string, progress ProgressFunc) (string, string, error) {
	fileURL, err := ExtractFileURL(descriptor)
	if err != nil {
		return "", "", err
	}

	progress(StageProbe, 5)
	if err := o.prober.Probe(ctx, fileURL); err != nil {
		var unreachable *UnreachableMediaError
		if !errors.As(err, &unreachable) {
			err = &UnreachableMediaError{URL: fileURL, Err: err}
		}
		return "", "", err
	}

	progress(StageNormalize, 15)
	audio, err := o.normalizer.Normalize(ctx, fileURL)
	if err != nil {
		var normErr *NormalizationError
		if !errors.As(err, &normErr) {
			err = &NormalizationError{URL: fileURL, Err: err}
		}
		return "", "", err
	}
	defer func() {
		if err := audio.Remove(); err != nil {
			log.Warn("failed to remove normalized audio", "path", audio.Path, "error", err)
		}
	}()

	progress(StageTranscribe, 35)
	transcript, err := o.transcriber.Transcribe(ctx, transcription.Audio{Path: audio.Path, URL: audio.URL})
	if err != nil {
		return "", "", &TranscriptionError{Err: err}
	}
	if transcript.Degraded() {
		log.Warn("transcription fallback used", "source", transcript.Source, "cause", transcript.Cause)
	}

	progress(StageGenerate, 70)
	markdown, err := o.generator.Generate(ctx, transcript.Text)
	if err != nil {
		return "", transcript.Source, &GenerationError{Err: err}
	}
	title, body := posts.SplitTitleBody(markdown)
	if title == "" || body == "" {
		return "", transcript.Source, &GenerationError{Err: errors.New("generator returned no usable title and body")}
	}

	progress(StagePersist, 90)
	post := posts.NewGeneratedPost(title, body, userID)
	if o.sites != nil {
		siteID, err := o.sites.CurrentSiteID(ctx, userID)
		if err != nil {
			log.Warn("could not resolve current site", "user_id", userID, "error", err)
		} else if siteID != "" {
			post.SiteID = &siteID
		}
	}

	// a caller that has given up would never learn the post id
	if err := ctx.Err(); err != nil {
		return "", transcript.Source, &PersistenceError{Err: err}
	}
	if err := o.store.CreatePost(ctx, post); err != nil {
		return "", transcript.Source, &PersistenceError{Err: err}
	}
	return post.ID, transcript.Source, nil
}
