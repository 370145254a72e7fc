// Package cleanup periodically removes pipeline leftovers: stale temp
// media and finished jobs.
package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/pkg/download"
)

// DefaultPatterns match the files written by the downloader and normalizer
var DefaultPatterns = []string{
	"download_*",
	"normalized_*.wav",
}

// JobJanitor is the slice of the job service cleanup needs
type JobJanitor interface {
	RecoverStaleJobs(ctx context.Context, staleAfter time.Duration) (int64, error)
	CleanupOldJobs(ctx context.Context, retentionDays int) (int64, error)
}

// Options configures the cleanup service
type Options struct {
	TempDir       string
	MaxAge        time.Duration
	Interval      time.Duration
	Patterns      []string
	Jobs          JobJanitor
	JobRetention  int
	StaleJobAfter time.Duration
}

// Service handles cleanup of temporary files and old jobs
type Service struct {
	opts   Options
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewService creates a new cleanup service
func NewService(opts Options) *Service {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Service{opts: opts}
}

// Start runs one sweep immediately and then one per interval until Stop
// or ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.RunOnce(ctx)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				log.Info("Cleanup service stopped")
				return
			}
		}
	}()

	log.Info("Cleanup service started", "interval", s.opts.Interval, "max_age", s.opts.MaxAge, "dir", s.opts.TempDir)
}

// Stop stops the cleanup service and waits for the loop to exit
func (s *Service) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
	})
}

// Sweep reports what a single RunOnce removed
type Sweep struct {
	Files         int
	Jobs          int64
	RecoveredJobs int64
}

// RunOnce performs a single cleanup pass
func (s *Service) RunOnce(ctx context.Context) Sweep {
	var sweep Sweep

	if s.opts.TempDir != "" && s.opts.MaxAge > 0 {
		for _, pattern := range s.opts.Patterns {
			removed, err := download.CleanupOldTempFiles(s.opts.TempDir, pattern, s.opts.MaxAge)
			if err != nil {
				log.Warn("Temp file cleanup failed", "pattern", pattern, "error", err)
				continue
			}
			sweep.Files += removed
		}
	}

	if s.opts.Jobs != nil {
		if s.opts.StaleJobAfter > 0 {
			recovered, err := s.opts.Jobs.RecoverStaleJobs(ctx, s.opts.StaleJobAfter)
			if err != nil {
				log.Warn("Stale job recovery failed", "error", err)
			}
			sweep.RecoveredJobs = recovered
		}
		if s.opts.JobRetention > 0 {
			deleted, err := s.opts.Jobs.CleanupOldJobs(ctx, s.opts.JobRetention)
			if err != nil {
				log.Warn("Job cleanup failed", "error", err)
			}
			sweep.Jobs = deleted
		}
	}

	if sweep.Files > 0 || sweep.Jobs > 0 {
		log.Debug("Cleanup sweep", "files", sweep.Files, "jobs", sweep.Jobs, "recovered", sweep.RecoveredJobs)
	}
	return sweep
}
