package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/jobs"
	"github.com/killallgit/blog-api/internal/services/pipeline"
)

// JobProcessor defines the interface for processing different job types
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *models.Job) error
	CanProcess(jobType models.JobType) bool
}

// knownJobTypes lists every job type a worker may claim
var knownJobTypes = []models.JobType{
	models.JobTypePostGeneration,
}

// Worker represents a background worker that processes jobs
type Worker struct {
	id           string
	jobService   jobs.Service
	processors   []JobProcessor
	stopChan     chan struct{}
	wg           sync.WaitGroup
	pollInterval time.Duration
	jobTimeout   time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(id string, jobService jobs.Service, pollInterval time.Duration) *Worker {
	return &Worker{
		id:           id,
		jobService:   jobService,
		processors:   make([]JobProcessor, 0),
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
	}
}

// RegisterProcessor registers a job processor
func (w *Worker) RegisterProcessor(processor JobProcessor) {
	w.processors = append(w.processors, processor)
}

// Start starts the worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker gracefully
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	logger := log.With("worker", w.id)
	logger.Debug("Worker starting")
	defer logger.Debug("Worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.processNextJob(ctx); err != nil {
				logger.Error("Error processing job", "error", err)
			}
		}
	}
}

func (w *Worker) supportedTypes() []models.JobType {
	var supported []models.JobType
	for _, jobType := range knownJobTypes {
		if w.processorFor(jobType) != nil {
			supported = append(supported, jobType)
		}
	}
	return supported
}

func (w *Worker) processorFor(jobType models.JobType) JobProcessor {
	for _, p := range w.processors {
		if p.CanProcess(jobType) {
			return p
		}
	}
	return nil
}

// processNextJob claims and processes the next available job
func (w *Worker) processNextJob(ctx context.Context) error {
	supportedTypes := w.supportedTypes()
	if len(supportedTypes) == 0 {
		return fmt.Errorf("no job processors registered")
	}

	job, err := w.jobService.ClaimNextJob(ctx, w.id, supportedTypes)
	if err != nil {
		if errors.Is(err, jobs.ErrNoJobsAvailable) || errors.Is(err, jobs.ErrJobAlreadyClaimed) {
			return nil
		}
		return err
	}

	log.Info("Claimed job", "worker", w.id, "job_id", job.ID, "type", job.Type)
	return w.processJob(ctx, job)
}

// processJob runs a claimed job and records its outcome
func (w *Worker) processJob(ctx context.Context, job *models.Job) error {
	logger := log.With("worker", w.id, "job_id", job.ID, "type", job.Type)

	processor := w.processorFor(job.Type)
	if processor == nil {
		return fmt.Errorf("no processor found for job type %s", job.Type)
	}

	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	err := processor.ProcessJob(jobCtx, job)
	if err != nil {
		if postCommitted(err) {
			if failErr := w.jobService.FailJob(context.WithoutCancel(ctx), job.ID, err); failErr != nil {
				logger.Error("Failed to mark job as failed", "error", failErr)
			}
			return fmt.Errorf("job %d processing failed: %w", job.ID, err)
		}

		// shutting down: hand the job back instead of burning a retry
		if ctx.Err() != nil {
			if relErr := w.jobService.ReleaseJob(context.WithoutCancel(ctx), job.ID); relErr != nil {
				logger.Warn("Failed to release job on shutdown", "error", relErr)
			}
			return nil
		}

		if failErr := w.jobService.FailJob(ctx, job.ID, err); failErr != nil {
			logger.Error("Failed to mark job as failed", "error", failErr)
		}
		return fmt.Errorf("job %d processing failed: %w", job.ID, err)
	}

	logger.Info("Completed job")
	return nil
}

// postCommitted reports whether the job failed after its post was saved.
// Such a job must never run again.
func postCommitted(err error) bool {
	var structured *models.StructuredJobError
	return errors.As(err, &structured) &&
		structured.Type == models.ErrorTypePipeline &&
		structured.Code == pipeline.StageDone
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers    []*Worker
	jobService jobs.Service
	mu         sync.RWMutex
	started    bool
}

// PoolOption configures a WorkerPool
type PoolOption func(*WorkerPool)

// WithJobTimeout bounds how long a single job may run
func WithJobTimeout(timeout time.Duration) PoolOption {
	return func(p *WorkerPool) {
		for _, w := range p.workers {
			w.jobTimeout = timeout
		}
	}
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(jobService jobs.Service, workerCount int, pollInterval time.Duration, opts ...PoolOption) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}

	pool := &WorkerPool{
		jobService: jobService,
		workers:    make([]*Worker, workerCount),
	}

	for i := range workerCount {
		workerID := fmt.Sprintf("worker-%d", i+1)
		pool.workers[i] = NewWorker(workerID, jobService, pollInterval)
	}

	for _, opt := range opts {
		opt(pool)
	}

	return pool
}

// RegisterProcessor registers a processor with all workers
func (p *WorkerPool) RegisterProcessor(processor JobProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, worker := range p.workers {
		worker.RegisterProcessor(processor)
	}
}

// Size returns the number of workers in the pool
func (p *WorkerPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.workers)
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	log.Info("Starting worker pool", "workers", len(p.workers))

	for _, worker := range p.workers {
		worker.Start(ctx)
	}

	p.started = true
	return nil
}

// Stop stops all workers gracefully
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	log.Info("Stopping worker pool")

	for _, worker := range p.workers {
		worker.Stop()
	}

	p.started = false
}
