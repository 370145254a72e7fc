package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
)

const (
	DefaultMaxRetries = 3
	DefaultPriority   = 0
)

// ErrNotRetryable is returned when a manual retry targets a job that has
// not failed
var ErrNotRetryable = errors.New("only failed jobs can be retried")

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) EnqueueJob(ctx context.Context, jobType models.JobType, payload models.JobPayload, opts ...JobOption) (*models.Job, error) {
	cfg := &jobConfig{
		Priority:   DefaultPriority,
		MaxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	job := &models.Job{
		Type:       jobType,
		Status:     models.JobStatusPending,
		Payload:    payload,
		Priority:   cfg.Priority,
		MaxRetries: cfg.MaxRetries,
		CreatedBy:  cfg.CreatedBy,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Debug("Enqueued job", "type", jobType, "job_id", job.ID, "priority", job.Priority)

	return job, nil
}

// EnqueueUniqueJob returns the live job already carrying payload[uniqueKey]
// instead of enqueueing a duplicate
func (s *service) EnqueueUniqueJob(ctx context.Context, jobType models.JobType, payload models.JobPayload, uniqueKey string, opts ...JobOption) (*models.Job, error) {
	uniqueValue, ok := payload[uniqueKey]
	if !ok {
		return nil, fmt.Errorf("unique key %s not found in payload", uniqueKey)
	}

	existing, err := s.repo.GetJobByTypeAndPayload(ctx, jobType, uniqueKey, fmt.Sprintf("%v", uniqueValue))
	if err != nil && !errors.Is(err, ErrJobNotFound) {
		return nil, err
	}
	if existing != nil && !existing.IsTerminal() {
		log.Debug("Job already queued", "type", jobType, uniqueKey, uniqueValue, "job_id", existing.ID, "status", existing.Status)
		return existing, nil
	}

	return s.EnqueueJob(ctx, jobType, payload, opts...)
}

func (s *service) GetJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

func (s *service) GetJobStatus(ctx context.Context, jobID uint) (models.JobStatus, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

func (s *service) ListJobsByCreator(ctx context.Context, createdBy string, limit int) ([]*models.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.GetJobsByCreator(ctx, createdBy, limit)
}

func (s *service) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	job, err := s.repo.ClaimNextJob(ctx, workerID, jobTypes)
	if err != nil {
		if errors.Is(err, ErrNoJobsAvailable) || errors.Is(err, ErrJobAlreadyClaimed) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	log.Debug("Claimed job", "worker", workerID, "type", job.Type, "job_id", job.ID, "attempt", job.RetryCount+1)

	return job, nil
}

func (s *service) UpdateProgress(ctx context.Context, jobID uint, progress int) error {
	if err := s.repo.UpdateJobProgress(ctx, jobID, progress); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("updating job progress: %w", err)
	}

	log.Debug("Job progress", "job_id", jobID, "progress", progress)

	return nil
}

func (s *service) CompleteJob(ctx context.Context, jobID uint, result models.JobResult) error {
	if err := s.repo.CompleteJob(ctx, jobID, result); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("completing job: %w", err)
	}

	log.Debug("Job completed", "job_id", jobID)

	return nil
}

// FailJob records err against the job. Structured errors keep their
// classification, anything else is treated as a retryable system error.
func (s *service) FailJob(ctx context.Context, jobID uint, err error) error {
	var structured *models.StructuredJobError
	if errors.As(err, &structured) {
		return s.FailJobWithDetails(ctx, jobID, structured.Type, structured.Code, structured.Message, structured.Details)
	}
	return s.FailJobWithDetails(ctx, jobID, models.ErrorTypeSystem, "", err.Error(), "")
}

func (s *service) FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error {
	if err := s.repo.FailJobWithDetails(ctx, jobID, errorType, errorCode, errorMsg, errorDetails); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("failing job with details: %w", err)
	}

	job, _ := s.repo.GetJob(ctx, jobID)
	if job != nil && job.IsRetryable() {
		log.Warn("Job failed, will retry",
			"job_id", jobID, "error_type", errorType, "code", errorCode,
			"retry", job.RetryCount, "max", job.MaxRetries, "error", errorMsg)
	} else {
		log.Error("Job failed permanently",
			"job_id", jobID, "error_type", errorType, "code", errorCode, "error", errorMsg)
	}

	return nil
}

func (s *service) ReleaseJob(ctx context.Context, jobID uint) error {
	if err := s.repo.ReleaseJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("releasing job: %w", err)
	}

	log.Debug("Job released back to pending", "job_id", jobID)

	return nil
}

func (s *service) RetryFailedJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job for retry: %w", err)
	}

	if !job.CanBeRetriedManually() {
		return nil, fmt.Errorf("job %d has status %s: %w", jobID, job.Status, ErrNotRetryable)
	}

	if err := s.repo.ResetJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrInvalidJobState) {
			return nil, fmt.Errorf("job %d: %w", jobID, ErrNotRetryable)
		}
		return nil, fmt.Errorf("resetting job for retry: %w", err)
	}

	updated, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("getting updated job after retry: %w", err)
	}

	log.Info("Job manually retried", "job_id", jobID, "previous_status", job.Status)

	return updated, nil
}

func (s *service) DeletePermanentlyFailedJob(ctx context.Context, jobID uint) error {
	if err := s.repo.DeletePermanentlyFailedJob(ctx, jobID); err != nil {
		return err
	}
	log.Info("Deleted permanently failed job", "job_id", jobID)
	return nil
}

// RecoverStaleJobs releases jobs whose worker has not reported back
// within staleAfter
func (s *service) RecoverStaleJobs(ctx context.Context, staleAfter time.Duration) (int64, error) {
	if staleAfter <= 0 {
		return 0, fmt.Errorf("stale threshold must be positive")
	}

	released, err := s.repo.ReleaseStaleJobs(ctx, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	if released > 0 {
		log.Warn("Recovered stale jobs", "count", released, "threshold", staleAfter)
	}
	return released, nil
}

func (s *service) CleanupOldJobs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive")
	}

	cutoffTime := time.Now().UTC().AddDate(0, 0, -retentionDays)

	deleted, err := s.repo.DeleteOldJobs(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old jobs: %w", err)
	}

	if deleted > 0 {
		log.Info("Deleted old jobs", "count", deleted, "retention_days", retentionDays)
	}

	return deleted, nil
}
