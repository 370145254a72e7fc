package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/blog-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository errors
var (
	ErrJobNotFound       = errors.New("job not found")
	ErrNoJobsAvailable   = errors.New("no jobs available")
	ErrJobAlreadyClaimed = errors.New("job already claimed")
	ErrInvalidJobState   = errors.New("job is not in a valid state for this operation")
)

// Repository defines the interface for job persistence
type Repository interface {
	// Create operations
	CreateJob(ctx context.Context, job *models.Job) error

	// Read operations
	GetJob(ctx context.Context, id uint) (*models.Job, error)
	GetJobByTypeAndPayload(ctx context.Context, jobType models.JobType, key, value string) (*models.Job, error)
	GetJobsByCreator(ctx context.Context, createdBy string, limit int) ([]*models.Job, error)
	GetJobsByStatus(ctx context.Context, status models.JobStatus, limit int) ([]*models.Job, error)

	// Update operations
	ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error)
	UpdateJobProgress(ctx context.Context, jobID uint, progress int) error
	CompleteJob(ctx context.Context, jobID uint, result models.JobResult) error
	FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error
	ReleaseJob(ctx context.Context, jobID uint) error
	ResetJob(ctx context.Context, jobID uint) error
	ReleaseStaleJobs(ctx context.Context, startedBefore time.Time) (int64, error)

	// Delete operations
	DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error)
	DeletePermanentlyFailedJob(ctx context.Context, jobID uint) error
}

// repository implements Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// CreateJob creates a new job
func (r *repository) CreateJob(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJob retrieves a job by ID
func (r *repository) GetJob(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).First(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return &job, nil
}

// GetJobByTypeAndPayload returns the newest job of jobType whose payload
// has key set to value
func (r *repository) GetJobByTypeAndPayload(ctx context.Context, jobType models.JobType, key, value string) (*models.Job, error) {
	var job models.Job

	err := r.db.WithContext(ctx).
		Where("type = ?", jobType).
		Where("json_extract(payload, ?) = ?", "$."+key, value).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job by type and payload: %w", err)
	}

	return &job, nil
}

// GetJobsByCreator lists a user's jobs, newest first
func (r *repository) GetJobsByCreator(ctx context.Context, createdBy string, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	query := r.db.WithContext(ctx).
		Where("created_by = ?", createdBy).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// GetJobsByStatus retrieves jobs by status
func (r *repository) GetJobsByStatus(ctx context.Context, status models.JobStatus, limit int) ([]*models.Job, error) {
	var jobs []*models.Job
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&jobs).Error
	return jobs, err
}

// ClaimNextJob atomically claims the next available job for a worker.
// Retry counts are owned by FailJobWithDetails, so claiming a failed job
// does not touch them.
func (r *repository) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	var job models.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("(status = ? OR (status = ? AND retry_count < max_retries))",
				models.JobStatusPending, models.JobStatusFailed)

		if len(jobTypes) > 0 {
			query = query.Where("type IN ?", jobTypes)
		}

		err := query.Order("priority DESC, created_at ASC").
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoJobsAvailable
			}
			return fmt.Errorf("finding job to claim: %w", err)
		}

		now := time.Now().UTC()
		result := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", job.ID, job.Status).
			Updates(map[string]any{
				"status":     models.JobStatusProcessing,
				"worker_id":  workerID,
				"started_at": &now,
				"progress":   0,
			})
		if result.Error != nil {
			return fmt.Errorf("updating claimed job: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrJobAlreadyClaimed
		}

		job.Status = models.JobStatusProcessing
		job.WorkerID = workerID
		job.StartedAt = &now
		job.Progress = 0
		return nil
	})

	if err != nil {
		return nil, err
	}

	return &job, nil
}

// UpdateJobProgress updates the progress of a job
func (r *repository) UpdateJobProgress(ctx context.Context, jobID uint, progress int) error {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
		Update("progress", progress)

	if result.Error != nil {
		return fmt.Errorf("updating job progress: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// CompleteJob marks a job as completed with a result
func (r *repository) CompleteJob(ctx context.Context, jobID uint, result models.JobResult) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":       models.JobStatusCompleted,
		"progress":     100,
		"completed_at": &now,
		"result":       result,
		"worker_id":    "",
	}

	res := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(updates)

	if res.Error != nil {
		return fmt.Errorf("completing job: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// FailJobWithDetails records a failed attempt. The job becomes
// permanently failed once its retries run out or when errorType is not
// retryable.
func (r *repository) FailJobWithDetails(ctx context.Context, jobID uint, errorType models.JobErrorType, errorCode, errorMsg, errorDetails string) error {
	now := time.Now().UTC()

	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("finding job to fail: %w", err)
	}

	newRetryCount := job.RetryCount + 1

	status := models.JobStatusFailed
	if newRetryCount >= job.MaxRetries || !errorType.Retryable() {
		status = models.JobStatusPermanentlyFailed
	}

	updates := map[string]any{
		"status":         status,
		"error":          errorMsg,
		"error_type":     string(errorType),
		"error_code":     errorCode,
		"error_details":  errorDetails,
		"last_failed_at": &now,
		"retry_count":    newRetryCount,
		"worker_id":      "",
	}

	if status == models.JobStatusPermanentlyFailed {
		updates["completed_at"] = &now
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failing job: %w", err)
	}

	return nil
}

// ReleaseJob hands a processing job back to the queue, e.g. on shutdown
func (r *repository) ReleaseJob(ctx context.Context, jobID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusProcessing).
		Updates(map[string]any{
			"status":     models.JobStatusPending,
			"worker_id":  "",
			"started_at": nil,
			"progress":   0,
		})

	if result.Error != nil {
		return fmt.Errorf("releasing job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}

	return nil
}

// ResetJob puts a failed job back to pending with a fresh retry budget
func (r *repository) ResetJob(ctx context.Context, jobID uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status IN ?", jobID, []models.JobStatus{models.JobStatusFailed, models.JobStatusPermanentlyFailed}).
		Updates(map[string]any{
			"status":        models.JobStatusPending,
			"retry_count":   0,
			"progress":      0,
			"worker_id":     "",
			"started_at":    nil,
			"completed_at":  nil,
			"error":         "",
			"error_type":    "",
			"error_code":    "",
			"error_details": "",
		})

	if result.Error != nil {
		return fmt.Errorf("resetting job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrInvalidJobState
	}

	return nil
}

// ReleaseStaleJobs returns jobs stuck in processing since before
// startedBefore to pending, e.g. after a crash
func (r *repository) ReleaseStaleJobs(ctx context.Context, startedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ? AND started_at < ?", models.JobStatusProcessing, startedBefore).
		Updates(map[string]any{
			"status":     models.JobStatusPending,
			"worker_id":  "",
			"started_at": nil,
			"progress":   0,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("releasing stale jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOldJobs deletes finished jobs older than the specified time
func (r *repository) DeleteOldJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Where("status IN ?", []models.JobStatus{
			models.JobStatusCompleted,
			models.JobStatusPermanentlyFailed,
			models.JobStatusCancelled,
		}).
		Delete(&models.Job{})

	if result.Error != nil {
		return 0, fmt.Errorf("deleting old jobs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// DeletePermanentlyFailedJob removes a job only if it is permanently failed
func (r *repository) DeletePermanentlyFailedJob(ctx context.Context, jobID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", jobID, models.JobStatusPermanentlyFailed).
		Delete(&models.Job{})

	if result.Error != nil {
		return fmt.Errorf("deleting job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrInvalidJobState
	}

	return nil
}
