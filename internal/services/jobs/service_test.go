package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := testsupport.MustOpenDB(t)
	repo := NewRepository(db.DB)
	return NewService(repo), repo
}

func TestEnqueueAndClaim(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	low, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{"userId": "u1"})
	require.NoError(t, err)
	high, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{"userId": "u2"},
		WithPriority(5), WithCreatedBy("u2"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxRetries, low.MaxRetries)
	assert.Equal(t, "u2", high.CreatedBy)

	claimed, err := svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypePostGeneration})
	require.NoError(t, err)
	assert.Equal(t, high.ID, claimed.ID)
	assert.Equal(t, models.JobStatusProcessing, claimed.Status)
	assert.Equal(t, "worker-1", claimed.WorkerID)
	assert.Equal(t, 0, claimed.RetryCount)

	claimed, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypePostGeneration})
	require.NoError(t, err)
	assert.Equal(t, low.ID, claimed.ID)

	_, err = svc.ClaimNextJob(ctx, "worker-1", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestClaimNextJobFiltersByType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnqueueJob(ctx, models.JobType("other"), models.JobPayload{})
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypePostGeneration})
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestEnqueueUniqueJob(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnqueueUniqueJob(ctx, models.JobTypePostGeneration, models.JobPayload{"fileUrl": "https://x/a.mp3"}, "fileUrl")
	require.NoError(t, err)

	second, err := svc.EnqueueUniqueJob(ctx, models.JobTypePostGeneration, models.JobPayload{"fileUrl": "https://x/a.mp3"}, "fileUrl")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.EnqueueUniqueJob(ctx, models.JobTypePostGeneration, models.JobPayload{}, "fileUrl")
	assert.Error(t, err)
}

func TestProgressAndComplete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)

	// progress only applies to claimed jobs
	assert.ErrorIs(t, svc.UpdateProgress(ctx, job.ID, 10), ErrJobNotFound)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateProgress(ctx, job.ID, 150))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)

	require.NoError(t, svc.CompleteJob(ctx, job.ID, models.JobResult{"postId": "p1"}))

	got, err = svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "p1", got.Result["postId"])
	assert.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.WorkerID)
}

func TestFailJobCountsEachAttemptOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{}, WithMaxRetries(2))
	require.NoError(t, err)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.FailJob(ctx, job.ID, errors.New("boom")))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, string(models.ErrorTypeSystem), got.ErrorType)

	claimed, err := svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed.RetryCount)

	require.NoError(t, svc.FailJob(ctx, job.ID, errors.New("boom again")))

	got, err = svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPermanentlyFailed, got.Status)
	assert.Equal(t, 2, got.RetryCount)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	assert.ErrorIs(t, err, ErrNoJobsAvailable)
}

func TestFailJobPipelineErrorIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)

	pipelineErr := models.NewPipelineError("generate", "Blog post generation failed", "empty output")
	require.NoError(t, svc.FailJob(ctx, job.ID, pipelineErr))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPermanentlyFailed, got.Status)
	assert.Equal(t, "Blog post generation failed", got.Error)
	assert.Equal(t, "generate", got.ErrorCode)
	assert.Equal(t, "empty output", got.ErrorDetails)
	assert.Equal(t, string(models.ErrorTypePipeline), got.ErrorType)
}

func TestRetryFailedJob(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)

	_, err = svc.RetryFailedJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrNotRetryable)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.FailJobWithDetails(ctx, job.ID, models.ErrorTypePipeline, "generate", "failed", ""))

	retried, err := svc.RetryFailedJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, retried.Status)
	assert.Equal(t, 0, retried.RetryCount)
	assert.Empty(t, retried.Error)
	assert.Nil(t, retried.CompletedAt)

	_, err = svc.RetryFailedJob(ctx, 9999)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestReleaseJob(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ReleaseJob(ctx, job.ID), ErrJobNotFound)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseJob(ctx, job.ID))

	status, err := svc.GetJobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, status)
}

func TestDeletePermanentlyFailedJob(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeletePermanentlyFailedJob(ctx, job.ID), ErrInvalidJobState)

	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.FailJobWithDetails(ctx, job.ID, models.ErrorTypeNotFound, "", "gone", ""))

	require.NoError(t, svc.DeletePermanentlyFailedJob(ctx, job.ID))
	_, err = svc.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRecoverStaleJobs(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)

	released, err := svc.RecoverStaleJobs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, released)

	released, err = repo.ReleaseStaleJobs(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	status, err := svc.GetJobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, status)
}

func TestCleanupOldJobs(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.CleanupOldJobs(ctx, 0)
	assert.Error(t, err)

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)
	_, err = svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	require.NoError(t, svc.CompleteJob(ctx, job.ID, nil))

	deleted, err := svc.CleanupOldJobs(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = repo.DeleteOldJobs(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestListJobsByCreator(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for range 3 {
		_, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{}, WithCreatedBy("u1"))
		require.NoError(t, err)
	}
	_, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{}, WithCreatedBy("u2"))
	require.NoError(t, err)

	jobs, err := svc.ListJobsByCreator(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
}
