package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/jobs"
	"github.com/killallgit/blog-api/internal/services/pipeline"
	"github.com/killallgit/blog-api/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context, descriptor any, userID string, opts ...pipeline.RunOption) pipeline.Result {
	args := m.Called(ctx, descriptor, userID)
	return args.Get(0).(pipeline.Result)
}

type funcProcessor struct {
	calls atomic.Int32
	fn    func(ctx context.Context, job *models.Job) error
}

func (p *funcProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypePostGeneration
}

func (p *funcProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	p.calls.Add(1)
	return p.fn(ctx, job)
}

func newJobService(t *testing.T) jobs.Service {
	t.Helper()
	db := testsupport.MustOpenDB(t)
	return jobs.NewService(jobs.NewRepository(db.DB))
}

func TestWorkerProcessNextJob(t *testing.T) {
	ctx := context.Background()
	svc := newJobService(t)

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)

	processor := &funcProcessor{fn: func(ctx context.Context, j *models.Job) error {
		return svc.CompleteJob(ctx, j.ID, models.JobResult{"ok": true})
	}}

	w := NewWorker("w1", svc, time.Hour)
	w.RegisterProcessor(processor)

	require.NoError(t, w.processNextJob(ctx))
	assert.Equal(t, int32(1), processor.calls.Load())

	status, err := svc.GetJobStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status)

	// empty queue is not an error
	require.NoError(t, w.processNextJob(ctx))
}

func TestWorkerFailsJob(t *testing.T) {
	ctx := context.Background()
	svc := newJobService(t)

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)

	w := NewWorker("w1", svc, time.Hour)
	w.RegisterProcessor(&funcProcessor{fn: func(context.Context, *models.Job) error {
		return errors.New("transient")
	}})

	assert.Error(t, w.processNextJob(ctx))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, 1, got.RetryCount)
}

func TestWorkerWithoutProcessors(t *testing.T) {
	w := NewWorker("w1", newJobService(t), time.Hour)
	assert.Error(t, w.processNextJob(context.Background()))
}

func TestWorkerPoolRunsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newJobService(t)

	job, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, models.JobPayload{})
	require.NoError(t, err)

	processor := &funcProcessor{fn: func(ctx context.Context, j *models.Job) error {
		return svc.CompleteJob(ctx, j.ID, nil)
	}}

	pool := NewWorkerPool(svc, 2, 10*time.Millisecond, WithJobTimeout(time.Second))
	pool.RegisterProcessor(processor)
	assert.Equal(t, 2, pool.Size())

	require.NoError(t, pool.Start(ctx))
	assert.Error(t, pool.Start(ctx))

	assert.Eventually(t, func() bool {
		status, err := svc.GetJobStatus(ctx, job.ID)
		return err == nil && status == models.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	pool.Stop()
	pool.Stop()
	assert.Equal(t, int32(1), processor.calls.Load())
}

func claimedJob(t *testing.T, svc jobs.Service, payload models.JobPayload) *models.Job {
	t.Helper()
	ctx := context.Background()
	_, err := svc.EnqueueJob(ctx, models.JobTypePostGeneration, payload, jobs.WithCreatedBy("creator"))
	require.NoError(t, err)
	job, err := svc.ClaimNextJob(ctx, "w", nil)
	require.NoError(t, err)
	return job
}

func TestPostGenerationProcessorSuccess(t *testing.T) {
	ctx := context.Background()
	svc := newJobService(t)

	descriptor := map[string]any{"url": "https://files.example.com/a.mp3"}
	job := claimedJob(t, svc, models.JobPayload{PayloadDescriptor: descriptor, PayloadUserID: "user-1"})

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything, descriptor, "user-1").
		Return(pipeline.Result{Success: true, PostID: "post-1", Source: "speechflow"})

	processor := NewPostGenerationProcessor(svc, runner)
	assert.True(t, processor.CanProcess(models.JobTypePostGeneration))
	assert.False(t, processor.CanProcess(models.JobType("other")))

	require.NoError(t, processor.ProcessJob(ctx, job))

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "post-1", got.Result["postId"])
	assert.Equal(t, "speechflow", got.Result["transcriptSource"])
	runner.AssertExpectations(t)
}

func TestPostGenerationProcessorFallsBackToCreator(t *testing.T) {
	svc := newJobService(t)
	job := claimedJob(t, svc, models.JobPayload{PayloadDescriptor: map[string]any{"url": "x"}})

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything, mock.Anything, "creator").
		Return(pipeline.Result{Success: true, PostID: "post-2"})

	require.NoError(t, NewPostGenerationProcessor(svc, runner).ProcessJob(context.Background(), job))
	runner.AssertExpectations(t)
}

func TestPostGenerationProcessorFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc := newJobService(t)
	job := claimedJob(t, svc, models.JobPayload{PayloadDescriptor: map[string]any{}, PayloadUserID: "user-1"})

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything, mock.Anything, "user-1").Return(pipeline.Result{
		Message: pipeline.MsgGeneration,
		Stage:   pipeline.StageGenerate,
		Err:     errors.New("empty output"),
	})

	w := NewWorker("w1", svc, time.Hour)
	w.RegisterProcessor(NewPostGenerationProcessor(svc, runner))

	err := w.processJob(ctx, job)
	require.Error(t, err)

	var structured *models.StructuredJobError
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, models.ErrorTypePipeline, structured.Type)

	got, err := svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPermanentlyFailed, got.Status)
	assert.Equal(t, pipeline.MsgGeneration, got.Error)
	assert.Equal(t, pipeline.StageGenerate, got.ErrorCode)
	assert.Equal(t, "empty output", got.ErrorDetails)
}

// failingCompletion wraps a job service whose CompleteJob always fails
type failingCompletion struct {
	jobs.Service
}

func (f failingCompletion) CompleteJob(context.Context, uint, models.JobResult) error {
	return errors.New("database is locked")
}

func TestShutdownAfterPostSavedCompletesJob(t *testing.T) {
	svc := newJobService(t)
	job := claimedJob(t, svc, models.JobPayload{PayloadDescriptor: map[string]any{"url": "x"}, PayloadUserID: "user-1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything, mock.Anything, "user-1").
		Run(func(mock.Arguments) { cancel() }).
		Return(pipeline.Result{Success: true, PostID: "post-1", Stage: pipeline.StageDone})

	w := NewWorker("w1", svc, time.Hour)
	w.RegisterProcessor(NewPostGenerationProcessor(svc, runner))

	require.NoError(t, w.processJob(ctx, job))

	got, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "post-1", got.Result["postId"])
}

func TestShutdownAfterPostSavedNeverRequeues(t *testing.T) {
	svc := newJobService(t)
	job := claimedJob(t, svc, models.JobPayload{PayloadDescriptor: map[string]any{"url": "x"}, PayloadUserID: "user-1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything, mock.Anything, "user-1").
		Run(func(mock.Arguments) { cancel() }).
		Return(pipeline.Result{Success: true, PostID: "post-1", Stage: pipeline.StageDone})

	w := NewWorker("w1", svc, time.Hour)
	w.RegisterProcessor(NewPostGenerationProcessor(failingCompletion{svc}, runner))

	require.Error(t, w.processJob(ctx, job))

	got, err := svc.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPermanentlyFailed, got.Status)
	assert.Equal(t, pipeline.StageDone, got.ErrorCode)
}

func TestShutdownMidRunReleasesJob(t *testing.T) {
	svc := newJobService(t)
	job := claimedJob(t, svc, models.JobPayload{PayloadDescriptor: map[string]any{"url": "x"}, PayloadUserID: "user-1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := new(MockPipelineRunner)
	runner.On("Run", mock.Anything, mock.Anything, "user-1").
		Run(func(mock.Arguments) { cancel() }).
		Return(pipeline.Result{Message: pipeline.MsgTranscription, Stage: pipeline.StageTranscribe, Err: context.Canceled})

	w := NewWorker("w1", svc, time.Hour)
	w.RegisterProcessor(NewPostGenerationProcessor(svc, runner))

	require.NoError(t, w.processJob(ctx, job))

	status, err := svc.GetJobStatus(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, status)
}
