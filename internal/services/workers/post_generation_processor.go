package workers

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/jobs"
	"github.com/killallgit/blog-api/internal/services/pipeline"
)

// Payload keys of a post_generation job
const (
	PayloadDescriptor = "descriptor"
	PayloadUserID     = "userId"
)

// PipelineRunner runs the post generation pipeline
type PipelineRunner interface {
	Run(ctx context.Context, descriptor any, userID string, opts ...pipeline.RunOption) pipeline.Result
}

// PostGenerationProcessor runs queued post generations through the pipeline
type PostGenerationProcessor struct {
	jobService jobs.Service
	runner     PipelineRunner
}

// NewPostGenerationProcessor creates a processor for post_generation jobs
func NewPostGenerationProcessor(jobService jobs.Service, runner PipelineRunner) *PostGenerationProcessor {
	return &PostGenerationProcessor{
		jobService: jobService,
		runner:     runner,
	}
}

// CanProcess returns true for post_generation jobs
func (p *PostGenerationProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypePostGeneration
}

// ProcessJob runs the pipeline for the job's descriptor. A failed result
// becomes a pipeline error, which the queue never retries.
func (p *PostGenerationProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	userID, _ := job.GetPayloadString(PayloadUserID)
	if userID == "" {
		userID = job.CreatedBy
	}
	descriptor, _ := job.GetPayloadValue(PayloadDescriptor)

	logger := log.With("job_id", job.ID, "user_id", userID)
	logger.Info("Processing post generation job")

	progress := func(stage string, percent int) {
		if err := p.jobService.UpdateProgress(ctx, job.ID, percent); err != nil {
			logger.Warn("Failed to update job progress", "stage", stage, "error", err)
		}
	}

	result := p.runner.Run(ctx, descriptor, userID, pipeline.WithProgress(progress))
	if !result.Success {
		details := ""
		if result.Err != nil {
			details = result.Err.Error()
		}
		return models.NewPipelineError(result.Stage, result.Message, details)
	}

	jobResult := models.JobResult{
		"success": true,
		"postId":  result.PostID,
	}
	if result.Source != "" {
		jobResult["transcriptSource"] = result.Source
	}

	// the post is committed, so completion must outlive a shutdown signal
	if err := p.jobService.CompleteJob(context.WithoutCancel(ctx), job.ID, jobResult); err != nil {
		// the post exists, so a retry would duplicate it
		return models.NewPipelineError(pipeline.StageDone, fmt.Sprintf("Post %s was created but the job could not be completed", result.PostID), err.Error())
	}

	logger.Info("Post generation job complete", "post_id", result.PostID)
	return nil
}
