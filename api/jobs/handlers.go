package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/models"
	jobsService "github.com/killallgit/blog-api/internal/services/jobs"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

// loadOwnedJob fetches the job in the id param and checks that the
// caller queued it. Other users' jobs are reported as missing.
func loadOwnedJob(c *gin.Context, deps *types.Dependencies) (*models.Job, bool) {
	id, ok := types.ParseUintParam(c, "id")
	if !ok {
		return nil, false
	}

	job, err := deps.JobService.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, jobsService.ErrJobNotFound) {
			types.SendNotFound(c, "Job not found")
			return nil, false
		}
		types.SendAppError(c, err)
		return nil, false
	}

	if job.CreatedBy != types.UserID(c) {
		types.SendNotFound(c, "Job not found")
		return nil, false
	}
	return job, true
}

// GetJob returns the status of a generation job
// @Summary      Get job status
// @Description  Returns progress, result and error of a job queued by the caller
// @Tags         jobs
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path int true "Job ID"
// @Success      200 {object} types.JobResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/jobs/{id} [get]
func GetJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadOwnedJob(c, deps)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, types.NewJobResponse(job))
	}
}

// ListJobs returns the caller's most recent jobs
// @Summary      List my jobs
// @Tags         jobs
// @Produce      json
// @Security     ApiKeyAuth
// @Param        limit query int false "Maximum number of jobs (default 20, max 100)"
// @Success      200 {object} types.JobsResponse
// @Router       /api/v1/jobs [get]
func ListJobs(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := deps.JobService.ListJobsByCreator(c.Request.Context(), types.UserID(c), types.QueryInt(c, "limit", 20))
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		resp := types.JobsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Jobs:         make([]types.JobResponse, 0, len(jobs)),
		}
		for _, job := range jobs {
			resp.Jobs = append(resp.Jobs, types.NewJobResponse(job))
		}
		resp.Count = len(resp.Jobs)
		c.JSON(http.StatusOK, resp)
	}
}

// RetryJob puts a failed job back on the queue
// @Summary      Retry a failed job
// @Tags         jobs
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id path int true "Job ID"
// @Success      202 {object} types.JobResponse
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Job has not failed"
// @Router       /api/v1/jobs/{id}/retry [post]
func RetryJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadOwnedJob(c, deps)
		if !ok {
			return
		}

		updated, err := deps.JobService.RetryFailedJob(c.Request.Context(), job.ID)
		if err != nil {
			if errors.Is(err, jobsService.ErrNotRetryable) {
				types.SendAppError(c, apperrors.New(apperrors.ErrCodeConflict, "Only failed jobs can be retried").
					WithDetail("status", string(job.Status)))
				return
			}
			types.SendAppError(c, err)
			return
		}

		resp := types.NewJobResponse(updated)
		resp.Message = "Job queued for retry"
		c.JSON(http.StatusAccepted, resp)
	}
}

// DeleteJob removes a permanently failed job
// @Summary      Delete a permanently failed job
// @Tags         jobs
// @Security     ApiKeyAuth
// @Param        id path int true "Job ID"
// @Success      204
// @Failure      404 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse "Job is not permanently failed"
// @Router       /api/v1/jobs/{id} [delete]
func DeleteJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := loadOwnedJob(c, deps)
		if !ok {
			return
		}

		if err := deps.JobService.DeletePermanentlyFailedJob(c.Request.Context(), job.ID); err != nil {
			if errors.Is(err, jobsService.ErrInvalidJobState) {
				types.SendAppError(c, apperrors.New(apperrors.ErrCodeConflict, "Only permanently failed jobs can be deleted"))
				return
			}
			types.SendAppError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
