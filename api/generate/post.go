package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/api/types"
	"github.com/killallgit/blog-api/internal/models"
	"github.com/killallgit/blog-api/internal/services/jobs"
	"github.com/killallgit/blog-api/internal/services/pipeline"
	"github.com/killallgit/blog-api/internal/services/workers"
	apperrors "github.com/killallgit/blog-api/pkg/errors"
)

// readDescriptor returns the upload descriptor from a JSON body or from
// the descriptor/url fields of a form. An empty body yields nil.
func readDescriptor(c *gin.Context) (any, error) {
	contentType := c.ContentType()
	if contentType == "multipart/form-data" || contentType == "application/x-www-form-urlencoded" {
		if raw := strings.TrimSpace(c.PostForm("descriptor")); raw != "" {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return nil, apperrors.ValidationError("descriptor", "must be JSON")
			}
			return v, nil
		}
		if u := strings.TrimSpace(c.PostForm("url")); u != "" {
			return map[string]any{"url": u}, nil
		}
		return nil, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.ValidationError("body", "too large")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "Failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, apperrors.ValidationError("body", "must be JSON")
	}
	return v, nil
}

// checkPlan enforces the Basic plan post quota
func checkPlan(c *gin.Context, deps *types.Dependencies, userID string) bool {
	if deps.UserService == nil {
		return true
	}
	plan, err := deps.UserService.GetPlanInfo(c.Request.Context(), userID)
	if err != nil {
		types.SendAppError(c, err)
		return false
	}
	if !plan.CanGenerate() {
		types.SendAppError(c, apperrors.PlanLimitError(plan.PlanTypeName, plan.PostLimit, "posts"))
		return false
	}
	return true
}

// Post generates a blog post from an uploaded media file
// @Summary      Generate a post from uploaded media
// @Description  Probes, normalizes and transcribes the uploaded file, then writes a draft post. With async=true the work is queued and a job id is returned.
// @Tags         posts
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Security     ApiKeyAuth
// @Param        async query bool false "Queue the generation instead of waiting for it"
// @Param        descriptor body object true "Upload provider response"
// @Success      200 {object} types.GenerateResponse
// @Success      202 {object} types.JobResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      401 {object} types.ErrorResponse
// @Failure      403 {object} types.ErrorResponse "Plan limit reached"
// @Failure      422 {object} types.GenerateResponse "Pipeline failure"
// @Router       /api/v1/posts/generate [post]
func Post(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := types.UserID(c)
		if userID == "" {
			types.SendUnauthorized(c, pipeline.MsgUnauthenticated)
			return
		}

		descriptor, err := readDescriptor(c)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		if !checkPlan(c, deps, userID) {
			return
		}

		if c.Query("async") == "true" {
			enqueue(c, deps, descriptor, userID)
			return
		}

		if deps.Pipeline == nil {
			types.SendInternalError(c, "Post generation is not configured")
			return
		}

		ctx := c.Request.Context()
		if deps.GenerateTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.GenerateTimeout)
			defer cancel()
		}

		result := deps.Pipeline.Run(ctx, descriptor, userID)
		response := types.GenerateResponse{
			Success: result.Success,
			PostID:  result.PostID,
			Message: result.Message,
		}
		if !result.Success {
			c.JSON(http.StatusUnprocessableEntity, response)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func enqueue(c *gin.Context, deps *types.Dependencies, descriptor any, userID string) {
	if !deps.AsyncGeneration || deps.JobService == nil {
		types.SendBadRequest(c, "Asynchronous generation is disabled")
		return
	}

	// Malformed descriptors are rejected up front instead of becoming failed jobs
	if _, err := pipeline.ExtractFileURL(descriptor); err != nil {
		var malformed *pipeline.MalformedInputError
		if errors.As(err, &malformed) {
			types.SendBadRequest(c, malformed.Message)
			return
		}
		types.SendBadRequest(c, pipeline.MsgMissingFileURL)
		return
	}

	job, err := deps.JobService.EnqueueJob(c.Request.Context(), models.JobTypePostGeneration, models.JobPayload{
		workers.PayloadDescriptor: descriptor,
		workers.PayloadUserID:     userID,
	}, jobs.WithCreatedBy(userID))
	if err != nil {
		log.Error("failed to enqueue post generation", "user_id", userID, "error", err)
		types.SendInternalError(c, "Failed to queue post generation")
		return
	}

	resp := types.NewJobResponse(job)
	resp.Message = "Post generation queued"
	c.Header("Location", "/api/v1/jobs/"+jobIDString(job.ID))
	c.JSON(http.StatusAccepted, resp)
}
