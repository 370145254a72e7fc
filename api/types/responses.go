package types

import (
	"github.com/killallgit/blog-api/internal/models"
)

// Status constants for API responses
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
	StatusQueued     = "queued"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`            // One of the Status constants above
	Message string `json:"message,omitempty"` // Human-readable message
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`   // Error code/type
	Details any    `json:"details,omitempty"` // Additional error details
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	BaseResponse
	Timestamp string         `json:"timestamp"`
	Database  map[string]any `json:"database"`
	Workers   int            `json:"workers,omitempty"`
}

// GenerateResponse is the synchronous outcome of post generation
type GenerateResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
	Message string `json:"message,omitempty"`
}

// JobResponse for async job status
type JobResponse struct {
	BaseResponse
	JobID     uint             `json:"jobId"`
	Type      models.JobType   `json:"type"`
	JobStatus models.JobStatus `json:"jobStatus"`
	Progress  int              `json:"progress"` // 0-100
	Result    models.JobResult `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"errorType,omitempty"`
	Retries   int              `json:"retryCount"`
}

// NewJobResponse maps a queue job to its API shape
func NewJobResponse(job *models.Job) JobResponse {
	status := StatusProcessing
	switch job.Status {
	case models.JobStatusPending:
		status = StatusQueued
	case models.JobStatusCompleted:
		status = StatusOK
	case models.JobStatusFailed, models.JobStatusPermanentlyFailed, models.JobStatusCancelled:
		status = StatusFailed
	}

	return JobResponse{
		BaseResponse: BaseResponse{Status: status},
		JobID:        job.ID,
		Type:         job.Type,
		JobStatus:    job.Status,
		Progress:     job.Progress,
		Result:       job.Result,
		Error:        job.Error,
		ErrorType:    job.ErrorType,
		Retries:      job.RetryCount,
	}
}

// JobsResponse lists a user's jobs
type JobsResponse struct {
	BaseResponse
	Jobs  []JobResponse `json:"jobs"`
	Count int           `json:"count"`
}

// PostsResponse is a page of posts
type PostsResponse struct {
	BaseResponse
	Posts []models.Post `json:"posts"`
	Count int           `json:"count"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// SitesResponse lists a user's sites
type SitesResponse struct {
	BaseResponse
	Sites []models.Site `json:"sites"`
	Count int           `json:"count"`
}

// CommentsResponse lists the comment threads of a post
type CommentsResponse struct {
	BaseResponse
	Comments []models.Comment `json:"comments"`
	Count    int              `json:"count"`
}
