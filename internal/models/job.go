package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// JobStatus represents the status of a job in the queue
type JobStatus string

const (
	JobStatusPending           JobStatus = "pending"
	JobStatusProcessing        JobStatus = "processing"
	JobStatusCompleted         JobStatus = "completed"
	JobStatusFailed            JobStatus = "failed"
	JobStatusPermanentlyFailed JobStatus = "permanently_failed"
	JobStatusCancelled         JobStatus = "cancelled"
)

// JobType represents the type of job to be processed
type JobType string

const (
	JobTypePostGeneration JobType = "post_generation"
)

// JobErrorType represents the category of error that occurred
type JobErrorType string

const (
	ErrorTypeDownload   JobErrorType = "download"   // Uploaded media could not be fetched
	ErrorTypeProcessing JobErrorType = "processing" // Normalization or generation failed
	ErrorTypeSystem     JobErrorType = "system"     // Database, worker, or other system error
	ErrorTypeNotFound   JobErrorType = "not_found"  // Resource permanently not found
	ErrorTypePipeline   JobErrorType = "pipeline"   // Pipeline reported a failure result, never retried
)

// Retryable reports whether a failure of this type may succeed on a later attempt
func (t JobErrorType) Retryable() bool {
	switch t {
	case ErrorTypePipeline, ErrorTypeNotFound:
		return false
	default:
		return true
	}
}

// StructuredJobError represents a structured error with classification information
type StructuredJobError struct {
	Type     JobErrorType
	Code     string
	Message  string
	Details  string
	Original error
}

func (e *StructuredJobError) Error() string {
	return e.Message
}

// NewSystemError creates a system-related structured error
func NewSystemError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{
		Type:     ErrorTypeSystem,
		Code:     code,
		Message:  message,
		Details:  details,
		Original: originalErr,
	}
}

// NewPipelineError wraps a failed pipeline result. The message is the
// user-facing one; details carry the internal cause.
func NewPipelineError(stage, message, details string) *StructuredJobError {
	return &StructuredJobError{
		Type:    ErrorTypePipeline,
		Code:    stage,
		Message: message,
		Details: details,
	}
}

func (e *StructuredJobError) Unwrap() error {
	return e.Original
}

// Job represents a background job in the queue
type Job struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	Type         JobType        `json:"type" gorm:"not null;index:idx_jobs_type_status"`
	Status       JobStatus      `json:"status" gorm:"default:'pending';index:idx_jobs_status_priority"`
	Payload      JobPayload     `json:"payload" gorm:"type:json"`
	Priority     int            `json:"priority" gorm:"default:0;index:idx_jobs_status_priority"`
	MaxRetries   int            `json:"maxRetries" gorm:"default:3"`
	RetryCount   int            `json:"retryCount" gorm:"default:0"`
	Progress     int            `json:"progress" gorm:"default:0"` // 0-100
	StartedAt    *time.Time     `json:"startedAt"`
	CompletedAt  *time.Time     `json:"completedAt"`
	LastFailedAt *time.Time     `json:"lastFailedAt"`
	Error        string         `json:"error,omitempty"`
	Result       JobResult      `json:"result,omitempty" gorm:"type:json"`
	WorkerID     string         `json:"workerId,omitempty"` // ID of the worker processing this job

	// Error classification fields
	ErrorType    string `json:"errorType,omitempty"`    // "download", "processing", "system", "pipeline"
	ErrorCode    string `json:"errorCode,omitempty"`    // failing stage or provider code
	ErrorDetails string `json:"errorDetails,omitempty"` // Technical details for debugging

	// Metadata
	CreatedBy string `json:"createdBy,omitempty"` // User who requested the job
}

// JobPayload represents the input data for a job
type JobPayload map[string]any

// Value implements driver.Valuer interface for JobPayload
func (p JobPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for JobPayload
func (p *JobPayload) Scan(value any) error {
	*p = make(JobPayload)
	return scanJSON(value, (*map[string]any)(p))
}

// JobResult represents the output data from a completed job
type JobResult map[string]any

// Value implements driver.Valuer interface for JobResult
func (r JobResult) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for JobResult
func (r *JobResult) Scan(value any) error {
	*r = make(JobResult)
	return scanJSON(value, (*map[string]any)(r))
}

// Helper methods

// IsRetryable returns true if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// CanRetryNow returns true if the job can be retried now (considering retry delay)
func (j *Job) CanRetryNow(minDelay time.Duration) bool {
	if !j.IsRetryable() {
		return false
	}

	// If never failed, can retry immediately
	if j.LastFailedAt == nil {
		return true
	}

	// Check if enough time has passed since last failure
	// Use exponential backoff: minDelay * 2^(retryCount)
	backoffDelay := minDelay * time.Duration(1<<uint(j.RetryCount))
	return time.Since(*j.LastFailedAt) >= backoffDelay
}

// CanProcess returns true if the job is ready to be processed
func (j *Job) CanProcess() bool {
	return j.Status == JobStatusPending
}

// IsTerminal returns true if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted ||
		j.Status == JobStatusCancelled ||
		j.Status == JobStatusPermanentlyFailed ||
		(j.Status == JobStatusFailed && !j.IsRetryable())
}

// GetPayloadValue safely retrieves a value from the payload
func (j *Job) GetPayloadValue(key string) (any, bool) {
	if j.Payload == nil {
		return nil, false
	}
	val, ok := j.Payload[key]
	return val, ok
}

// GetPayloadString safely retrieves a string value from the payload
func (j *Job) GetPayloadString(key string) (string, bool) {
	val, ok := j.GetPayloadValue(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetPayloadInt safely retrieves an int value from the payload
func (j *Job) GetPayloadInt(key string) (int, bool) {
	val, ok := j.GetPayloadValue(key)
	if !ok {
		return 0, false
	}

	// Handle both int and float64 (JSON numbers are decoded as float64)
	switch v := val.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// SetResult sets a result value
func (j *Job) SetResult(key string, value any) {
	if j.Result == nil {
		j.Result = make(JobResult)
	}
	j.Result[key] = value
}

// IsPermanentlyFailed returns true if the job has permanently failed
func (j *Job) IsPermanentlyFailed() bool {
	return j.Status == JobStatusPermanentlyFailed
}

// CanBeRetriedManually returns true if the job can be manually retried
func (j *Job) CanBeRetriedManually() bool {
	return j.Status == JobStatusFailed || j.Status == JobStatusPermanentlyFailed
}

// SetErrorDetails sets error classification information
func (j *Job) SetErrorDetails(errorType JobErrorType, errorCode, errorMsg, errorDetails string) {
	j.ErrorType = string(errorType)
	j.ErrorCode = errorCode
	j.Error = errorMsg
	j.ErrorDetails = errorDetails
}

// TableName specifies the table name for GORM
func (Job) TableName() string {
	return "jobs"
}
