package pipeline

import (
	"errors"
	"fmt"

	"github.com/killallgit/blog-api/internal/services/media"
)

// User-facing failure messages, one per stage
const (
	MsgNilDescriptor    = "Upload response is null or undefined"
	MsgMissingFileURL   = "File URL is missing in the upload response"
	MsgUnreachableMedia = media.UnreachableMediaMessage
	MsgNormalization    = "Failed to process the uploaded file"
	MsgTranscription    = "Transcription failed. Please try again or contact support if the issue persists."
	MsgGeneration       = "Blog post generation failed"
	MsgPersistence      = "Failed to save blog post"
	MsgUnexpected       = "An unexpected error occurred"
	MsgUnauthenticated  = "User is not authenticated"
)

// Stage names reported in results and job errors
const (
	StageInput      = "input"
	StageProbe      = "probe"
	StageNormalize  = "normalize"
	StageTranscribe = "transcribe"
	StageGenerate   = "generate"
	StagePersist    = "persist"
	StageDone       = "done"
)

// Stage errors owned by the media package
type (
	UnreachableMediaError = media.UnreachableMediaError
	NormalizationError    = media.NormalizationError
)

// MalformedInputError reports a missing field in the request
type MalformedInputError struct {
	Field   string
	Message string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Field)
}

// TranscriptionError means no backend, including the placeholder, produced text
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return fmt.Sprintf("transcription: %v", e.Err) }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// GenerationError wraps a model failure or unusable output
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed post insert
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist post: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// classify maps a stage error to its stage name and user message
func classify(err error) (string, string) {
	var (
		malformed   *MalformedInputError
		unreachable *UnreachableMediaError
		normalize   *NormalizationError
		transcribe  *TranscriptionError
		generate    *GenerationError
		persist     *PersistenceError
	)

	switch {
	case errors.As(err, &malformed):
		return StageInput, malformed.Message
	case errors.As(err, &unreachable):
		return StageProbe, MsgUnreachableMedia
	case errors.As(err, &normalize):
		return StageNormalize, MsgNormalization
	case errors.As(err, &transcribe):
		return StageTranscribe, MsgTranscription
	case errors.As(err, &generate):
		return StageGenerate, MsgGeneration
	case errors.As(err, &persist):
		return StagePersist, MsgPersistence
	default:
		return "", MsgUnexpected
	}
}
