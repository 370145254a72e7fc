// Package transcription turns normalized audio into text by trying a
// list of backends in order until one succeeds.
package transcription

import "context"

// Audio locates a normalized file for the backends. URL is the public
// address of Path when the media route is exposed.
type Audio struct {
	Path string
	URL  string
}

// Backend is a single speech-to-text provider
type Backend interface {
	// Name identifies the backend in logs and results
	Name() string

	// Transcribe returns the recognized text or an error
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Transcriber is what callers depend on
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (*Result, error)
}

// Result is the text plus where it came from. Cause collects the errors
// of the backends that failed before Source answered.
type Result struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Cause  error  `json:"-"`
}

// Degraded reports whether a backend earlier in the chain failed
func (r *Result) Degraded() bool {
	return r.Cause != nil
}
