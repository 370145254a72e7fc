package transcription

import (
	"context"
	"strings"
	"time"
)

// DefaultPlaceholderText is returned by the last-resort backend
const DefaultPlaceholderText = "This is a fallback transcription. Please implement a real fallback service."

// Backend names
const (
	SourceSpeechFlow  = "speechflow"
	SourceWhisper     = "whisper"
	SourcePlaceholder = "placeholder"
)

type remoteTranscriber interface {
	Transcribe(ctx context.Context, remotePath string) (string, error)
}

type localTranscriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type backendFunc struct {
	name string
	fn   func(ctx context.Context, audio Audio) (string, error)
}

func (b backendFunc) Name() string { return b.name }

func (b backendFunc) Transcribe(ctx context.Context, audio Audio) (string, error) {
	return b.fn(ctx, audio)
}

// FromSpeechFlow adapts the SpeechFlow client. The public URL is sent
// when present since the remote service has to fetch the file itself.
func FromSpeechFlow(client remoteTranscriber) Backend {
	return backendFunc{name: SourceSpeechFlow, fn: func(ctx context.Context, audio Audio) (string, error) {
		remote := audio.URL
		if remote == "" {
			remote = audio.Path
		}
		return client.Transcribe(ctx, remote)
	}}
}

// FromWhisper adapts a client that uploads the local file
func FromWhisper(client localTranscriber) Backend {
	return backendFunc{name: SourceWhisper, fn: func(ctx context.Context, audio Audio) (string, error) {
		return client.Transcribe(ctx, audio.Path)
	}}
}

// Placeholder waits Delay and then returns fixed text
type Placeholder struct {
	Delay time.Duration
	Text  string
}

func (p *Placeholder) Name() string { return SourcePlaceholder }

func (p *Placeholder) Transcribe(ctx context.Context, _ Audio) (string, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if strings.TrimSpace(p.Text) == "" {
		return DefaultPlaceholderText, nil
	}
	return p.Text, nil
}
