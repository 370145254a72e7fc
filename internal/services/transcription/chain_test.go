package transcription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	got  string
	text string
	err  error
}

func (f *fakeRemote) Transcribe(_ context.Context, remotePath string) (string, error) {
	f.got = remotePath
	return f.text, f.err
}

func TestChainPrimarySucceeds(t *testing.T) {
	primary := &fakeRemote{text: "hello world"}
	secondary := &fakeRemote{text: "unused"}
	chain := NewChain(FromSpeechFlow(primary), FromWhisper(secondary))

	res, err := chain.Transcribe(context.Background(), Audio{Path: "/tmp/a.wav", URL: "https://cdn/a.wav"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.Equal(t, SourceSpeechFlow, res.Source)
	assert.False(t, res.Degraded())
	assert.Equal(t, "https://cdn/a.wav", primary.got)
	assert.Empty(t, secondary.got)
}

func TestChainFallsThrough(t *testing.T) {
	primary := &fakeRemote{err: errors.New("task failed")}
	secondary := &fakeRemote{text: ""}
	chain := NewChain(FromSpeechFlow(primary), FromWhisper(secondary), &Placeholder{})

	res, err := chain.Transcribe(context.Background(), Audio{Path: "/tmp/a.wav"})
	require.NoError(t, err)
	assert.Equal(t, DefaultPlaceholderText, res.Text)
	assert.Equal(t, SourcePlaceholder, res.Source)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.Cause.Error(), "speechflow: task failed")
	assert.Contains(t, res.Cause.Error(), "whisper: empty transcription")
	assert.Equal(t, "/tmp/a.wav", primary.got, "local path used when no public URL")
	assert.Equal(t, "/tmp/a.wav", secondary.got)
}

func TestChainAllFail(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain(FromSpeechFlow(&fakeRemote{err: boom}))

	_, err := chain.Transcribe(context.Background(), Audio{Path: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestChainEmpty(t *testing.T) {
	_, err := NewChain(nil).Transcribe(context.Background(), Audio{})
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	second := &fakeRemote{text: "never"}
	chain := NewChain(FromSpeechFlow(&fakeRemote{text: "never"}), FromWhisper(second))
	_, err := chain.Transcribe(ctx, Audio{Path: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, second.got)
}

func TestPlaceholderDelayHonorsContext(t *testing.T) {
	p := &Placeholder{Delay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Transcribe(ctx, Audio{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPlaceholderCustomText(t *testing.T) {
	p := &Placeholder{Delay: time.Millisecond, Text: "stub"}
	text, err := p.Transcribe(context.Background(), Audio{})
	require.NoError(t, err)
	assert.Equal(t, "stub", text)
}

func TestBackendsNames(t *testing.T) {
	chain := NewChain(FromSpeechFlow(&fakeRemote{}), nil, &Placeholder{})
	assert.Equal(t, []string{SourceSpeechFlow, SourcePlaceholder}, chain.Backends())
}
