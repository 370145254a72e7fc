package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality. One instance is created at
// startup, shared by every request, and closed at shutdown; Close waits for
// in-flight conversions to finish.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// Close stops accepting new work and waits for running commands
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	f.inflight.Wait()
	return nil
}

// acquire registers a running command, failing once the engine is closed
func (f *FFmpeg) acquire() (func(), error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrEngineClosed
	}
	f.inflight.Add(1)
	return f.inflight.Done, nil
}

// ConvertToWAV decodes the first audio stream of input and writes it to
// output as a WAV file with the given profile. Video streams are dropped.
func (f *FFmpeg) ConvertToWAV(ctx context.Context, input, output string, profile WAVProfile) error {
	release, err := f.acquire()
	if err != nil {
		return err
	}
	defer release()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{
		"-y", // Overwrite output
		"-i", input,
		"-vn",
		"-acodec", profile.Codec,
		"-ar", strconv.Itoa(profile.SampleRate),
		"-ac", strconv.Itoa(profile.Channels),
		"-f", "wav",
		output,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(output)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return NewProcessingError("wav_conversion", input, ErrProcessingTimeout, stderr.String())
		}
		return NewProcessingError("wav_conversion", input, err, stderr.String())
	}

	return nil
}
