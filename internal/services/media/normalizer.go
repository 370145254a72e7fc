package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/killallgit/blog-api/pkg/download"
	"github.com/killallgit/blog-api/pkg/ffmpeg"
)

// NormalizedFilePattern matches every file the normalizer writes
const NormalizedFilePattern = "normalized_*.wav"

var normalizedName = regexp.MustCompile(`^normalized_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.wav$`)

// IsNormalizedFileName reports whether name could have been produced by Normalize
func IsNormalizedFileName(name string) bool {
	return normalizedName.MatchString(name)
}

// Engine is the media tool used for conversion
type Engine interface {
	ConvertToWAV(ctx context.Context, input, output string, profile ffmpeg.WAVProfile) error
	VerifyProfile(ctx context.Context, path string, profile ffmpeg.WAVProfile) (*ffmpeg.AudioMetadata, error)
}

// Fetcher downloads remote media to local disk
type Fetcher interface {
	DownloadToTemp(ctx context.Context, url string, key string) (*download.DownloadResult, error)
}

// NormalizedAudio is a WAV file owned by a single pipeline invocation
type NormalizedAudio struct {
	ID       string
	Path     string
	URL      string // public URL of Path, empty when not published
	Metadata *ffmpeg.AudioMetadata
}

// Name returns the file name of the normalized audio
func (a *NormalizedAudio) Name() string {
	return filepath.Base(a.Path)
}

// Remove deletes the file; safe to call more than once
func (a *NormalizedAudio) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Normalizer converts arbitrary uploads into speech WAV files
type Normalizer struct {
	engine        Engine
	fetcher       Fetcher
	tempDir       string
	profile       ffmpeg.WAVProfile
	publicBaseURL string
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithPublicBaseURL publishes normalized files under base, so remote
// services can fetch them from /media/normalized/<name>.
func WithPublicBaseURL(base string) NormalizerOption {
	return func(n *Normalizer) {
		n.publicBaseURL = strings.TrimRight(base, "/")
	}
}

// WithProfile overrides the output encoding
func WithProfile(profile ffmpeg.WAVProfile) NormalizerOption {
	return func(n *Normalizer) {
		n.profile = profile
	}
}

// NewNormalizer creates a normalizer around an already constructed engine
func NewNormalizer(engine Engine, fetcher Fetcher, tempDir string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		engine:  engine,
		fetcher: fetcher,
		tempDir: tempDir,
		profile: ffmpeg.SpeechProfile(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize downloads mediaURL and converts it to the configured WAV profile.
// Each call writes to its own normalized_<uuid>.wav; the caller removes it.
func (n *Normalizer) Normalize(ctx context.Context, mediaURL string) (*NormalizedAudio, error) {
	id := uuid.NewString()
	logger := log.With("invocation", id)

	if err := os.MkdirAll(n.tempDir, 0755); err != nil {
		return nil, &NormalizationError{Stage: StagePrepare, URL: mediaURL, Err: err}
	}

	downloaded, err := n.fetcher.DownloadToTemp(ctx, mediaURL, id)
	if err != nil {
		return nil, &NormalizationError{Stage: StageDownload, URL: mediaURL, Err: err}
	}
	defer func() {
		if err := download.CleanupTempFile(downloaded.FilePath); err != nil {
			logger.Warn("failed to remove download", "path", downloaded.FilePath, "err", err)
		}
	}()

	output := filepath.Join(n.tempDir, fmt.Sprintf("normalized_%s.wav", id))
	logger.Debug("converting media", "input", downloaded.FilePath, "mime", downloaded.DetectedMIME, "output", output)

	if err := n.engine.ConvertToWAV(ctx, downloaded.FilePath, output, n.profile); err != nil {
		return nil, &NormalizationError{Stage: StageConvert, URL: mediaURL, Err: err}
	}

	audio := &NormalizedAudio{ID: id, Path: output}

	metadata, err := n.engine.VerifyProfile(ctx, output, n.profile)
	if err != nil {
		audio.Remove()
		return nil, &NormalizationError{Stage: StageVerify, URL: mediaURL, Err: err}
	}
	audio.Metadata = metadata

	if n.publicBaseURL != "" {
		audio.URL = n.publicBaseURL + "/media/normalized/" + url.PathEscape(audio.Name())
	}

	logger.Info("media normalized", "path", output, "duration", metadata.Duration)
	return audio, nil
}
