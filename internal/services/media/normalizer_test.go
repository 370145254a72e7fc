package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/killallgit/blog-api/pkg/download"
	"github.com/killallgit/blog-api/pkg/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) ConvertToWAV(ctx context.Context, input, output string, profile ffmpeg.WAVProfile) error {
	args := m.Called(ctx, input, output, profile)
	if args.Error(0) == nil {
		_ = os.WriteFile(output, []byte("RIFF"), 0644)
	}
	return args.Error(0)
}

func (m *mockEngine) VerifyProfile(ctx context.Context, path string, profile ffmpeg.WAVProfile) (*ffmpeg.AudioMetadata, error) {
	args := m.Called(ctx, path, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ffmpeg.AudioMetadata), args.Error(1)
}

// stubFetcher writes a fake download into dir
type stubFetcher struct {
	dir string
	err error

	mu   sync.Mutex
	keys []string
}

func (f *stubFetcher) DownloadToTemp(ctx context.Context, url string, key string) (*download.DownloadResult, error) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(f.dir, "download_"+key+".mp4")
	if err := os.WriteFile(path, []byte("media"), 0644); err != nil {
		return nil, err
	}
	return &download.DownloadResult{FilePath: path, DetectedMIME: "video/mp4"}, nil
}

func speechMetadata() *ffmpeg.AudioMetadata {
	return &ffmpeg.AudioMetadata{SampleRate: 16000, Channels: 1, Codec: "pcm_s16le", Duration: 2}
}

func TestNormalizeSuccess(t *testing.T) {
	dir := t.TempDir()
	engine := new(mockEngine)
	engine.On("ConvertToWAV", mock.Anything, mock.Anything, mock.Anything, ffmpeg.SpeechProfile()).Return(nil)
	engine.On("VerifyProfile", mock.Anything, mock.Anything, ffmpeg.SpeechProfile()).Return(speechMetadata(), nil)
	fetcher := &stubFetcher{dir: dir}

	n := NewNormalizer(engine, fetcher, dir, WithPublicBaseURL("https://api.example.com/"))
	audio, err := n.Normalize(context.Background(), "https://host/clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "normalized_"+audio.ID+".wav"), audio.Path)
	assert.True(t, IsNormalizedFileName(audio.Name()))
	assert.Equal(t, "https://api.example.com/media/normalized/"+audio.Name(), audio.URL)
	assert.Equal(t, 16000, audio.Metadata.SampleRate)
	assert.Equal(t, []string{audio.ID}, fetcher.keys)

	_, err = os.Stat(audio.Path)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "download_"+audio.ID+".mp4"))
	assert.True(t, os.IsNotExist(err), "download is removed after conversion")

	require.NoError(t, audio.Remove())
	require.NoError(t, audio.Remove())
	engine.AssertExpectations(t)
}

func TestNormalizeUsesUniquePaths(t *testing.T) {
	dir := t.TempDir()
	engine := new(mockEngine)
	engine.On("ConvertToWAV", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	engine.On("VerifyProfile", mock.Anything, mock.Anything, mock.Anything).Return(speechMetadata(), nil)
	n := NewNormalizer(engine, &stubFetcher{dir: dir}, dir)

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			audio, err := n.Normalize(context.Background(), "https://host/clip.mp4")
			if assert.NoError(t, err) {
				paths[i] = audio.Path
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Empty(t, n.publicBaseURL)
}

func TestNormalizeFailures(t *testing.T) {
	convertErr := errors.New("exit status 1")
	verifyErr := ffmpeg.ErrProfileMismatch

	tests := []struct {
		name      string
		fetchErr  error
		convert   error
		verify    error
		wantStage string
		wantErr   error
	}{
		{"download", download.ErrUnsupportedMedia, nil, nil, StageDownload, download.ErrUnsupportedMedia},
		{"convert", nil, convertErr, nil, StageConvert, convertErr},
		{"verify", nil, nil, verifyErr, StageVerify, verifyErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			engine := new(mockEngine)
			engine.On("ConvertToWAV", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.convert)
			if tt.verify != nil {
				engine.On("VerifyProfile", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.verify)
			}

			n := NewNormalizer(engine, &stubFetcher{dir: dir, err: tt.fetchErr}, dir)
			audio, err := n.Normalize(context.Background(), "https://host/clip.mp4")
			assert.Nil(t, audio)

			var normErr *NormalizationError
			require.True(t, errors.As(err, &normErr))
			assert.Equal(t, tt.wantStage, normErr.Stage)
			assert.ErrorIs(t, err, tt.wantErr)

			entries, _ := os.ReadDir(dir)
			for _, e := range entries {
				assert.False(t, strings.HasPrefix(e.Name(), "normalized_"), "left %s behind", e.Name())
			}
		})
	}
}

func TestIsNormalizedFileName(t *testing.T) {
	assert.True(t, IsNormalizedFileName("normalized_123e4567-e89b-12d3-a456-426614174000.wav"))
	assert.False(t, IsNormalizedFileName("normalized_../../etc/passwd"))
	assert.False(t, IsNormalizedFileName("download_123e4567-e89b-12d3-a456-426614174000.mp4"))
	assert.False(t, IsNormalizedFileName("normalized_x.wav"))
}
