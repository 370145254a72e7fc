package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrTooLarge         = errors.New("file exceeds maximum download size")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// DownloadOptions configures the download behavior
type DownloadOptions struct {
	TempDir      string        // Directory for temporary files
	MaxSize      int64         // Maximum file size in bytes (0 = no limit)
	Timeout      time.Duration // Download timeout
	UserAgent    string        // User agent string
	AllowedMedia []string      // Sniffed MIME prefixes to accept, empty accepts anything
	FilePrefix   string        // Temp file name prefix
}

// MediaTypes are the sniffed MIME prefixes accepted as audio or video.
// Ogg containers without a recognised codec header sniff as application/ogg.
var MediaTypes = []string{"audio/", "video/", "application/ogg"}

// DefaultOptions returns default download options
func DefaultOptions() DownloadOptions {
	return DownloadOptions{
		TempDir:      os.TempDir(),
		MaxSize:      500 * 1024 * 1024,
		Timeout:      5 * time.Minute,
		UserAgent:    "BlogAPI/1.0",
		AllowedMedia: MediaTypes,
		FilePrefix:   "download",
	}
}

// DownloadResult contains information about a successful download
type DownloadResult struct {
	FilePath      string // Path to downloaded file
	ContentType   string // Content-Type from response
	DetectedMIME  string // MIME type sniffed from the file contents
	ContentLength int64  // Size in bytes
}

// Downloader fetches remote media into temporary storage
type Downloader struct {
	client  *http.Client
	options DownloadOptions
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options DownloadOptions) *Downloader {
	if options.FilePrefix == "" {
		options.FilePrefix = "download"
	}
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// DownloadToTemp downloads url into a temp file named after key. The caller
// owns the returned file and must remove it.
func (d *Downloader) DownloadToTemp(ctx context.Context, url string, key string) (*DownloadResult, error) {
	log.Debug("starting download", "url", url, "key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "audio/*,video/*,*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if d.options.MaxSize > 0 && resp.ContentLength > d.options.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, resp.ContentLength, d.options.MaxSize)
	}

	tempFile, err := os.CreateTemp(d.options.TempDir, fmt.Sprintf("%s_%s_*%s", d.options.FilePrefix, key, extensionFromURL(url)))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	written, err := d.copyLimited(tempFile, resp.Body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	detected, err := mimetype.DetectFile(tempPath)
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to sniff content type: %w", err)
	}
	if !d.allowed(detected) {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, detected.String())
	}

	log.Debug("downloaded media", "bytes", written, "path", tempPath, "mime", detected.String())

	return &DownloadResult{
		FilePath:      tempPath,
		ContentType:   resp.Header.Get("Content-Type"),
		DetectedMIME:  detected.String(),
		ContentLength: written,
	}, nil
}

// copyLimited copies src into dst and fails once MaxSize is exceeded
func (d *Downloader) copyLimited(dst io.Writer, src io.Reader) (int64, error) {
	if d.options.MaxSize <= 0 {
		n, err := io.Copy(dst, src)
		if err != nil {
			return n, fmt.Errorf("failed to download: %w", err)
		}
		return n, nil
	}

	n, err := io.Copy(dst, io.LimitReader(src, d.options.MaxSize+1))
	if err != nil {
		return n, fmt.Errorf("failed to download: %w", err)
	}
	if n > d.options.MaxSize {
		return n, fmt.Errorf("%w: max %d bytes", ErrTooLarge, d.options.MaxSize)
	}
	return n, nil
}

// allowed walks the detected type and its parents looking for an accepted prefix
func (d *Downloader) allowed(detected *mimetype.MIME) bool {
	if len(d.options.AllowedMedia) == 0 {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		for _, prefix := range d.options.AllowedMedia {
			if strings.HasPrefix(m.String(), prefix) {
				return true
			}
		}
	}
	return false
}

// CleanupTempFile removes a temporary file
func CleanupTempFile(path string) error {
	if path == "" {
		return nil
	}

	log.Debug("cleaning up temp file", "path", path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CleanupOldTempFiles removes files in tempDir matching pattern that are older
// than maxAge and returns how many were removed.
func CleanupOldTempFiles(tempDir, pattern string, maxAge time.Duration) (int, error) {
	files, err := filepath.Glob(filepath.Join(tempDir, pattern))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		log.Debug("cleaned up old temp files", "count", removed, "pattern", pattern)
	}

	return removed, nil
}

// extensionFromURL keeps a short, safe extension from the URL path so ffmpeg
// can use it as a demuxer hint.
func extensionFromURL(rawURL string) string {
	p := rawURL
	if idx := strings.IndexAny(p, "?#"); idx >= 0 {
		p = p[:idx]
	}
	ext := strings.ToLower(path.Ext(p))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
