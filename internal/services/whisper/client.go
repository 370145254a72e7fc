// Package whisper transcribes local audio files with the OpenAI
// transcription endpoint.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAPIURL  = "https://api.openai.com/v1/audio/transcriptions"
	defaultModel   = "whisper-1"
	defaultTimeout = 5 * time.Minute
	maxUploadBytes = 25 << 20
)

var (
	ErrMissingAPIKey = errors.New("whisper: api key required")
	ErrFileTooLarge  = errors.New("whisper: file exceeds 25MB upload limit")
)

// Config holds the API settings
type Config struct {
	APIKey   string
	APIURL   string
	Model    string
	Language string
	Timeout  time.Duration
}

// Client uploads audio for transcription
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client; an empty API key yields a disabled client
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the client has credentials
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Transcribe uploads the file at path and returns the recognized text
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	if !c.Enabled() {
		return "", ErrMissingAPIKey
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	if info.Size() > maxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	body, contentType, err := c.buildForm(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, body)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("whisper: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("whisper: http %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("whisper: http %d", resp.StatusCode)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("whisper: decode response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

func (c *Client) buildForm(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("whisper: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("whisper: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("whisper: %w", err)
	}

	fields := map[string]string{
		"model":           c.cfg.Model,
		"response_format": "json",
	}
	if c.cfg.Language != "" {
		fields["language"] = c.cfg.Language
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("whisper: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("whisper: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
