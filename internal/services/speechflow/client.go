// Package speechflow is a client for the SpeechFlow asynchronous file
// transcription API.
package speechflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Status codes returned by the query endpoint
const (
	CodeOK         = 0
	CodeCompleted  = 11000
	CodeProcessing = 11001
)

const (
	defaultBaseURL      = "https://api.speechflow.io"
	defaultLang         = "en"
	defaultResultType   = 4 // plain text
	defaultPollInterval = 3 * time.Second
	defaultHTTPTimeout  = 30 * time.Second
	defaultRateLimit    = 5 // requests per second across all tasks
)

var (
	ErrMissingCredentials = errors.New("speechflow: key id and secret required")
	ErrAttemptsExhausted  = errors.New("speechflow: poll attempts exhausted")
	ErrEmptyResult        = errors.New("speechflow: task completed without text")
)

// Config holds the SpeechFlow credentials and polling policy
type Config struct {
	BaseURL      string
	KeyID        string
	KeySecret    string
	Lang         string
	ResultType   int
	PollInterval time.Duration
	MaxAttempts  int           // 0 means unbounded; Deadline or ctx must then end the loop
	Deadline     time.Duration // overall budget for create + polling, 0 disables
	Timeout      time.Duration // per request
}

// APIError is a non-success code from the API
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("speechflow %s: code %d: %s", e.Op, e.Code, e.Msg)
}

type httpStatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("speechflow %s: http %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// QueryResult is the decoded body of a query call
type QueryResult struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Result string `json:"result"`
}

type createResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	TaskID string `json:"taskId"`
}

// Client talks to SpeechFlow
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes the client
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps outgoing requests per second, shared by every task
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// NewClient constructs a client, filling unset config with defaults
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Lang == "" {
		cfg.Lang = defaultLang
	}
	if cfg.ResultType == 0 {
		cfg.ResultType = defaultResultType
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create submits a transcription task for remotePath and returns its id
func (c *Client) Create(ctx context.Context, remotePath string) (string, error) {
	if c.cfg.KeyID == "" || c.cfg.KeySecret == "" {
		return "", ErrMissingCredentials
	}

	form := url.Values{}
	form.Set("lang", c.cfg.Lang)
	form.Set("remotePath", remotePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/asr/file/v1/create", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("speechflow create: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp createResponse
	if err := c.do(req, "create", &resp); err != nil {
		return "", err
	}
	if resp.Code != CodeOK {
		return "", &APIError{Op: "create", Code: resp.Code, Msg: resp.Msg}
	}
	if resp.TaskID == "" {
		return "", &APIError{Op: "create", Code: resp.Code, Msg: "missing taskId"}
	}
	return resp.TaskID, nil
}

// Query fetches the current state of a task
func (c *Client) Query(ctx context.Context, taskID string) (*QueryResult, error) {
	q := url.Values{}
	q.Set("taskId", taskID)
	q.Set("resultType", strconv.Itoa(c.cfg.ResultType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/asr/file/v1/query?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("speechflow query: %w", err)
	}

	var resp QueryResult
	if err := c.do(req, "query", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Transcribe creates a task for remotePath and polls until it completes.
// Polling stops at MaxAttempts, at Deadline, or when ctx is done.
func (c *Client) Transcribe(ctx context.Context, remotePath string) (string, error) {
	if c.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Deadline)
		defer cancel()
	}

	taskID, err := c.Create(ctx, remotePath)
	if err != nil {
		return "", err
	}
	logger := log.With("task", taskID)
	logger.Info("speechflow task created", "remotePath", remotePath)

	return c.Poll(ctx, taskID)
}

// Poll queries taskID on the configured interval until a terminal code
func (c *Client) Poll(ctx context.Context, taskID string) (string, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; c.cfg.MaxAttempts <= 0 || attempt <= c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("speechflow poll %s: %w", taskID, ctx.Err())
		case <-timer.C:
		}

		result, err := c.Query(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch result.Code {
		case CodeCompleted:
			if strings.TrimSpace(result.Result) == "" {
				return "", ErrEmptyResult
			}
			log.Debug("speechflow task completed", "task", taskID, "attempts", attempt)
			return result.Result, nil
		case CodeProcessing:
			timer.Reset(c.cfg.PollInterval)
		default:
			return "", &APIError{Op: "query", Code: result.Code, Msg: result.Msg}
		}
	}

	return "", fmt.Errorf("%w: task %s after %d attempts", ErrAttemptsExhausted, taskID, c.cfg.MaxAttempts)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("speechflow %s: %w", op, err)
	}

	req.Header.Set("keyId", c.cfg.KeyID)
	req.Header.Set("keySecret", c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speechflow %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("speechflow %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{Op: op, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("speechflow %s: decode response: %w", op, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
