package speechflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	createCode   int
	createMsg    string
	queryReplies []QueryResult
	queries      atomic.Int32
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/asr/file/v1/create", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "kid", r.Header.Get("keyId"))
		assert.Equal(t, "secret", r.Header.Get("keySecret"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "en", r.PostForm.Get("lang"))
		assert.Equal(t, "https://api.example.com/media/normalized/a.wav", r.PostForm.Get("remotePath"))

		_ = json.NewEncoder(w).Encode(map[string]any{"code": f.createCode, "msg": f.createMsg, "taskId": "t1"})
	})
	mux.HandleFunc("/asr/file/v1/query", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "t1", r.URL.Query().Get("taskId"))
		assert.Equal(t, "4", r.URL.Query().Get("resultType"))
		assert.Equal(t, "kid", r.Header.Get("keyId"))

		n := int(f.queries.Add(1)) - 1
		reply := f.queryReplies[len(f.queryReplies)-1]
		if n < len(f.queryReplies) {
			reply = f.queryReplies[n]
		}
		_ = json.NewEncoder(w).Encode(reply)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string, maxAttempts int) *Client {
	return NewClient(Config{
		BaseURL:      baseURL,
		KeyID:        "kid",
		KeySecret:    "secret",
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
	}, WithRateLimit(0, 0))
}

const remote = "https://api.example.com/media/normalized/a.wav"

func TestTranscribeSuccess(t *testing.T) {
	api := &fakeAPI{queryReplies: []QueryResult{
		{Code: CodeProcessing},
		{Code: CodeProcessing},
		{Code: CodeCompleted, Result: "hello world"},
	}}
	srv := api.server(t)

	text, err := newTestClient(srv.URL, 10).Transcribe(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, int32(3), api.queries.Load())
}

func TestTranscribeCreateFailure(t *testing.T) {
	api := &fakeAPI{createCode: 10001, createMsg: "invalid key"}
	srv := api.server(t)

	_, err := newTestClient(srv.URL, 10).Transcribe(context.Background(), remote)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "create", apiErr.Op)
	assert.Equal(t, 10001, apiErr.Code)
	assert.Equal(t, "invalid key", apiErr.Msg)
	assert.Equal(t, int32(0), api.queries.Load())
}

func TestTranscribeTerminalQueryCode(t *testing.T) {
	api := &fakeAPI{queryReplies: []QueryResult{{Code: CodeProcessing}, {Code: 11002, Msg: "audio decode failed"}}}
	srv := api.server(t)

	_, err := newTestClient(srv.URL, 10).Transcribe(context.Background(), remote)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "query", apiErr.Op)
	assert.Equal(t, "audio decode failed", apiErr.Msg)
}

func TestTranscribeAttemptsExhausted(t *testing.T) {
	api := &fakeAPI{queryReplies: []QueryResult{{Code: CodeProcessing}}}
	srv := api.server(t)

	_, err := newTestClient(srv.URL, 3).Transcribe(context.Background(), remote)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, int32(3), api.queries.Load())
}

func TestTranscribeDeadline(t *testing.T) {
	api := &fakeAPI{queryReplies: []QueryResult{{Code: CodeProcessing}}}
	srv := api.server(t)

	client := NewClient(Config{
		BaseURL:      srv.URL,
		KeyID:        "kid",
		KeySecret:    "secret",
		PollInterval: 5 * time.Millisecond,
		Deadline:     50 * time.Millisecond,
	}, WithRateLimit(0, 0))

	_, err := client.Transcribe(context.Background(), remote)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTranscribeCancelled(t *testing.T) {
	api := &fakeAPI{queryReplies: []QueryResult{{Code: CodeProcessing}}}
	srv := api.server(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL, 0).Transcribe(ctx, remote)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranscribeEmptyResult(t *testing.T) {
	api := &fakeAPI{queryReplies: []QueryResult{{Code: CodeCompleted, Result: "  "}}}
	srv := api.server(t)

	_, err := newTestClient(srv.URL, 5).Transcribe(context.Background(), remote)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).Create(context.Background(), remote)

	var statusErr *httpStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestMissingCredentials(t *testing.T) {
	_, err := NewClient(Config{}).Create(context.Background(), remote)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://api.speechflow.io/"})
	assert.Equal(t, "https://api.speechflow.io", c.cfg.BaseURL)
	assert.Equal(t, "en", c.cfg.Lang)
	assert.Equal(t, 4, c.cfg.ResultType)
	assert.Equal(t, 3*time.Second, c.cfg.PollInterval)
}
