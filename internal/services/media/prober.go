package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Prober checks that an uploaded file can be fetched before any work starts
type Prober struct {
	client    *http.Client
	userAgent string
}

// NewProber creates a prober whose HEAD requests time out after timeout
func NewProber(timeout time.Duration, userAgent string) *Prober {
	return &Prober{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Probe issues a HEAD request and succeeds only on 200 OK. There is no retry.
func (p *Prober) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return &UnreachableMediaError{URL: url, Err: err}
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn("media probe failed", "url", url, "err", err)
		return &UnreachableMediaError{URL: url, Err: err}
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("media probe rejected", "url", url, "status", resp.StatusCode)
		return &UnreachableMediaError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return nil
}
