package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNoBackends is returned when the chain is empty
var ErrNoBackends = errors.New("no transcription backends configured")

// Chain tries each backend in order and returns the first non-empty text
type Chain struct {
	backends []Backend
}

// NewChain builds a chain; nil backends are skipped
func NewChain(backends ...Backend) *Chain {
	c := &Chain{}
	for _, b := range backends {
		if b != nil {
			c.backends = append(c.backends, b)
		}
	}
	return c
}

// Backends returns the configured backend names in order
func (c *Chain) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Transcribe runs the chain. It fails only when the context ends or
// every backend fails.
func (c *Chain) Transcribe(ctx context.Context, audio Audio) (*Result, error) {
	if len(c.backends) == 0 {
		return nil, ErrNoBackends
	}

	var errs []error
	for _, backend := range c.backends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		text, err := backend.Transcribe(ctx, audio)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty transcription")
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn("transcription backend failed",
				"backend", backend.Name(),
				"elapsed", time.Since(start).Round(time.Millisecond),
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}

		log.Info("transcription complete",
			"backend", backend.Name(),
			"chars", len(text),
			"elapsed", time.Since(start).Round(time.Millisecond))
		return &Result{Text: text, Source: backend.Name(), Cause: errors.Join(errs...)}, nil
	}

	return nil, fmt.Errorf("all transcription backends failed: %w", errors.Join(errs...))
}
