package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/metrics"
	"github.com/Rrens/clinic-assistant/internal/util"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxRetries bounds retries after the first attempt
	DefaultMaxRetries = 2
	// DefaultBaseDelay is the wait before the first retry; it doubles after that
	DefaultBaseDelay = time.Second
)

// Client wraps a Backend with the system policy, the retry loop and
// response postconditions
type Client struct {
	backend      Backend
	systemPrompt string
	maxRetries   int
	baseDelay    time.Duration
	sleep        util.Sleeper
}

// Option configures a Client
type Option func(*Client)

// WithMaxRetries sets how many retries follow a transient failure
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first backoff delay
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithSleeper replaces the wait used between attempts
func WithSleeper(s util.Sleeper) Option {
	return func(c *Client) {
		c.sleep = s
	}
}

// NewClient creates a generation client around backend
func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend:      backend,
		systemPrompt: SystemPolicy,
		maxRetries:   DefaultMaxRetries,
		baseDelay:    DefaultBaseDelay,
		sleep:        util.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured reports whether the backend has credentials
func (c *Client) IsConfigured() bool {
	return c.backend != nil && c.backend.IsConfigured()
}

// Generate returns a non-blank reply for message that always carries the disclaimer.
//
// Transient failures (429/503) are retried up to maxRetries times, waiting
// baseDelay, 2*baseDelay, ... before each retry. Any other failure returns at once.
func (c *Client) Generate(ctx context.Context, history []domain.Turn, message string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	req := Request{
		SystemPrompt: c.systemPrompt,
		History:      history,
		Message:      message,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := util.ExponentialBackoff(c.baseDelay, attempt)
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Dur("backoff", delay).
				Msg("retrying generation after transient failure")

			if err := c.sleep(ctx, delay); err != nil {
				return "", fmt.Errorf("generation retry aborted: %w", err)
			}
		}

		text, err := c.backend.Complete(ctx, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			metrics.ObserveGeneration("success")
			return EnsureDisclaimer(text), nil
		}

		lastErr = err
		kind := KindOf(err)
		metrics.ObserveGeneration(kind.String())

		if kind != KindTransient || ctx.Err() != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
