package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ClientOptions struct {
	Retry RetryPolicy
	// ConcurrentRequests caps in-flight provider calls across the process.
	ConcurrentRequests int
	// RequestTimeout bounds a single attempt; zero means no extra bound.
	RequestTimeout time.Duration
	MaxTokens      int
	Temperature    float64
}

// Client is what services talk to. Each attempt is a provider call followed
// by output checks, so malformed output is retried like a transport error.
type Client struct {
	provider Provider
	opts     ClientOptions
	slots    chan struct{}
	log      *zap.Logger
}

func NewClient(provider Provider, log *zap.Logger, opts ClientOptions) *Client {
	if opts.ConcurrentRequests <= 0 {
		opts.ConcurrentRequests = 5
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if log == nil {
		log = zap.NewNop()
	}

	slots := make(chan struct{}, opts.ConcurrentRequests)
	for i := 0; i < opts.ConcurrentRequests; i++ {
		slots <- struct{}{}
	}

	return &Client{provider: provider, opts: opts, slots: slots, log: log.Named("llm")}
}

// Text returns trimmed free-form output.
func (c *Client) Text(ctx context.Context, system, prompt string) (string, error) {
	var text string
	err := c.opts.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		resp, err := c.call(ctx, attempt, Request{System: system, Prompt: prompt})
		if err != nil {
			return err
		}
		t := strings.TrimSpace(resp.Content)
		if t == "" {
			return c.attemptFailed(ctx, attempt, &ErrInvalidResponse{Err: errors.New("empty response")})
		}
		text = t
		return nil
	})
	return text, err
}

// JSON decodes schema-conforming output into out, which must be a non-nil
// pointer. Every attempt decodes into a fresh value; out is only written once
// an attempt fully succeeds.
func (c *Client) JSON(ctx context.Context, system, prompt string, schema *Schema, out any) error {
	if schema == nil {
		return fmt.Errorf("llm: JSON requires a schema")
	}
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("llm: JSON requires a non-nil pointer, got %T", out)
	}
	return c.opts.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		resp, err := c.call(ctx, attempt, Request{System: system, Prompt: prompt, Schema: schema})
		if err != nil {
			return err
		}

		raw := []byte(stripCodeFence(resp.Content))
		if err := validateJSON(schema, raw); err != nil {
			return c.attemptFailed(ctx, attempt, err)
		}
		fresh := reflect.New(target.Type().Elem())
		if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
			return c.attemptFailed(ctx, attempt, &ErrInvalidResponse{Content: resp.Content, Err: err})
		}
		target.Elem().Set(fresh.Elem())
		return nil
	})
}

func (c *Client) call(ctx context.Context, attempt int, req Request) (*Response, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	req.MaxTokens = c.opts.MaxTokens
	req.Temperature = c.opts.Temperature

	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return nil, c.attemptFailed(ctx, attempt, err)
	}
	return resp, nil
}

func (c *Client) attemptFailed(ctx context.Context, attempt int, err error) error {
	c.log.Warn("model attempt failed",
		zap.String("provider", c.provider.Name()),
		zap.String("purpose", PurposeFrom(ctx)),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", c.opts.Retry.MaxAttempts),
		zap.Error(err),
	)
	return err
}

// acquire blocks until a concurrency slot is free or ctx ends.
func (c *Client) acquire(ctx context.Context) error {
	select {
	case <-c.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	c.slots <- struct{}{}
}
