package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
)

// Retry loop bounds.
const (
	// DefaultMaxRetries is the total number of attempts per invocation.
	DefaultMaxRetries = 4

	// DefaultAttemptTimeout is the wall-clock budget per attempt, not
	// cumulative across retries.
	DefaultAttemptTimeout = 45 * time.Second

	// backoffBase and backoffCap bound the exponential backoff between
	// attempts: min(base * 2^(attempt-1), cap).
	backoffBase = 2 * time.Second
	backoffCap  = 20 * time.Second
)

// InvokerConfig configures the retry loop.
type InvokerConfig struct {
	// MaxRetries overrides DefaultMaxRetries.
	MaxRetries int

	// AttemptTimeout overrides DefaultAttemptTimeout.
	AttemptTimeout time.Duration

	// Model overrides DefaultModel for calls that leave CallParams.Model
	// empty.
	Model string

	// MaxTokens overrides DefaultMaxTokens for calls that leave
	// CallParams.MaxTokens zero.
	MaxTokens int
}

// Invoker drives a model call through a small state machine:
// Attempt -> Classify -> {Retry-with-backoff | Fail-fast | Success}.
// Invocations share no state beyond the pure classifier, so any number may
// run in parallel.
type Invoker struct {
	provider       Provider
	maxRetries     int
	attemptTimeout time.Duration
	model          string
	maxTokens      int
	logger         *slog.Logger

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates an invoker over the given provider.
func NewInvoker(provider Provider, cfg InvokerConfig) *Invoker {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout == 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	mdl := cfg.Model
	if mdl == "" {
		mdl = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Invoker{
		provider:       provider,
		maxRetries:     maxRetries,
		attemptTimeout: attemptTimeout,
		model:          mdl,
		maxTokens:      maxTokens,
		logger:         slog.Default().With("component", "model"),
		sleep:          sleepCtx,
	}
}

// Invoke calls the model, retrying temporary failures with exponential
// backoff. Fatal classifications propagate immediately; after the retry
// budget is exhausted the last attempt's error propagates.
func (i *Invoker) Invoke(ctx context.Context, params CallParams) (*CallResult, error) {
	i.applyDefaults(&params)

	var lastErr error
	for attempt := 1; attempt <= i.maxRetries; attempt++ {
		result, err := i.attempt(ctx, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		c := classify.Classify(err)
		if !c.ShouldRetry {
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		if attempt == i.maxRetries {
			break
		}

		wait := Backoff(attempt)
		i.logger.Warn("model call failed, retrying",
			"attempt", attempt, "max_retries", i.maxRetries, "backoff", wait, "error", err)
		if err := i.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("model call failed after %d attempts: %w", i.maxRetries, lastErr)
}

// attempt runs one model call under the per-attempt deadline. A fired
// deadline is surfaced as a synthetic timeout error so the classifier treats
// it as temporary; the provider's in-flight response is discarded with the
// canceled context.
func (i *Invoker) attempt(ctx context.Context, params CallParams) (*CallResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, i.attemptTimeout)
	defer cancel()

	result, err := i.provider.Call(attemptCtx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("model call timeout after %s", i.attemptTimeout)
		}
		return nil, err
	}
	return result, nil
}

// Backoff returns the wait before the attempt following the given one:
// min(2s * 2^(attempt-1), 20s).
func Backoff(attempt int) time.Duration {
	wait := backoffBase << (attempt - 1)
	if wait > backoffCap {
		return backoffCap
	}
	return wait
}

// applyDefaults fills unset call parameters from the invoker's configured
// model and token limit; explicit per-call values win.
func (i *Invoker) applyDefaults(params *CallParams) {
	if params.Model == "" {
		params.Model = i.model
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = i.maxTokens
	}
	if params.Temperature == nil {
		temp := DefaultTemperature
		if len(params.Tools) > 0 {
			temp = DefaultTemperatureWithTools
		}
		params.Temperature = &temp
	}
}

// sleepCtx sleeps for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
