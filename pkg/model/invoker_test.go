package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
)

// scriptedProvider returns canned results/errors per attempt.
type scriptedProvider struct {
	attempts int
	script   []func(ctx context.Context) (*CallResult, error)
}

func (p *scriptedProvider) Call(ctx context.Context, _ CallParams) (*CallResult, error) {
	idx := p.attempts
	p.attempts++
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	return p.script[idx](ctx)
}

func succeed(text string) func(context.Context) (*CallResult, error) {
	return func(context.Context) (*CallResult, error) {
		return &CallResult{Text: text, StopReason: StopEndTurn}, nil
	}
}

func fail(err error) func(context.Context) (*CallResult, error) {
	return func(context.Context) (*CallResult, error) { return nil, err }
}

func newTestInvoker(p Provider, maxRetries int) *Invoker {
	inv := NewInvoker(p, InvokerConfig{MaxRetries: maxRetries, AttemptTimeout: time.Second})
	inv.sleep = func(context.Context, time.Duration) error { return nil }
	return inv
}

func TestInvoke_SucceedsFirstAttempt(t *testing.T) {
	p := &scriptedProvider{script: []func(context.Context) (*CallResult, error){succeed("ok")}}
	inv := newTestInvoker(p, 4)

	res, err := inv.Invoke(context.Background(), CallParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 1, p.attempts)
}

func TestInvoke_RetriesTemporaryThenSucceeds(t *testing.T) {
	p := &scriptedProvider{script: []func(context.Context) (*CallResult, error){
		fail(&classify.StatusError{Status: 529, Err: errors.New("overloaded")}),
		fail(errors.New("request timeout")),
		succeed("ok"),
	}}
	inv := newTestInvoker(p, 4)

	res, err := inv.Invoke(context.Background(), CallParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 3, p.attempts)
}

func TestInvoke_FatalStopsImmediately(t *testing.T) {
	fatal := &classify.StatusError{Status: 401, Err: errors.New("invalid api key")}
	p := &scriptedProvider{script: []func(context.Context) (*CallResult, error){fail(fatal)}}
	inv := newTestInvoker(p, 4)

	_, err := inv.Invoke(context.Background(), CallParams{})
	require.Error(t, err)
	assert.Equal(t, 1, p.attempts, "fatal classification makes exactly one attempt")
	assert.ErrorIs(t, err, fatal)
}

func TestInvoke_ExhaustedRetriesPropagateLastError(t *testing.T) {
	last := errors.New("final timeout")
	p := &scriptedProvider{script: []func(context.Context) (*CallResult, error){
		fail(errors.New("timeout one")),
		fail(errors.New("timeout two")),
		fail(errors.New("timeout three")),
		fail(last),
	}}
	inv := newTestInvoker(p, 4)

	_, err := inv.Invoke(context.Background(), CallParams{})
	require.Error(t, err)
	assert.Equal(t, 4, p.attempts, "retryable classification uses the full retry budget")
	assert.ErrorIs(t, err, last)
}

func TestInvoke_AttemptTimeoutIsRetried(t *testing.T) {
	hang := func(ctx context.Context) (*CallResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p := &scriptedProvider{script: []func(context.Context) (*CallResult, error){hang, succeed("ok")}}
	inv := NewInvoker(p, InvokerConfig{MaxRetries: 2, AttemptTimeout: 20 * time.Millisecond})
	inv.sleep = func(context.Context, time.Duration) error { return nil }

	res, err := inv.Invoke(context.Background(), CallParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 2, p.attempts)
}

func TestInvoke_CanceledContextStopsBackoff(t *testing.T) {
	p := &scriptedProvider{script: []func(context.Context) (*CallResult, error){
		fail(errors.New("timeout")),
	}}
	inv := NewInvoker(p, InvokerConfig{MaxRetries: 4, AttemptTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inv.Invoke(ctx, CallParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_Formula(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 20 * time.Second},
		{10, 20 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestApplyDefaults(t *testing.T) {
	inv := newTestInvoker(&scriptedProvider{}, 1)
	params := CallParams{}
	inv.applyDefaults(&params)
	assert.Equal(t, DefaultModel, params.Model)
	assert.Equal(t, DefaultMaxTokens, params.MaxTokens)
	require.NotNil(t, params.Temperature)
	assert.InDelta(t, DefaultTemperature, *params.Temperature, 0.001)
}

func TestApplyDefaults_ToolsForceDeterministic(t *testing.T) {
	inv := newTestInvoker(&scriptedProvider{}, 1)
	params := CallParams{Tools: []Tool{{Name: "execute_query"}}}
	inv.applyDefaults(&params)
	require.NotNil(t, params.Temperature)
	assert.InDelta(t, DefaultTemperatureWithTools, *params.Temperature, 0.001)
}

func TestApplyDefaults_ExplicitValuesKept(t *testing.T) {
	inv := NewInvoker(&scriptedProvider{}, InvokerConfig{Model: "configured-model", MaxTokens: 4096})
	temp := 0.7
	params := CallParams{Model: "other-model", MaxTokens: 512, Temperature: &temp}
	inv.applyDefaults(&params)
	assert.Equal(t, "other-model", params.Model)
	assert.Equal(t, 512, params.MaxTokens)
	assert.InDelta(t, 0.7, *params.Temperature, 0.001)
}

// capturingProvider records the params of each call before succeeding.
type capturingProvider struct {
	params []CallParams
}

func (p *capturingProvider) Call(_ context.Context, params CallParams) (*CallResult, error) {
	p.params = append(p.params, params)
	return &CallResult{Text: "ok", StopReason: StopEndTurn}, nil
}

func TestInvoke_ConfiguredModelReachesProvider(t *testing.T) {
	p := &capturingProvider{}
	inv := NewInvoker(p, InvokerConfig{Model: "claude-opus-4-1", MaxTokens: 4096})

	_, err := inv.Invoke(context.Background(), CallParams{})
	require.NoError(t, err)
	require.Len(t, p.params, 1)
	assert.Equal(t, "claude-opus-4-1", p.params[0].Model)
	assert.Equal(t, 4096, p.params[0].MaxTokens)
}
