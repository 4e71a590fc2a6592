package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calmi-backend/internal/models"
)

// scriptedGenerator answers each attempt from a fixed script.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []*UpstreamResponse
	errs      []error
	calls     []GenerateRequest
}

func (g *scriptedGenerator) Generate(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := len(g.calls)
	g.calls = append(g.calls, req)
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return &UpstreamResponse{StatusCode: http.StatusInternalServerError}, nil
}

func ptr(f float64) *float64 { return &f }

func TestResolveParams(t *testing.T) {
	tests := []struct {
		name string
		req  models.ChatRequest
		want models.GenerationParams
	}{
		{"defaults", models.ChatRequest{}, models.GenerationParams{Model: "gpt2", Temperature: 0.8, MaxNewTokens: 300}},
		{"explicit model", models.ChatRequest{Model: "mistral"}, models.GenerationParams{Model: "mistral", Temperature: 0.8, MaxNewTokens: 300}},
		{"temperature too high", models.ChatRequest{Temperature: ptr(5)}, models.GenerationParams{Model: "gpt2", Temperature: 1.3, MaxNewTokens: 300}},
		{"temperature negative", models.ChatRequest{Temperature: ptr(-1)}, models.GenerationParams{Model: "gpt2", Temperature: 0, MaxNewTokens: 300}},
		{"tokens too low", models.ChatRequest{MaxNewTokens: ptr(1)}, models.GenerationParams{Model: "gpt2", Temperature: 0.8, MaxNewTokens: 32}},
		{"tokens too high", models.ChatRequest{MaxNewTokens: ptr(9000)}, models.GenerationParams{Model: "gpt2", Temperature: 0.8, MaxNewTokens: 512}},
		{"tokens rounded", models.ChatRequest{MaxNewTokens: ptr(100.6)}, models.GenerationParams{Model: "gpt2", Temperature: 0.8, MaxNewTokens: 101}},
		{"NaN ignored", models.ChatRequest{Temperature: ptr(math.NaN())}, models.GenerationParams{Model: "gpt2", Temperature: 0.8, MaxNewTokens: 300}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveParams(&tc.req, "gpt2"))
		})
	}
}

func TestUpstreamCaller_RetriesOnceOnModelLoading(t *testing.T) {
	gen := &scriptedGenerator{responses: []*UpstreamResponse{
		{StatusCode: http.StatusServiceUnavailable},
		{StatusCode: http.StatusOK, Body: []byte(`[{"generated_text":"hi"}]`)},
	}}
	caller := NewUpstreamCaller(gen, time.Second, time.Millisecond)

	body, attempts, err := caller.Call(context.Background(), "prompt", models.GenerationParams{Model: "gpt2"}, "key")

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, gen.calls, 2)
	assert.JSONEq(t, `[{"generated_text":"hi"}]`, string(body))
}

func TestUpstreamCaller_OnlyOneRetry(t *testing.T) {
	gen := &scriptedGenerator{responses: []*UpstreamResponse{
		{StatusCode: http.StatusServiceUnavailable},
		{StatusCode: http.StatusServiceUnavailable},
		{StatusCode: http.StatusOK, Body: []byte(`"never reached"`)},
	}}
	caller := NewUpstreamCaller(gen, time.Second, time.Millisecond)

	_, attempts, err := caller.Call(context.Background(), "prompt", models.GenerationParams{}, "key")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
	assert.Equal(t, 2, attempts)
	assert.Len(t, gen.calls, 2)
}

func TestUpstreamCaller_NoRetryOnOtherFailures(t *testing.T) {
	gen := &scriptedGenerator{responses: []*UpstreamResponse{{StatusCode: http.StatusInternalServerError}}}
	caller := NewUpstreamCaller(gen, time.Second, time.Millisecond)

	_, attempts, err := caller.Call(context.Background(), "prompt", models.GenerationParams{}, "key")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	assert.Equal(t, 1, attempts)
}

func TestUpstreamCaller_TransportError(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errors.New("connection reset")}}
	caller := NewUpstreamCaller(gen, time.Second, time.Millisecond)

	_, _, err := caller.Call(context.Background(), "prompt", models.GenerationParams{}, "key")

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.ErrorContains(t, err, "connection reset")
}

func TestUpstreamCaller_MissingCredential(t *testing.T) {
	gen := &scriptedGenerator{}
	caller := NewUpstreamCaller(gen, time.Second, time.Millisecond)

	_, attempts, err := caller.Call(context.Background(), "prompt", models.GenerationParams{}, "")

	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Zero(t, attempts)
	assert.Empty(t, gen.calls)
}

func TestUpstreamCaller_CancelledDuringRetryDelay(t *testing.T) {
	gen := &scriptedGenerator{responses: []*UpstreamResponse{{StatusCode: http.StatusServiceUnavailable}}}
	caller := NewUpstreamCaller(gen, time.Second, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, attempts, err := caller.Call(ctx, "prompt", models.GenerationParams{}, "key")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestUpstreamCaller_PerAttemptTimeout(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	caller := NewUpstreamCaller(gen, 10*time.Millisecond, time.Millisecond)

	_, _, err := caller.Call(context.Background(), "prompt", models.GenerationParams{}, "key")

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type generatorFunc func(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error)

func (f generatorFunc) Generate(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error) {
	return f(ctx, req)
}
