package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"calmi-backend/internal/models"
)

const (
	defaultTemperature  = 0.8
	minTemperature      = 0.0
	maxTemperature      = 1.3
	defaultMaxNewTokens = 300
	minMaxNewTokens     = 32
	maxMaxNewTokens     = 512
)

// GenerateRequest is one attempt's worth of input for a Generator.
type GenerateRequest struct {
	Prompt string
	Params models.GenerationParams
	APIKey string
}

// UpstreamResponse is the raw outcome of one attempt. Non-2xx statuses are
// returned here rather than as errors so the caller can decide on retries.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// Generator performs a single call against a text-generation provider.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error)
}

// ResolveParams applies defaults and clamps the optional generation fields.
func ResolveParams(req *models.ChatRequest, defaultModel string) models.GenerationParams {
	params := models.GenerationParams{
		Model:        req.Model,
		Temperature:  defaultTemperature,
		MaxNewTokens: defaultMaxNewTokens,
	}
	if params.Model == "" {
		params.Model = defaultModel
	}
	if req.Temperature != nil && !math.IsNaN(*req.Temperature) {
		params.Temperature = math.Max(minTemperature, math.Min(*req.Temperature, maxTemperature))
	}
	if req.MaxNewTokens != nil && !math.IsNaN(*req.MaxNewTokens) {
		n := math.Round(*req.MaxNewTokens)
		params.MaxNewTokens = int(math.Min(math.Max(n, minMaxNewTokens), maxMaxNewTokens))
	}
	return params
}

// UpstreamCaller wraps a Generator with the credential check, a per-attempt
// timeout and a single delayed retry while the model is loading.
type UpstreamCaller struct {
	generator  Generator
	timeout    time.Duration
	retryDelay time.Duration
}

func NewUpstreamCaller(generator Generator, timeout, retryDelay time.Duration) *UpstreamCaller {
	return &UpstreamCaller{
		generator:  generator,
		timeout:    timeout,
		retryDelay: retryDelay,
	}
}

// Call returns the successful response body and the number of attempts made.
func (c *UpstreamCaller) Call(ctx context.Context, prompt string, params models.GenerationParams, apiKey string) ([]byte, int, error) {
	if apiKey == "" {
		return nil, 0, &MissingCredentialError{Message: "Calmi server is missing an upstream API key. Set HUGGING_FACE_API_KEY (or GEMINI_API_KEY) on the server."}
	}

	req := GenerateRequest{Prompt: prompt, Params: params, APIKey: apiKey}

	resp, err := c.attempt(ctx, req)
	attempts := 1
	if err == nil && resp.StatusCode == http.StatusServiceUnavailable {
		// Model is cold; give it a moment and try exactly once more.
		select {
		case <-ctx.Done():
			return nil, attempts, &UpstreamError{Status: resp.StatusCode, Err: ctx.Err()}
		case <-time.After(c.retryDelay):
		}
		resp, err = c.attempt(ctx, req)
		attempts++
	}

	if err != nil {
		return nil, attempts, &UpstreamError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, attempts, &UpstreamError{Status: resp.StatusCode, Body: resp.Body, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return resp.Body, attempts, nil
}

func (c *UpstreamCaller) attempt(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.generator.Generate(ctx, req)
}
