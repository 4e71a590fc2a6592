package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxUpstreamBody caps how much of an inference response we read.
const maxUpstreamBody = 1 << 20

type hfParameters struct {
	Temperature    float64 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

// HuggingFaceGenerator calls the Hugging Face inference API.
type HuggingFaceGenerator struct {
	baseURL    string
	httpClient *http.Client
}

func NewHuggingFaceGenerator(baseURL string, timeout time.Duration) *HuggingFaceGenerator {
	return &HuggingFaceGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *HuggingFaceGenerator) Generate(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error) {
	payload, err := json.Marshal(hfRequest{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			Temperature:    req.Params.Temperature,
			MaxNewTokens:   req.Params.MaxNewTokens,
			ReturnFullText: false,
		},
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	url := g.baseURL + "/" + strings.TrimLeft(req.Params.Model, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create inference request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}

	return &UpstreamResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
