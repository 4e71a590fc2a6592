package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiGenerator is the alternate provider. Keys can differ per request, so a
// client is created for each call. The SDK retries 503 on its own until the
// context deadline; other HTTP errors come back as an UpstreamResponse.
type GeminiGenerator struct {
	opts []option.ClientOption
}

// NewGeminiGenerator takes extra client options, such as an endpoint override,
// applied before the per-request API key.
func NewGeminiGenerator(opts ...option.ClientOption) *GeminiGenerator {
	return &GeminiGenerator{opts: opts}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*UpstreamResponse, error) {
	opts := append(append([]option.ClientOption{}, g.opts...), option.WithAPIKey(req.APIKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Params.Model)
	model.SetTemperature(float32(req.Params.Temperature))
	model.SetMaxOutputTokens(int32(req.Params.MaxNewTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			body := []byte(apiErr.Body)
			if len(body) == 0 {
				body = []byte(apiErr.Message)
			}
			return &UpstreamResponse{StatusCode: apiErr.Code, Body: body}, nil
		}
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	body, err := json.Marshal(extractText(resp))
	if err != nil {
		return nil, fmt.Errorf("encode Gemini text: %w", err)
	}

	return &UpstreamResponse{StatusCode: http.StatusOK, Body: body}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
