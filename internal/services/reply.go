package services

import (
	"context"
	"errors"
	"log"

	"calmi-backend/internal/models"
)

// ReplyService runs the conversational reply pipeline: validate, build the
// prompt, call upstream, resolve the payload, and fall back when anything
// after validation goes wrong. It keeps no per-request state.
type ReplyService struct {
	upstream     *UpstreamCaller
	fallback     *FallbackGenerator
	apiKey       string
	defaultModel string
}

func NewReplyService(upstream *UpstreamCaller, fallback *FallbackGenerator, apiKey, defaultModel string) *ReplyService {
	return &ReplyService{
		upstream:     upstream,
		fallback:     fallback,
		apiKey:       apiKey,
		defaultModel: defaultModel,
	}
}

// CredentialConfigured reports whether a server-side upstream key is set.
func (s *ReplyService) CredentialConfigured() bool {
	return s.apiKey != ""
}

// Reply returns exactly one result for a valid request. Only *ValidationError
// and *MissingCredentialError are returned as errors; every other failure is
// absorbed into a fallback reply.
func (s *ReplyService) Reply(ctx context.Context, req *models.ChatRequest, overrideKey string) (result *models.ReplyResult, err error) {
	if err := ValidateChatRequest(req); err != nil {
		return nil, err
	}

	apiKey := s.apiKey
	if overrideKey != "" {
		apiKey = overrideKey
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ai-chat: recovered from panic, using fallback: %v", r)
			result, err = s.fallback.Generate(req), nil
		}
	}()

	prompt := BuildPrompt(req)
	params := ResolveParams(req, s.defaultModel)

	body, attempts, err := s.upstream.Call(ctx, prompt, params, apiKey)
	if err != nil {
		var missing *MissingCredentialError
		if errors.As(err, &missing) {
			return nil, err
		}
		log.Printf("ai-chat: model %s failed after %d attempt(s), using fallback: %v", params.Model, attempts, err)
		return s.fallback.Generate(req), nil
	}

	text, err := ResolveReply(body)
	if err != nil {
		log.Printf("ai-chat: model %s returned unusable payload, using fallback: %v", params.Model, err)
		return s.fallback.Generate(req), nil
	}

	return &models.ReplyResult{Text: text, Source: models.SourceLive}, nil
}
