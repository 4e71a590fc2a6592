package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ChatTurn is a single message of the conversation history sent by the client.
type ChatTurn struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	InputModeText  = "text"
	InputModeVoice = "voice"
)

// ChatRequest is the payload sent to the ai-chat endpoint.
type ChatRequest struct {
	Message      string     `json:"message"`
	History      []ChatTurn `json:"history"`
	Model        string     `json:"model,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty"`
	MaxNewTokens *float64   `json:"max_new_tokens,omitempty"`
	InputMode    string     `json:"input_mode,omitempty"` // "text" | "voice"
}

// UnmarshalJSON only insists on message being a string. Optional fields with
// the wrong type decode to their zero value so defaults apply later, and
// numeric strings are accepted for temperature and max_new_tokens.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message      json.RawMessage `json:"message"`
		History      json.RawMessage `json:"history"`
		Model        json.RawMessage `json:"model"`
		Temperature  json.RawMessage `json:"temperature"`
		MaxNewTokens json.RawMessage `json:"max_new_tokens"`
		InputMode    json.RawMessage `json:"input_mode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	req := ChatRequest{
		History:      looseHistory(raw.History),
		Model:        looseString(raw.Model),
		Temperature:  looseNumber(raw.Temperature),
		MaxNewTokens: looseNumber(raw.MaxNewTokens),
		InputMode:    looseString(raw.InputMode),
	}
	if len(raw.Message) > 0 {
		if err := json.Unmarshal(raw.Message, &req.Message); err != nil {
			return fmt.Errorf("message must be a string: %w", err)
		}
	}

	*r = req
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func looseString(raw json.RawMessage) string {
	var s string
	if isAbsent(raw) || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func looseNumber(raw json.RawMessage) *float64 {
	if isAbsent(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// looseHistory drops entries that are not objects.
func looseHistory(raw json.RawMessage) []ChatTurn {
	var items []json.RawMessage
	if isAbsent(raw) || json.Unmarshal(raw, &items) != nil {
		return nil
	}

	turns := make([]ChatTurn, 0, len(items))
	for _, item := range items {
		var t struct {
			Role    json.RawMessage `json:"role"`
			Content json.RawMessage `json:"content"`
		}
		if isAbsent(item) || json.Unmarshal(item, &t) != nil {
			continue
		}
		turns = append(turns, ChatTurn{Role: looseString(t.Role), Content: looseString(t.Content)})
	}
	return turns
}

// IsVoice reports whether the message was spoken rather than typed.
func (r ChatRequest) IsVoice() bool {
	return r.InputMode == InputModeVoice
}

// ChatResponse is the body returned for every reply, live or fallback.
type ChatResponse struct {
	Reply string `json:"reply"`
}

type ReplySource string

const (
	SourceLive     ReplySource = "live"
	SourceFallback ReplySource = "fallback"
)

// ReplyResult is what the reply pipeline produces for one request.
type ReplyResult struct {
	Text   string
	Source ReplySource
}

// GenerationParams are the generation settings after defaults and clamping.
type GenerationParams struct {
	Model        string  `json:"-"`
	Temperature  float64 `json:"temperature"`
	MaxNewTokens int     `json:"max_new_tokens"`
}

type Topic string

const (
	TopicPanic   Topic = "panic"
	TopicAnxiety Topic = "anxiety"
	TopicLow     Topic = "low"
	TopicSleep   Topic = "sleep"
	TopicAnger   Topic = "anger"
	TopicGeneral Topic = "general"
)
