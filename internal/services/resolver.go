package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxReplyLength is measured in characters (runes), not bytes.
const MaxReplyLength = 3000

// parseStrategy tries to recognise one payload shape. ok is false when the
// shape does not match and the next strategy should be tried.
type parseStrategy func(raw json.RawMessage) (text string, ok bool)

// replyStrategies are tried in order; the first structural match wins.
var replyStrategies = []parseStrategy{
	parseGeneratedList,
	parseGeneratedObject,
	parseRawString,
	stringifyPayload,
}

type generatedText struct {
	GeneratedText *string `json:"generated_text"`
}

func parseGeneratedList(raw json.RawMessage) (string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return "", false
	}
	return parseGeneratedObject(items[0])
}

func parseGeneratedObject(raw json.RawMessage) (string, bool) {
	var obj generatedText
	if err := json.Unmarshal(raw, &obj); err != nil || obj.GeneratedText == nil {
		return "", false
	}
	return *obj.GeneratedText, true
}

func parseRawString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func stringifyPayload(raw json.RawMessage) (string, bool) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", false
	}
	return compact.String(), true
}

var errEmptyReply = errors.New("upstream returned no usable text")

// ResolveReply turns an upstream payload into reply text, or an *UpstreamError
// when nothing usable came back.
func ResolveReply(body []byte) (string, error) {
	raw := json.RawMessage(bytes.TrimSpace(body))
	if !json.Valid(raw) {
		return "", &UpstreamError{Status: 200, Body: body, Err: errors.New("malformed upstream payload")}
	}

	var text string
	for _, strategy := range replyStrategies {
		if t, ok := strategy(raw); ok {
			text = t
			break
		}
	}

	text = ClampReply(strings.TrimSpace(text))
	switch text {
	case "", "{}", "[]", "null":
		return "", &UpstreamError{Status: 200, Body: body, Err: errEmptyReply}
	}
	return text, nil
}

// ClampReply cuts text to MaxReplyLength characters.
func ClampReply(text string) string {
	return truncateRunes(text, MaxReplyLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
