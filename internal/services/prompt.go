package services

import (
	"strings"

	"calmi-backend/internal/models"
)

const personaPrompt = "You are Calmi, a kind, empathetic mental health companion. You respond briefly, with validation, gentle guidance, and safety. " +
	"You are not a replacement for professional help. Avoid clinical diagnoses. Encourage breathing, grounding, and reaching out for help if needed. " +
	"Provide 2-4 concrete, respectful suggestions when helpful. Vary your wording to avoid repetition."

const (
	voiceHint = "The user spoke out loud. Be gentle and concise."
	textHint  = "The user typed their message."
)

const assistantCue = "\n\nASSISTANT:"

// BuildPrompt flattens persona, history and the new message into one
// completion-style document. History is passed through untruncated.
func BuildPrompt(req *models.ChatRequest) string {
	turns := make([]models.ChatTurn, 0, len(req.History)+3)
	turns = append(turns, models.ChatTurn{Role: models.RoleSystem, Content: personaPrompt})

	if req.InputMode != "" {
		hint := textHint
		if req.IsVoice() {
			hint = voiceHint
		}
		turns = append(turns, models.ChatTurn{Role: models.RoleSystem, Content: hint})
	}

	turns = append(turns, req.History...)
	turns = append(turns, models.ChatTurn{Role: models.RoleUser, Content: strings.TrimSpace(req.Message)})

	blocks := make([]string, len(turns))
	for i, t := range turns {
		blocks[i] = strings.ToUpper(normalizeRole(t.Role)) + ": " + t.Content
	}

	return strings.Join(blocks, "\n\n") + assistantCue
}

func normalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case models.RoleSystem, models.RoleUser, models.RoleAssistant:
		return r
	default:
		return models.RoleUser
	}
}
