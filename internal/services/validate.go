package services

import (
	"strings"

	"calmi-backend/internal/models"
)

// ValidateChatRequest rejects requests without a usable message. Every other
// field is optional and gets coerced later.
func ValidateChatRequest(req *models.ChatRequest) error {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return &ValidationError{Fields: map[string]string{"message": "Missing 'message' in request body"}}
	}
	return nil
}
