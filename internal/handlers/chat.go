package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"calmi-backend/internal/models"
)

const (
	// SourceHeader tells the client whether the reply came from the model.
	SourceHeader = "X-Calmi-Source"
	// CredentialOverrideHeader lets a caller bring their own upstream key.
	CredentialOverrideHeader = "X-HF-Key"

	maxChatBodyBytes = 1 << 20
)

type replyService interface {
	Reply(ctx context.Context, req *models.ChatRequest, overrideKey string) (*models.ReplyResult, error)
}

type ChatHandler struct {
	replies replyService
}

func NewChatHandler(replies replyService) *ChatHandler {
	return &ChatHandler{replies: replies}
}

func (h *ChatHandler) Reply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.replies.Reply(r.Context(), &req, r.Header.Get(CredentialOverrideHeader))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set(SourceHeader, string(result.Source))
	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: result.Text})
}
