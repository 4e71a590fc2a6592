package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"calmi-backend/internal/models"
	"calmi-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *services.ValidationError
		missing    *services.MissingCredentialError
		upstream   *services.UpstreamError
		notFound   *services.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", firstFieldMessage(validation.Fields), validation.Fields, r))
	case errors.As(err, &missing):
		log.Printf("configuration error on %s: %s", r.URL.Path, missing.Message)
		writeJSON(w, http.StatusInternalServerError, errorResp("MISSING_CREDENTIAL", missing.Message, r))
	case errors.As(err, &upstream):
		resp := errorResp("UPSTREAM_ERROR", "Upstream error", r)
		if len(upstream.Body) > 0 && json.Valid(upstream.Body) {
			resp.Error.Details = json.RawMessage(upstream.Body)
		}
		writeJSON(w, http.StatusBadGateway, resp)
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound.Message, r))
	default:
		log.Printf("unexpected error on %s: %v", r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// firstFieldMessage picks a human-readable summary for single-field failures.
func firstFieldMessage(fields map[string]string) string {
	if len(fields) == 1 {
		for _, msg := range fields {
			return msg
		}
	}
	return "Validation failed"
}
