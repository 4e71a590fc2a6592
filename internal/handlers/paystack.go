package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"calmi-backend/internal/models"
	"calmi-backend/internal/services"
)

const (
	SignatureHeader     = "X-Paystack-Signature"
	maxWebhookBodyBytes = 1 << 20
)

type donationService interface {
	Verify(ctx context.Context, reference string) (*services.VerifyResult, error)
	SecretConfigured() bool
	ValidSignature(body []byte, signature string) bool
	AcceptEvent(ctx context.Context, body []byte) error
}

type donationLookup interface {
	GetByReference(ctx context.Context, reference string) (*models.Donation, error)
}

type PaystackHandler struct {
	donations donationService
	ledger    donationLookup
}

// NewPaystackHandler wires the payment routes. ledger may be nil when no
// database is configured.
func NewPaystackHandler(donations donationService, ledger donationLookup) *PaystackHandler {
	return &PaystackHandler{donations: donations, ledger: ledger}
}

// Verify accepts the reference as JSON body (POST) or query parameter (GET)
// and relays Paystack's answer verbatim.
func (h *PaystackHandler) Verify(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if r.Method == http.MethodPost {
		var req models.VerifyRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
			return
		}
		reference = req.Reference
	}

	if !h.donations.SecretConfigured() {
		handleServiceError(w, r, &services.MissingCredentialError{Message: "Server missing PAYSTACK_SECRET_KEY env var."})
		return
	}

	reference = strings.TrimSpace(reference)
	if reference == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing 'reference'", r))
		return
	}

	result, err := h.donations.Verify(r.Context(), reference)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result.Raw)
}

// Webhook checks the signature over the raw body before anything is parsed.
func (h *PaystackHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if !h.donations.SecretConfigured() {
		handleServiceError(w, r, &services.MissingCredentialError{Message: "Missing PAYSTACK_SECRET_KEY"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read request body", r))
		return
	}

	if !h.donations.ValidSignature(body, r.Header.Get(SignatureHeader)) {
		log.Println("Rejected Paystack webhook with invalid signature")
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Invalid signature", r))
		return
	}

	if err := h.donations.AcceptEvent(r.Context(), body); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Donation returns the ledger entry for a reference.
func (h *PaystackHandler) Donation(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("LEDGER_UNAVAILABLE", "Donation ledger is not configured", r))
		return
	}

	donation, err := h.ledger.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if errors.Is(err, pgx.ErrNoRows) {
		handleServiceError(w, r, &services.NotFoundError{Message: "Donation not found"})
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, donation)
}
