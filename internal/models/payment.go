package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Donation struct {
	ID        uuid.UUID  `json:"id"`
	Reference string     `json:"reference"`
	Status    string     `json:"status"`   // "success" | "failed" | "abandoned" | ...
	Amount    int64      `json:"amount"`   // minor units (cents, kobo)
	Currency  string     `json:"currency"` // "USD", "NGN", ...
	Email     string     `json:"email"`
	Channel   string     `json:"channel"`
	Source    string     `json:"source"` // "verify" | "webhook"
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PaystackTransaction is the subset of a Paystack transaction we care about.
// It appears both in verify responses and in webhook event payloads.
type PaystackTransaction struct {
	Reference string     `json:"reference"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Channel   string     `json:"channel"`
	PaidAt    *time.Time `json:"paid_at"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type PaystackVerifyResponse struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    PaystackTransaction `json:"data"`
}

type PaystackEvent struct {
	Event string              `json:"event"` // "charge.success", ...
	Data  PaystackTransaction `json:"data"`
}

// PaymentJob is a webhook event waiting on the Redis queue.
type PaymentJob struct {
	ID         uuid.UUID       `json:"id"`
	Event      string          `json:"event"`
	Reference  string          `json:"reference"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	ReceivedAt time.Time       `json:"received_at"`
}

type VerifyRequest struct {
	Reference string `json:"reference"`
}
