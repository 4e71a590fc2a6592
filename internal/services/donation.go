package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"calmi-backend/internal/models"
)

// PaymentQueue is the Redis list webhook events wait on.
const PaymentQueue = "queue:payment-events"

const (
	eventChargeSuccess = "charge.success"
	statusSuccess      = "success"
)

type donationRepository interface {
	Upsert(ctx context.Context, d *models.Donation) error
}

// DonationService records successful charges. Both the repository and the
// queue are optional: without a database donations are only logged, without
// Redis webhook events are processed inline.
type DonationService struct {
	paystack *PaystackClient
	repo     donationRepository
	queue    *redis.Client
}

func NewDonationService(paystack *PaystackClient, repo donationRepository, queue *redis.Client) *DonationService {
	return &DonationService{paystack: paystack, repo: repo, queue: queue}
}

// Verify asks Paystack about a reference and records the donation when the
// charge went through.
func (s *DonationService) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	result, err := s.paystack.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if result.Decoded && result.Response.Status && result.Response.Data.Status == statusSuccess {
		if err := s.record(ctx, result.Response.Data, "verify"); err != nil {
			// Paystack already confirmed the charge; the caller still gets its answer.
			log.Printf("donation: failed to record verified reference %s: %v", reference, err)
		}
	}
	return result, nil
}

// SecretConfigured reports whether webhook signatures can be checked.
func (s *DonationService) SecretConfigured() bool {
	return s.paystack.Configured()
}

func (s *DonationService) ValidSignature(body []byte, signature string) bool {
	return VerifySignature(s.paystack.secretKey, body, signature)
}

// AcceptEvent takes a signature-checked webhook body and queues it, or
// processes it right away when no queue is configured. Bodies that are not
// an event are logged and dropped.
func (s *DonationService) AcceptEvent(ctx context.Context, body []byte) error {
	var event models.PaystackEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// Signed but unreadable; redelivery would not change that, so ack it.
		log.Printf("donation: ignoring signed webhook with unparseable body: %v", err)
		return nil
	}

	job := models.PaymentJob{
		ID:         uuid.New(),
		Event:      event.Event,
		Reference:  event.Data.Reference,
		Payload:    json.RawMessage(body),
		ReceivedAt: time.Now(),
	}

	if s.queue == nil {
		return s.ProcessJob(ctx, &job)
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode payment job: %w", err)
	}
	if err := s.queue.RPush(ctx, PaymentQueue, string(jobBytes)).Err(); err != nil {
		log.Printf("donation: queue unavailable, processing %s inline: %v", job.Reference, err)
		return s.ProcessJob(ctx, &job)
	}
	return nil
}

// Requeue puts a job back on the queue, used by the worker pool for retries.
func (s *DonationService) Requeue(ctx context.Context, job *models.PaymentJob) error {
	if s.queue == nil {
		return fmt.Errorf("no payment queue configured")
	}
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.queue.RPush(ctx, PaymentQueue, string(jobBytes)).Err()
}

// ProcessJob acts on one webhook event. Only charge.success changes state.
func (s *DonationService) ProcessJob(ctx context.Context, job *models.PaymentJob) error {
	if job.Event != eventChargeSuccess {
		log.Printf("donation: ignoring %s event for %s", job.Event, job.Reference)
		return nil
	}

	var event models.PaystackEvent
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		return fmt.Errorf("failed to parse event %s: %w", job.ID, err)
	}
	if event.Data.Reference == "" {
		return fmt.Errorf("event %s has no reference", job.ID)
	}

	return s.record(ctx, event.Data, "webhook")
}

func (s *DonationService) record(ctx context.Context, tx models.PaystackTransaction, source string) error {
	d := &models.Donation{
		Reference: tx.Reference,
		Status:    tx.Status,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Email:     tx.Customer.Email,
		Channel:   tx.Channel,
		Source:    source,
		PaidAt:    tx.PaidAt,
	}
	if d.Status == "" {
		d.Status = statusSuccess
	}

	if s.repo == nil {
		log.Printf("donation: %s %d %s via %s (no database configured)", d.Reference, d.Amount, d.Currency, source)
		return nil
	}

	if err := s.repo.Upsert(ctx, d); err != nil {
		return fmt.Errorf("failed to store donation %s: %w", d.Reference, err)
	}
	log.Printf("donation: recorded %s %d %s via %s", d.Reference, d.Amount, d.Currency, source)
	return nil
}
