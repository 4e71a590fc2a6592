package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"calmi-backend/internal/models"
)

type DonationRepo struct {
	pool *pgxpool.Pool
}

func NewDonationRepo(pool *pgxpool.Pool) *DonationRepo {
	return &DonationRepo{pool: pool}
}

// Upsert stores a donation keyed by its Paystack reference. Replaying the same
// webhook or verifying twice updates the row instead of duplicating it.
func (r *DonationRepo) Upsert(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (reference, status, amount, currency, email, channel, source, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reference) DO UPDATE
		SET status = EXCLUDED.status,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE donations.email END,
			channel = CASE WHEN EXCLUDED.channel <> '' THEN EXCLUDED.channel ELSE donations.channel END,
			paid_at = COALESCE(EXCLUDED.paid_at, donations.paid_at),
			updated_at = NOW()
		RETURNING id, source, created_at, updated_at
	`

	return r.pool.QueryRow(ctx, query,
		d.Reference, d.Status, d.Amount, d.Currency, d.Email, d.Channel, d.Source, d.PaidAt,
	).Scan(&d.ID, &d.Source, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DonationRepo) GetByReference(ctx context.Context, reference string) (*models.Donation, error) {
	d := &models.Donation{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, reference, status, amount, currency, email, channel, source, paid_at, created_at, updated_at
		FROM donations
		WHERE reference = $1
	`, reference).Scan(
		&d.ID, &d.Reference, &d.Status, &d.Amount, &d.Currency, &d.Email,
		&d.Channel, &d.Source, &d.PaidAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
