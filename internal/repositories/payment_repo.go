package repositories

import (
	"context"

	"plangate/internal/models"

	"github.com/google/uuid"
)

// PaymentRepository is append-only: entries are created and listed, never
// updated. RemoveDuplicates is the one sanctioned delete and it never touches
// the earliest entry of a duplicate group.
type PaymentRepository interface {
	Create(ctx context.Context, q Querier, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	FindDuplicates(ctx context.Context) ([]*models.Payment, error)
	RemoveDuplicates(ctx context.Context) (int64, error)
}

type paymentRepo struct {
	db Database
}

func NewPaymentRepository(db Database) PaymentRepository {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, subscription_id, amount, type, status, description, days_added, receipt_object, created_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	payment := &models.Payment{}
	err := row.Scan(&payment.ID, &payment.SubscriptionID, &payment.Amount, &payment.Type, &payment.Status, &payment.Description, &payment.DaysAdded, &payment.ReceiptObject, &payment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) Create(ctx context.Context, q Querier, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, subscription_id, amount, type, status, description, days_added, receipt_object, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := q.Exec(ctx, query, payment.ID, payment.SubscriptionID, payment.Amount, payment.Type, payment.Status, payment.Description, payment.DaysAdded, payment.ReceiptObject)
	return err
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRow(ctx, query, id))
}

func (r *paymentRepo) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE subscription_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, subscriptionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// FindDuplicates reports entries that share subscription, amount and calendar
// day with an earlier entry. Duplicates are an anomaly to reconcile, not a
// constraint violation.
func (r *paymentRepo) FindDuplicates(ctx context.Context) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM (
			SELECT ` + paymentColumns + `,
				ROW_NUMBER() OVER (
					PARTITION BY subscription_id, amount, DATE(created_at)
					ORDER BY created_at ASC, id ASC
				) AS rn
			FROM payments
		) ranked
		WHERE rn > 1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) RemoveDuplicates(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM payments
		WHERE id IN (
			SELECT id FROM (
				SELECT id,
					ROW_NUMBER() OVER (
						PARTITION BY subscription_id, amount, DATE(created_at)
						ORDER BY created_at ASC, id ASC
					) AS rn
				FROM payments
			) ranked
			WHERE rn > 1
		)
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
