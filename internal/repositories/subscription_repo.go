package repositories

import (
	"context"

	"plangate/internal/models"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error)
	// GetByOrganizationForUpdate locks the subscription row so an in-flight
	// upgrade completion and a status sweep serialize per subscription.
	GetByOrganizationForUpdate(ctx context.Context, q Querier, orgID uuid.UUID) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error
	// ApplyUpgrade swaps plan, status and term dates in one statement; runs
	// inside the upgrade-completion transaction.
	ApplyUpgrade(ctx context.Context, q Querier, sub *models.Subscription) error
	ListAll(ctx context.Context) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepository(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

const subscriptionColumns = `id, organization_id, plan_id, status, start_date, end_date, payment_status, created_at, updated_at`

func scanSubscription(row interface{ Scan(dest ...any) error }) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var status string
	err := row.Scan(&sub.ID, &sub.OrganizationID, &sub.PlanID, &status, &sub.StartDate, &sub.EndDate, &sub.PaymentStatus, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.Status, err = models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, organization_id, plan_id, status, start_date, end_date, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, sub.ID, sub.OrganizationID, sub.PlanID, sub.Status.String(), sub.StartDate, sub.EndDate, sub.PaymentStatus)
	return err
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

func (r *subscriptionRepo) GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE organization_id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, orgID))
}

func (r *subscriptionRepo) GetByOrganizationForUpdate(ctx context.Context, q Querier, orgID uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE organization_id = $1 FOR UPDATE`
	return scanSubscription(q.QueryRow(ctx, query, orgID))
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status.String(), id)
	return err
}

func (r *subscriptionRepo) ApplyUpgrade(ctx context.Context, q Querier, sub *models.Subscription) error {
	query := `
		UPDATE subscriptions
		SET plan_id = $1, status = $2, start_date = $3, end_date = $4, payment_status = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := q.Exec(ctx, query, sub.PlanID, sub.Status.String(), sub.StartDate, sub.EndDate, sub.PaymentStatus, sub.ID)
	return err
}

// ListAll feeds the periodic status sweep; the fleet is small enough that the
// sweep does not need keyset pagination yet.
func (r *subscriptionRepo) ListAll(ctx context.Context) ([]*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
