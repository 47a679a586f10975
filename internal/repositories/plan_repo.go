package repositories

import (
	"context"

	"plangate/internal/models"

	"github.com/google/uuid"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	// GetByIDTx reads within a caller-owned transaction, for re-validation
	// that must be atomic with the surrounding writes.
	GetByIDTx(ctx context.Context, q Querier, id uuid.UUID) (*models.Plan, error)
	GetByName(ctx context.Context, name string) (*models.Plan, error)
	GetTrialPlan(ctx context.Context) (*models.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	Update(ctx context.Context, plan *models.Plan) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type planRepo struct {
	db Database
}

func NewPlanRepository(db Database) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, name, label, price, max_users, trial_days, grace_period_days, active, created_at, updated_at`

func scanPlan(row interface{ Scan(dest ...any) error }) (*models.Plan, error) {
	plan := &models.Plan{}
	err := row.Scan(&plan.ID, &plan.Name, &plan.Label, &plan.Price, &plan.MaxUsers, &plan.TrialDays, &plan.GracePeriodDays, &plan.Active, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (id, name, label, price, max_users, trial_days, grace_period_days, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, plan.ID, plan.Name, plan.Label, plan.Price, plan.MaxUsers, plan.TrialDays, plan.GracePeriodDays, plan.Active)
	return err
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

func (r *planRepo) GetByIDTx(ctx context.Context, q Querier, id uuid.UUID) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(q.QueryRow(ctx, query, id))
}

func (r *planRepo) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`
	return scanPlan(r.db.QueryRow(ctx, query, name))
}

// GetTrialPlan returns the zero-price active plan new organizations start on.
func (r *planRepo) GetTrialPlan(ctx context.Context) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE price = 0 AND active = true
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanPlan(r.db.QueryRow(ctx, query))
}

func (r *planRepo) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY price ASC`
	if activeOnly {
		query = `SELECT ` + planColumns + ` FROM plans WHERE active = true ORDER BY price ASC`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *planRepo) Update(ctx context.Context, plan *models.Plan) error {
	query := `
		UPDATE plans
		SET label = $1, price = $2, max_users = $3, trial_days = $4, grace_period_days = $5, active = $6, updated_at = NOW()
		WHERE id = $7
	`
	_, err := r.db.Exec(ctx, query, plan.Label, plan.Price, plan.MaxUsers, plan.TrialDays, plan.GracePeriodDays, plan.Active, plan.ID)
	return err
}

// Deactivate retires a plan. Plans are never deleted while referenced by a
// subscription, so there is no Delete.
func (r *planRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE plans SET active = false, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
