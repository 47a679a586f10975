package repositories

import (
	"context"

	"plangate/internal/models"

	"github.com/google/uuid"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	List(ctx context.Context, limit, offset int) ([]*models.Organization, error)
	// LockRow takes the organization row lock that serializes quota
	// decisions for one organization. Must run on an open transaction.
	LockRow(ctx context.Context, q Querier, id uuid.UUID) error
}

type organizationRepo struct {
	db Database
}

func NewOrganizationRepository(db Database) OrganizationRepository {
	return &organizationRepo{db: db}
}

const organizationColumns = `id, name, subdomain, active, plan_id, max_users_fallback, created_at, updated_at`

func scanOrganization(row interface{ Scan(dest ...any) error }) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Subdomain, &org.Active, &org.PlanID, &org.MaxUsersFallback, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (r *organizationRepo) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, subdomain, active, plan_id, max_users_fallback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, org.ID, org.Name, org.Subdomain, org.Active, org.PlanID, org.MaxUsersFallback)
	return err
}

func (r *organizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	return scanOrganization(r.db.QueryRow(ctx, query, id))
}

func (r *organizationRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE subdomain = $1`
	return scanOrganization(r.db.QueryRow(ctx, query, subdomain))
}

func (r *organizationRepo) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, subdomain = $2, active = $3, plan_id = $4, max_users_fallback = $5, updated_at = NOW()
		WHERE id = $6
	`
	_, err := r.db.Exec(ctx, query, org.Name, org.Subdomain, org.Active, org.PlanID, org.MaxUsersFallback, org.ID)
	return err
}

func (r *organizationRepo) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *organizationRepo) LockRow(ctx context.Context, q Querier, id uuid.UUID) error {
	var locked uuid.UUID
	return q.QueryRow(ctx, `SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
}
