package repositories

import (
	"context"
	"time"

	"plangate/internal/models"

	"github.com/google/uuid"
)

type UpgradeRequestRepository interface {
	Create(ctx context.Context, q Querier, req *models.UpgradeRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UpgradeRequest, error)
	// GetByIDForUpdate locks the request row so concurrent status
	// transitions serialize; must run on an open transaction.
	GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.UpgradeRequest, error)
	CountOutstanding(ctx context.Context, q Querier, orgID uuid.UUID) (int, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.UpgradeRequest, error)
	ListByStatus(ctx context.Context, status models.UpgradeStatus, limit, offset int) ([]*models.UpgradeRequest, error)
	SetApproved(ctx context.Context, q Querier, id uuid.UUID, approvedBy uuid.UUID, approvedAt time.Time) error
	SetCompleted(ctx context.Context, q Querier, id uuid.UUID, completedBy uuid.UUID, completedAt time.Time) error
	SetTerminal(ctx context.Context, q Querier, id uuid.UUID, status models.UpgradeStatus, notes string) error
	ArchiveTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type upgradeRequestRepo struct {
	db Database
}

func NewUpgradeRequestRepository(db Database) UpgradeRequestRepository {
	return &upgradeRequestRepo{db: db}
}

const upgradeColumns = `id, organization_id, current_plan_id, requested_plan_id, requested_by, amount_due, status, notes, requested_at, approved_at, approved_by, completed_at, completed_by, updated_at`

func scanUpgradeRequest(row interface{ Scan(dest ...any) error }) (*models.UpgradeRequest, error) {
	req := &models.UpgradeRequest{}
	err := row.Scan(&req.ID, &req.OrganizationID, &req.CurrentPlanID, &req.RequestedPlanID, &req.RequestedBy, &req.AmountDue, &req.Status, &req.Notes, &req.RequestedAt, &req.ApprovedAt, &req.ApprovedBy, &req.CompletedAt, &req.CompletedBy, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *upgradeRequestRepo) Create(ctx context.Context, q Querier, req *models.UpgradeRequest) error {
	query := `
		INSERT INTO upgrade_requests (id, organization_id, current_plan_id, requested_plan_id, requested_by, amount_due, status, notes, requested_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := q.Exec(ctx, query, req.ID, req.OrganizationID, req.CurrentPlanID, req.RequestedPlanID, req.RequestedBy, req.AmountDue, req.Status, req.Notes, req.RequestedAt)
	return err
}

func (r *upgradeRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UpgradeRequest, error) {
	query := `SELECT ` + upgradeColumns + ` FROM upgrade_requests WHERE id = $1`
	return scanUpgradeRequest(r.db.QueryRow(ctx, query, id))
}

func (r *upgradeRequestRepo) GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.UpgradeRequest, error) {
	query := `SELECT ` + upgradeColumns + ` FROM upgrade_requests WHERE id = $1 FOR UPDATE`
	return scanUpgradeRequest(q.QueryRow(ctx, query, id))
}

func (r *upgradeRequestRepo) CountOutstanding(ctx context.Context, q Querier, orgID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM upgrade_requests
		WHERE organization_id = $1 AND status IN ('pending', 'approved')
	`
	err := q.QueryRow(ctx, query, orgID).Scan(&count)
	return count, err
}

func (r *upgradeRequestRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.UpgradeRequest, error) {
	query := `
		SELECT ` + upgradeColumns + `
		FROM upgrade_requests
		WHERE organization_id = $1 AND status != 'archived'
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, orgID, limit, offset)
}

func (r *upgradeRequestRepo) ListByStatus(ctx context.Context, status models.UpgradeStatus, limit, offset int) ([]*models.UpgradeRequest, error) {
	query := `
		SELECT ` + upgradeColumns + `
		FROM upgrade_requests
		WHERE status = $1
		ORDER BY requested_at ASC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, status, limit, offset)
}

func (r *upgradeRequestRepo) list(ctx context.Context, query string, args ...any) ([]*models.UpgradeRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.UpgradeRequest
	for rows.Next() {
		req, err := scanUpgradeRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *upgradeRequestRepo) SetApproved(ctx context.Context, q Querier, id uuid.UUID, approvedBy uuid.UUID, approvedAt time.Time) error {
	query := `
		UPDATE upgrade_requests
		SET status = 'approved', approved_by = $1, approved_at = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := q.Exec(ctx, query, approvedBy, approvedAt, id)
	return err
}

func (r *upgradeRequestRepo) SetCompleted(ctx context.Context, q Querier, id uuid.UUID, completedBy uuid.UUID, completedAt time.Time) error {
	query := `
		UPDATE upgrade_requests
		SET status = 'completed', completed_by = $1, completed_at = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := q.Exec(ctx, query, completedBy, completedAt, id)
	return err
}

func (r *upgradeRequestRepo) SetTerminal(ctx context.Context, q Querier, id uuid.UUID, status models.UpgradeStatus, notes string) error {
	query := `
		UPDATE upgrade_requests
		SET status = $1, notes = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := q.Exec(ctx, query, status, notes, id)
	return err
}

// ArchiveTerminalBefore relabels old completed/rejected/cancelled requests for
// list hygiene. Outstanding requests are never archived.
func (r *upgradeRequestRepo) ArchiveTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE upgrade_requests
		SET status = 'archived', updated_at = NOW()
		WHERE status IN ('completed', 'rejected', 'cancelled') AND updated_at < $1
	`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
