package repositories

import (
	"context"

	"plangate/internal/models"

	"github.com/google/uuid"
)

// MemberCounts is the seat ledger for one organization. Total is what counts
// against the plan limit; deactivated members still occupy their slot.
type MemberCounts struct {
	Active   int
	Inactive int
}

func (c MemberCounts) Total() int { return c.Active + c.Inactive }

type MemberRepository interface {
	Create(ctx context.Context, q Querier, member *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, error)
	CountByOrganization(ctx context.Context, q Querier, orgID uuid.UUID) (MemberCounts, error)
	SetActive(ctx context.Context, q Querier, id uuid.UUID, active bool) error
	SetOrganization(ctx context.Context, q Querier, id, orgID uuid.UUID) error
	Update(ctx context.Context, member *models.Member) error
}

type memberRepo struct {
	db Database
}

func NewMemberRepository(db Database) MemberRepository {
	return &memberRepo{db: db}
}

const memberColumns = `id, organization_id, email, display_name, role, active, created_at, updated_at`

func scanMember(row interface{ Scan(dest ...any) error }) (*models.Member, error) {
	member := &models.Member{}
	err := row.Scan(&member.ID, &member.OrganizationID, &member.Email, &member.DisplayName, &member.Role, &member.Active, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *memberRepo) Create(ctx context.Context, q Querier, member *models.Member) error {
	query := `
		INSERT INTO members (id, organization_id, email, display_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := q.Exec(ctx, query, member.ID, member.OrganizationID, member.Email, member.DisplayName, member.Role, member.Active)
	return err
}

func (r *memberRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(r.db.QueryRow(ctx, query, id))
}

func (r *memberRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE organization_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *memberRepo) CountByOrganization(ctx context.Context, q Querier, orgID uuid.UUID) (MemberCounts, error) {
	var counts MemberCounts
	query := `
		SELECT
			COUNT(*) FILTER (WHERE active),
			COUNT(*) FILTER (WHERE NOT active)
		FROM members
		WHERE organization_id = $1
	`
	err := q.QueryRow(ctx, query, orgID).Scan(&counts.Active, &counts.Inactive)
	return counts, err
}

func (r *memberRepo) SetActive(ctx context.Context, q Querier, id uuid.UUID, active bool) error {
	query := `UPDATE members SET active = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.Exec(ctx, query, active, id)
	return err
}

func (r *memberRepo) SetOrganization(ctx context.Context, q Querier, id, orgID uuid.UUID) error {
	query := `UPDATE members SET organization_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.Exec(ctx, query, orgID, id)
	return err
}

func (r *memberRepo) Update(ctx context.Context, member *models.Member) error {
	query := `
		UPDATE members
		SET email = $1, display_name = $2, role = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, member.Email, member.DisplayName, member.Role, member.ID)
	return err
}
