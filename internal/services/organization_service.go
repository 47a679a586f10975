package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"plangate/internal/caching"
	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrganizationService owns tenant provisioning and the seat-quota engine.
// Every quota decision counts active plus inactive members against the
// current plan's max_users, and every mutating path re-counts under the
// organization row lock so two near-simultaneous adds cannot both win the
// last slot.
type OrganizationService interface {
	Create(ctx context.Context, req *CreateOrganizationRequest) (*models.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Organization, error)
	List(ctx context.Context, limit, offset int) ([]*models.Organization, error)

	MaxUsers(ctx context.Context, orgID uuid.UUID) (int, error)
	CanAddMember(ctx context.Context, orgID uuid.UUID) (bool, error)
	DetailedQuota(ctx context.Context, orgID uuid.UUID) (*models.QuotaDetails, error)

	CreateMember(ctx context.Context, req *CreateMemberRequest) (*models.Member, error)
	ReactivateMember(ctx context.Context, orgID, memberID uuid.UUID) error
	DeactivateMember(ctx context.Context, orgID, memberID uuid.UUID) error
	TransferMember(ctx context.Context, memberID, destOrgID uuid.UUID) error
	ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, error)
}

type CreateOrganizationRequest struct {
	Name      string     `json:"name" validate:"required"`
	Subdomain string     `json:"subdomain" validate:"required"`
	PlanID    *uuid.UUID `json:"plan_id"`
}

type CreateMemberRequest struct {
	OrganizationID uuid.UUID         `json:"organization_id"`
	Email          string            `json:"email" validate:"required,email"`
	DisplayName    string            `json:"display_name"`
	Role           models.MemberRole `json:"role" validate:"required"`
}

// ValidateMember is the single structural validation entry point for members,
// replacing scattered pre-save hooks. Platform operators carry no
// organization; everyone else must carry exactly the owning one.
func ValidateMember(org *models.Organization, member *models.Member) error {
	if !member.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMember, member.Role)
	}
	if member.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidMember)
	}
	if member.IsPlatformOperator() {
		if member.OrganizationID != nil {
			return fmt.Errorf("%w: platform operators are not organization-bound", ErrInvalidMember)
		}
		return nil
	}
	if member.OrganizationID == nil {
		return fmt.Errorf("%w: role %s requires an organization", ErrInvalidMember, member.Role)
	}
	if org == nil || *member.OrganizationID != org.ID {
		return fmt.Errorf("%w: member does not belong to organization", ErrInvalidMember)
	}
	return nil
}

type organizationService struct {
	orgRepo    repositories.OrganizationRepository
	memberRepo repositories.MemberRepository
	planRepo   repositories.PlanRepository
	db         repositories.Database
	cacheSvc   caching.CacheService
}

func NewOrganizationService(
	orgRepo repositories.OrganizationRepository,
	memberRepo repositories.MemberRepository,
	planRepo repositories.PlanRepository,
	db repositories.Database,
	cacheSvc caching.CacheService,
) OrganizationService {
	return &organizationService{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		planRepo:   planRepo,
		db:         db,
		cacheSvc:   cacheSvc,
	}
}

func (s *organizationService) Create(ctx context.Context, req *CreateOrganizationRequest) (*models.Organization, error) {
	if req.Name == "" || req.Subdomain == "" {
		return nil, errors.New("name and subdomain are required")
	}
	if strings.TrimSpace(req.Subdomain) != req.Subdomain {
		return nil, errors.New("subdomain cannot have spaces")
	}

	planID := uuid.Nil
	if req.PlanID != nil {
		plan, err := s.planRepo.GetByID(ctx, *req.PlanID)
		if err != nil {
			return nil, fmt.Errorf("resolve plan: %w", err)
		}
		if !plan.Active {
			return nil, ErrPlanInactive
		}
		planID = plan.ID
	} else {
		// Every persisted organization resolves to a plan; the zero-cost
		// trial plan is the default.
		trialPlan, err := s.planRepo.GetTrialPlan(ctx)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNoTrialPlan
			}
			return nil, fmt.Errorf("resolve trial plan: %w", err)
		}
		planID = trialPlan.ID
	}

	org := &models.Organization{
		ID:        uuid.New(),
		Name:      req.Name,
		Subdomain: req.Subdomain,
		Active:    true,
		PlanID:    planID,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *organizationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

func (s *organizationService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Organization, error) {
	if subdomain == "" {
		return nil, errors.New("subdomain is required")
	}
	return s.orgRepo.GetBySubdomain(ctx, subdomain)
}

func (s *organizationService) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.orgRepo.List(ctx, limit, offset)
}

// MaxUsers resolves the seat limit from the current plan. The deprecated
// org-level fallback is only consulted when no plan resolves.
func (s *organizationService) MaxUsers(ctx context.Context, orgID uuid.UUID) (int, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return s.maxUsersFor(ctx, org)
}

func (s *organizationService) maxUsersFor(ctx context.Context, org *models.Organization) (int, error) {
	plan, err := s.planRepo.GetByID(ctx, org.PlanID)
	if err != nil {
		if org.MaxUsersFallback != nil {
			log.Printf("organization %s: plan %s unresolvable, using deprecated fallback limit", org.ID, org.PlanID)
			return *org.MaxUsersFallback, nil
		}
		return 0, fmt.Errorf("resolve plan for organization %s: %w", org.ID, ErrPlanNotResolvable)
	}
	return plan.MaxUsers, nil
}

func (s *organizationService) CanAddMember(ctx context.Context, orgID uuid.UUID) (bool, error) {
	quota, err := s.DetailedQuota(ctx, orgID)
	if err != nil {
		return false, err
	}
	return !quota.AtLimit, nil
}

func (s *organizationService) DetailedQuota(ctx context.Context, orgID uuid.UUID) (*models.QuotaDetails, error) {
	if cached, err := s.cacheSvc.GetQuota(ctx, orgID); err == nil && cached != nil {
		return cached, nil
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	maxUsers, err := s.maxUsersFor(ctx, org)
	if err != nil {
		return nil, err
	}
	counts, err := s.memberRepo.CountByOrganization(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	quota := buildQuotaDetails(counts, maxUsers)
	if err := s.cacheSvc.SetQuota(ctx, orgID, quota, 30*time.Second); err != nil {
		log.Printf("quota cache write for organization %s failed: %v", orgID, err)
	}
	return quota, nil
}

func buildQuotaDetails(counts repositories.MemberCounts, maxUsers int) *models.QuotaDetails {
	available := maxUsers - counts.Total()
	if available < 0 {
		available = 0
	}
	return &models.QuotaDetails{
		ActiveCount:    counts.Active,
		InactiveCount:  counts.Inactive,
		TotalCount:     counts.Total(),
		MaxUsers:       maxUsers,
		AvailableSlots: available,
		AtLimit:        counts.Total() >= maxUsers,
		HasInactive:    counts.Inactive > 0,
	}
}

// CreateMember inserts a member after a count-then-insert check performed
// under the organization row lock.
func (s *organizationService) CreateMember(ctx context.Context, req *CreateMemberRequest) (*models.Member, error) {
	org, err := s.orgRepo.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	maxUsers, err := s.maxUsersFor(ctx, org)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		ID:             uuid.New(),
		OrganizationID: &org.ID,
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		Role:           req.Role,
		Active:         true,
	}
	if err := ValidateMember(org, member); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orgRepo.LockRow(ctx, tx, org.ID); err != nil {
		return nil, err
	}
	counts, err := s.memberRepo.CountByOrganization(ctx, tx, org.ID)
	if err != nil {
		return nil, err
	}
	if counts.Total() >= maxUsers {
		return nil, fmt.Errorf("%w: %d of %d seats used", ErrQuotaExceeded, counts.Total(), maxUsers)
	}
	if err := s.memberRepo.Create(ctx, tx, member); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateQuota(ctx, org.ID)
	return member, nil
}

// ReactivateMember re-enters the same slot accounting as a new member: a
// tenant at its limit cannot rotate seats by deactivating and reactivating.
func (s *organizationService) ReactivateMember(ctx context.Context, orgID, memberID uuid.UUID) error {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	maxUsers, err := s.maxUsersFor(ctx, org)
	if err != nil {
		return err
	}
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if err := ValidateMember(org, member); err != nil {
		return err
	}
	if member.Active {
		return ErrMemberAlreadyActive
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orgRepo.LockRow(ctx, tx, orgID); err != nil {
		return err
	}
	counts, err := s.memberRepo.CountByOrganization(ctx, tx, orgID)
	if err != nil {
		return err
	}
	if counts.Total() >= maxUsers {
		return fmt.Errorf("%w: %d of %d seats used", ErrQuotaExceeded, counts.Total(), maxUsers)
	}
	if err := s.memberRepo.SetActive(ctx, tx, memberID, true); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidateQuota(ctx, orgID)
	return nil
}

// DeactivateMember frees no slot, so no quota check applies.
func (s *organizationService) DeactivateMember(ctx context.Context, orgID, memberID uuid.UUID) error {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.OrganizationID == nil || *member.OrganizationID != orgID {
		return fmt.Errorf("%w: member does not belong to organization", ErrInvalidMember)
	}
	if err := s.memberRepo.SetActive(ctx, s.db, memberID, false); err != nil {
		return err
	}
	s.invalidateQuota(ctx, orgID)
	return nil
}

// TransferMember is a remove-then-add across two quota domains. The
// destination quota is checked, under the destination's row lock, before the
// source is touched; a failed check leaves the source untouched.
func (s *organizationService) TransferMember(ctx context.Context, memberID, destOrgID uuid.UUID) error {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.OrganizationID == nil {
		return fmt.Errorf("%w: platform operators cannot be transferred", ErrInvalidMember)
	}
	sourceOrgID := *member.OrganizationID
	if sourceOrgID == destOrgID {
		return errors.New("member is already in the destination organization")
	}

	destOrg, err := s.orgRepo.GetByID(ctx, destOrgID)
	if err != nil {
		return err
	}
	maxUsers, err := s.maxUsersFor(ctx, destOrg)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orgRepo.LockRow(ctx, tx, destOrgID); err != nil {
		return err
	}
	counts, err := s.memberRepo.CountByOrganization(ctx, tx, destOrgID)
	if err != nil {
		return err
	}
	if counts.Total() >= maxUsers {
		return fmt.Errorf("%w: destination has %d of %d seats used", ErrQuotaExceeded, counts.Total(), maxUsers)
	}
	if err := s.memberRepo.SetOrganization(ctx, tx, memberID, destOrgID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidateQuota(ctx, sourceOrgID)
	s.invalidateQuota(ctx, destOrgID)
	return nil
}

func (s *organizationService) ListMembers(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.memberRepo.ListByOrganization(ctx, orgID, limit, offset)
}

func (s *organizationService) invalidateQuota(ctx context.Context, orgID uuid.UUID) {
	if err := s.cacheSvc.DeleteQuota(ctx, orgID); err != nil {
		log.Printf("quota cache invalidation for organization %s failed: %v", orgID, err)
	}
}
