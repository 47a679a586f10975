package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"plangate/internal/caching"
	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
)

// UpgradeService drives the change-of-plan workflow:
// pending -> {approved -> completed, rejected} or cancelled, with archived as
// a retention label. Complete is the only transition with real effect and it
// commits its five effects as one transaction.
type UpgradeService interface {
	Submit(ctx context.Context, req *SubmitUpgradeRequest) (*models.UpgradeRequest, error)
	Approve(ctx context.Context, requestID, approvedBy uuid.UUID) error
	Complete(ctx context.Context, requestID, completedBy uuid.UUID) (*models.UpgradeRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, reason string) error
	Cancel(ctx context.Context, requestID, cancelledBy uuid.UUID) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*models.UpgradeRequest, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.UpgradeRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.UpgradeRequest, error)
	ArchiveOld(ctx context.Context, olderThan time.Duration) (int64, error)
}

type SubmitUpgradeRequest struct {
	OrganizationID  uuid.UUID `json:"organization_id"`
	RequestedPlanID uuid.UUID `json:"requested_plan_id"`
	RequestedBy     uuid.UUID `json:"requested_by"`
	Notes           string    `json:"notes"`
}

// paidTermDays is the term granted when an upgrade completes.
const paidTermDays = 30

type upgradeService struct {
	upgradeRepo      repositories.UpgradeRequestRepository
	subscriptionRepo repositories.SubscriptionRepository
	planRepo         repositories.PlanRepository
	paymentRepo      repositories.PaymentRepository
	orgRepo          repositories.OrganizationRepository
	memberRepo       repositories.MemberRepository
	db               repositories.Database
	cacheSvc         caching.CacheService
	notifier         NotificationService
}

func NewUpgradeService(
	upgradeRepo repositories.UpgradeRequestRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	paymentRepo repositories.PaymentRepository,
	orgRepo repositories.OrganizationRepository,
	memberRepo repositories.MemberRepository,
	db repositories.Database,
	cacheSvc caching.CacheService,
	notifier NotificationService,
) UpgradeService {
	return &upgradeService{
		upgradeRepo:      upgradeRepo,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		paymentRepo:      paymentRepo,
		orgRepo:          orgRepo,
		memberRepo:       memberRepo,
		db:               db,
		cacheSvc:         cacheSvc,
		notifier:         notifier,
	}
}

// Submit creates a pending request. Downgrades are refused here, and at most
// one pending/approved request may exist per organization; the check and the
// insert happen under the organization row lock so two rapid submissions
// cannot both slip through.
func (s *upgradeService) Submit(ctx context.Context, req *SubmitUpgradeRequest) (*models.UpgradeRequest, error) {
	requester, err := s.memberRepo.GetByID(ctx, req.RequestedBy)
	if err != nil {
		return nil, fmt.Errorf("resolve requester: %w", err)
	}
	if requester.Role != models.RoleOrgAdmin || requester.OrganizationID == nil || *requester.OrganizationID != req.OrganizationID {
		return nil, fmt.Errorf("%w: upgrades may only be submitted by an admin of the organization", ErrInvalidMember)
	}

	sub, err := s.subscriptionRepo.GetByOrganization(ctx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orgRepo.LockRow(ctx, tx, req.OrganizationID); err != nil {
		return nil, err
	}

	// Plans are read inside the transaction so amount_due reflects the prices
	// at insert time, not at request-parse time.
	currentPlan, err := s.planRepo.GetByIDTx(ctx, tx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("resolve current plan: %w", err)
	}
	requestedPlan, err := s.planRepo.GetByIDTx(ctx, tx, req.RequestedPlanID)
	if err != nil {
		return nil, fmt.Errorf("resolve requested plan: %w", err)
	}
	if !requestedPlan.Active {
		return nil, ErrPlanInactive
	}
	if requestedPlan.Price < currentPlan.Price {
		return nil, ErrDowngradeNotAllowed
	}

	outstanding, err := s.upgradeRepo.CountOutstanding(ctx, tx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if outstanding > 0 {
		return nil, ErrDuplicatePendingUpgrade
	}

	upgrade := &models.UpgradeRequest{
		ID:              uuid.New(),
		OrganizationID:  req.OrganizationID,
		CurrentPlanID:   currentPlan.ID,
		RequestedPlanID: requestedPlan.ID,
		RequestedBy:     req.RequestedBy,
		AmountDue:       requestedPlan.Price - currentPlan.Price,
		Status:          models.UpgradePending,
		Notes:           req.Notes,
		RequestedAt:     time.Now().UTC(),
	}
	if err := s.upgradeRepo.Create(ctx, tx, upgrade); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return upgrade, nil
}

// Approve records the operator's sign-off. It carries no financial or plan
// effect; it only signals that payment instructions may be sent. The request
// row is locked so an approval racing a completion sees the terminal status
// instead of overwriting it.
func (s *upgradeService) Approve(ctx context.Context, requestID, approvedBy uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.upgradeRepo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return err
	}
	if req.Status.IsTerminal() {
		return ErrUpgradeAlreadyFinal
	}
	if req.Status != models.UpgradePending {
		return fmt.Errorf("%w: %s -> approved", ErrInvalidTransition, req.Status)
	}
	if err := s.upgradeRepo.SetApproved(ctx, tx, requestID, approvedBy, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Complete performs the one transactional transition: re-validate the target
// plan, swap the subscription's plan, reset its status and term, append the
// upgrade payment, and mark the request completed. All five effects commit
// together or none do; a concurrent completer blocks on the row lock and then
// observes the terminal status.
func (s *upgradeService) Complete(ctx context.Context, requestID, completedBy uuid.UUID) (*models.UpgradeRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.upgradeRepo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, ErrUpgradeAlreadyFinal
	}
	if !req.Status.IsOutstanding() {
		return nil, fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, req.Status)
	}

	plan, err := s.planRepo.GetByIDTx(ctx, tx, req.RequestedPlanID)
	if err != nil {
		return nil, fmt.Errorf("resolve requested plan: %w", err)
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}

	sub, err := s.subscriptionRepo.GetByOrganizationForUpdate(ctx, tx, req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, paidTermDays)
	sub.PlanID = plan.ID
	sub.Status = models.NewStatus(plan.Name, models.PhaseActive)
	sub.StartDate = now
	sub.EndDate = &end
	sub.PaymentStatus = models.PaymentStatusCompleted
	if err := s.subscriptionRepo.ApplyUpgrade(ctx, tx, sub); err != nil {
		return nil, fmt.Errorf("apply upgrade to subscription: %w", err)
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		Amount:         req.AmountDue,
		Type:           models.PaymentTypeUpgrade,
		Status:         models.PaymentStatusCompleted,
		Description:    fmt.Sprintf("Upgrade to plan %s", plan.Label),
		DaysAdded:      paidTermDays,
	}
	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return nil, fmt.Errorf("record upgrade payment: %w", err)
	}

	if err := s.upgradeRepo.SetCompleted(ctx, tx, requestID, completedBy, now); err != nil {
		return nil, fmt.Errorf("mark upgrade completed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = models.UpgradeCompleted
	req.CompletedAt = &now
	req.CompletedBy = &completedBy

	// Post-commit concerns: neither may undo the upgrade.
	s.invalidateOrganization(ctx, req.OrganizationID)
	s.notifier.NotifyUpgradeCompleted(ctx, req.OrganizationID, plan.Label, req.AmountDue)

	return req, nil
}

// Reject closes the request with the operator's reason. Terminal states are
// immutable: a request completed by a racing operator stays completed, so the
// status is re-checked under the row lock.
func (s *upgradeService) Reject(ctx context.Context, requestID uuid.UUID, reason string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.upgradeRepo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return err
	}
	if req.Status.IsTerminal() {
		return ErrUpgradeAlreadyFinal
	}
	if !req.Status.IsOutstanding() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, models.UpgradeRejected)
	}
	if err := s.upgradeRepo.SetTerminal(ctx, tx, requestID, models.UpgradeRejected, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel withdraws the requester's own request, under the same row lock as
// Reject.
func (s *upgradeService) Cancel(ctx context.Context, requestID, cancelledBy uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.upgradeRepo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return err
	}
	if req.RequestedBy != cancelledBy {
		return fmt.Errorf("%w: only the requester may cancel", ErrInvalidMember)
	}
	if req.Status.IsTerminal() {
		return ErrUpgradeAlreadyFinal
	}
	if !req.Status.IsOutstanding() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, models.UpgradeCancelled)
	}
	if err := s.upgradeRepo.SetTerminal(ctx, tx, requestID, models.UpgradeCancelled, req.Notes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *upgradeService) GetByID(ctx context.Context, requestID uuid.UUID) (*models.UpgradeRequest, error) {
	return s.upgradeRepo.GetByID(ctx, requestID)
}

func (s *upgradeService) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.UpgradeRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.upgradeRepo.ListByOrganization(ctx, orgID, limit, offset)
}

func (s *upgradeService) ListPending(ctx context.Context, limit, offset int) ([]*models.UpgradeRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.upgradeRepo.ListByStatus(ctx, models.UpgradePending, limit, offset)
}

// ArchiveOld relabels long-terminal requests; purely list hygiene.
func (s *upgradeService) ArchiveOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.upgradeRepo.ArchiveTerminalBefore(ctx, cutoff)
}

func (s *upgradeService) invalidateOrganization(ctx context.Context, orgID uuid.UUID) {
	if err := s.cacheSvc.InvalidateOrganizationCache(ctx, orgID); err != nil {
		log.Printf("cache invalidation for organization %s failed: %v", orgID, err)
	}
}
