package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionService owns the time-driven subscription lifecycle. Status is
// mutated in exactly two places: UpdateStatus here and upgrade completion in
// UpgradeService.
type SubscriptionService interface {
	EnsureSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error)
	GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, sub *models.Subscription, now time.Time) (changed bool, err error)
	SweepStatuses(ctx context.Context, now time.Time) (SweepReport, error)
	DryRunStatuses(ctx context.Context, now time.Time) ([]StatusTransition, error)
	DaysRemaining(ctx context.Context, orgID uuid.UUID, now time.Time) (int, error)
}

// StatusTransition is one row of a dry-run report: what UpdateStatus would do
// without committing it.
type StatusTransition struct {
	SubscriptionID uuid.UUID                 `json:"subscription_id"`
	OrganizationID uuid.UUID                 `json:"organization_id"`
	From           models.SubscriptionStatus `json:"from"`
	To             models.SubscriptionStatus `json:"to"`
	Anomaly        string                    `json:"anomaly,omitempty"`
}

// SweepReport summarizes a persisted status sweep.
type SweepReport struct {
	Examined  int `json:"examined"`
	Changed   int `json:"changed"`
	Anomalies int `json:"anomalies"`
}

// CalculateCurrentStatus is the pure transition function. It never touches
// storage and never panics; callers pass the subscription's plan. A nil plan
// freezes the subscription at its last persisted status and is reported as an
// anomaly via ErrPlanNotResolvable.
func CalculateCurrentStatus(sub *models.Subscription, plan *models.Plan, now time.Time) (models.SubscriptionStatus, error) {
	if plan == nil {
		return sub.Status, ErrPlanNotResolvable
	}
	if sub.EndDate == nil || now.Before(*sub.EndDate) {
		return models.NewStatus(plan.Name, models.PhaseActive), nil
	}
	if plan.HasGracePeriod() {
		graceEnd := sub.EndDate.AddDate(0, 0, plan.GracePeriodDays)
		if now.Before(graceEnd) {
			return models.NewStatus(plan.Name, models.PhaseGrace), nil
		}
	}
	return models.NewStatus(plan.Name, models.PhaseExpired), nil
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	planRepo         repositories.PlanRepository
	paymentRepo      repositories.PaymentRepository
	db               repositories.Database
	notifier         NotificationService
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	planRepo repositories.PlanRepository,
	paymentRepo repositories.PaymentRepository,
	db repositories.Database,
	notifier NotificationService,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		paymentRepo:      paymentRepo,
		db:               db,
		notifier:         notifier,
	}
}

// EnsureSubscription returns the organization's subscription, creating a
// trial one when missing. A missing subscription is a transient provisioning
// condition, not an error.
func (s *subscriptionService) EnsureSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByOrganization(ctx, orgID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup subscription for organization %s: %w", orgID, err)
	}

	trialPlan, err := s.planRepo.GetTrialPlan(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoTrialPlan
		}
		return nil, fmt.Errorf("lookup trial plan: %w", err)
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, trialPlan.TrialDays)
	sub = &models.Subscription{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PlanID:         trialPlan.ID,
		Status:         models.NewStatus(trialPlan.Name, models.PhaseActive),
		StartDate:      now,
		EndDate:        &end,
		PaymentStatus:  models.PaymentStatusCompleted,
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create trial subscription: %w", err)
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		Amount:         0,
		Type:           models.PaymentTypeTrialActivation,
		Status:         models.PaymentStatusCompleted,
		Description:    fmt.Sprintf("Trial activation on plan %s", trialPlan.Label),
		DaysAdded:      trialPlan.TrialDays,
	}
	if err := s.paymentRepo.Create(ctx, s.db, payment); err != nil {
		log.Printf("trial activation payment for subscription %s not recorded: %v", sub.ID, err)
	}

	// Notification failures never affect provisioning.
	s.notifier.NotifyTrialStarted(ctx, orgID, trialPlan.Label, trialPlan.TrialDays)

	return sub, nil
}

func (s *subscriptionService) GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	return s.subscriptionRepo.GetByOrganization(ctx, orgID)
}

// UpdateStatus recomputes via the pure function and persists only a real
// change, so a second call with the same now is a no-op.
func (s *subscriptionService) UpdateStatus(ctx context.Context, sub *models.Subscription, now time.Time) (bool, error) {
	plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			plan = nil
		} else {
			return false, fmt.Errorf("resolve plan for subscription %s: %w", sub.ID, err)
		}
	}

	next, calcErr := CalculateCurrentStatus(sub, plan, now)
	if calcErr != nil {
		// Frozen at last known state; the diagnostic sweep reports it.
		return false, calcErr
	}
	if next == sub.Status {
		return false, nil
	}
	if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, next); err != nil {
		return false, fmt.Errorf("persist status for subscription %s: %w", sub.ID, err)
	}
	if next.IsInGracePeriod() && !sub.Status.IsInGracePeriod() {
		graceEnd := sub.EndDate.AddDate(0, 0, plan.GracePeriodDays)
		s.notifier.NotifyGraceEntered(ctx, sub.OrganizationID, plan.Label, int(graceEnd.Sub(now).Hours()/24))
	}
	sub.Status = next
	return true, nil
}

// SweepStatuses is what the scheduled job calls once a day.
func (s *subscriptionService) SweepStatuses(ctx context.Context, now time.Time) (SweepReport, error) {
	subs, err := s.subscriptionRepo.ListAll(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list subscriptions for sweep: %w", err)
	}

	report := SweepReport{Examined: len(subs)}
	for _, sub := range subs {
		changed, err := s.UpdateStatus(ctx, sub, now)
		if err != nil {
			report.Anomalies++
			log.Printf("status sweep: subscription %s: %v", sub.ID, err)
			continue
		}
		if changed {
			report.Changed++
		}
	}
	return report, nil
}

// DryRunStatuses reports what a sweep would change without persisting.
func (s *subscriptionService) DryRunStatuses(ctx context.Context, now time.Time) ([]StatusTransition, error) {
	subs, err := s.subscriptionRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions for dry run: %w", err)
	}

	var transitions []StatusTransition
	for _, sub := range subs {
		plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
		if err != nil {
			plan = nil
		}
		next, calcErr := CalculateCurrentStatus(sub, plan, now)
		t := StatusTransition{
			SubscriptionID: sub.ID,
			OrganizationID: sub.OrganizationID,
			From:           sub.Status,
			To:             next,
		}
		if calcErr != nil {
			t.Anomaly = calcErr.Error()
		}
		if t.From != t.To || t.Anomaly != "" {
			transitions = append(transitions, t)
		}
	}
	return transitions, nil
}

func (s *subscriptionService) DaysRemaining(ctx context.Context, orgID uuid.UUID, now time.Time) (int, error) {
	sub, err := s.EnsureSubscription(ctx, orgID)
	if err != nil {
		return 0, err
	}
	return sub.DaysRemaining(now), nil
}
