package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"plangate/internal/caching"
	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
)

// PlanService manages the plan catalog. Plans are immutable from the tenant's
// point of view; only the explicit administrative Update mutates one, and
// plans are deactivated rather than deleted.
type PlanService interface {
	Create(ctx context.Context, req *CreatePlanRequest) (*models.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	GetByName(ctx context.Context, name string) (*models.Plan, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	Update(ctx context.Context, req *UpdatePlanRequest) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type CreatePlanRequest struct {
	Name            string  `json:"name" validate:"required"`
	Label           string  `json:"label" validate:"required"`
	Price           float64 `json:"price"`
	MaxUsers        int     `json:"max_users" validate:"required"`
	TrialDays       int     `json:"trial_days"`
	GracePeriodDays int     `json:"grace_period_days"`
}

type UpdatePlanRequest struct {
	ID              uuid.UUID
	Label           string  `json:"label" validate:"required"`
	Price           float64 `json:"price"`
	MaxUsers        int     `json:"max_users" validate:"required"`
	TrialDays       int     `json:"trial_days"`
	GracePeriodDays int     `json:"grace_period_days"`
	Active          bool    `json:"active"`
}

type planService struct {
	planRepo repositories.PlanRepository
	cacheSvc caching.CacheService
}

func NewPlanService(planRepo repositories.PlanRepository, cacheSvc caching.CacheService) PlanService {
	return &planService{planRepo: planRepo, cacheSvc: cacheSvc}
}

func validatePlanFields(price float64, maxUsers, trialDays, graceDays int) error {
	if price < 0 {
		return errors.New("price cannot be negative")
	}
	if maxUsers <= 0 {
		return errors.New("max_users must be positive")
	}
	if trialDays < 0 || graceDays < 0 {
		return errors.New("trial_days and grace_period_days cannot be negative")
	}
	return nil
}

func (s *planService) Create(ctx context.Context, req *CreatePlanRequest) (*models.Plan, error) {
	if req.Name == "" || req.Label == "" {
		return nil, errors.New("name and label are required")
	}
	if err := validatePlanFields(req.Price, req.MaxUsers, req.TrialDays, req.GracePeriodDays); err != nil {
		return nil, err
	}

	plan := &models.Plan{
		ID:              uuid.New(),
		Name:            req.Name,
		Label:           req.Label,
		Price:           req.Price,
		MaxUsers:        req.MaxUsers,
		TrialDays:       req.TrialDays,
		GracePeriodDays: req.GracePeriodDays,
		Active:          true,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	if cached, err := s.cacheSvc.GetPlan(ctx, id); err == nil && cached != nil {
		return cached, nil
	}
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetPlan(ctx, plan, 5*time.Minute); err != nil {
		log.Printf("plan cache write for %s failed: %v", plan.ID, err)
	}
	return plan, nil
}

func (s *planService) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	return s.planRepo.GetByName(ctx, name)
}

func (s *planService) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	return s.planRepo.List(ctx, activeOnly)
}

func (s *planService) Update(ctx context.Context, req *UpdatePlanRequest) error {
	existing, err := s.planRepo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := validatePlanFields(req.Price, req.MaxUsers, req.TrialDays, req.GracePeriodDays); err != nil {
		return err
	}

	existing.Label = req.Label
	existing.Price = req.Price
	existing.MaxUsers = req.MaxUsers
	existing.TrialDays = req.TrialDays
	existing.GracePeriodDays = req.GracePeriodDays
	existing.Active = req.Active

	if err := s.planRepo.Update(ctx, existing); err != nil {
		return err
	}
	return s.invalidate(ctx, req.ID)
}

func (s *planService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.planRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *planService) invalidate(ctx context.Context, id uuid.UUID) error {
	if err := s.cacheSvc.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("invalidate plan cache: %w", err)
	}
	return nil
}
