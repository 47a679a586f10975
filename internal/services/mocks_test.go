package services

import (
	"context"
	"time"

	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetByIDTx(ctx context.Context, q repositories.Querier, id uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetTrialPlan(ctx context.Context) (*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetBySubdomain(ctx context.Context, subdomain string) (*models.Organization, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) LockRow(ctx context.Context, q repositories.Querier, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, q repositories.Querier, member *models.Member) error {
	args := m.Called(ctx, q, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.Member, error) {
	args := m.Called(ctx, orgID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMemberRepository) CountByOrganization(ctx context.Context, q repositories.Querier, orgID uuid.UUID) (repositories.MemberCounts, error) {
	args := m.Called(ctx, q, orgID)
	return args.Get(0).(repositories.MemberCounts), args.Error(1)
}

func (m *MockMemberRepository) SetActive(ctx context.Context, q repositories.Querier, id uuid.UUID, active bool) error {
	args := m.Called(ctx, q, id, active)
	return args.Error(0)
}

func (m *MockMemberRepository) SetOrganization(ctx context.Context, q repositories.Querier, id, orgID uuid.UUID) error {
	args := m.Called(ctx, q, id, orgID)
	return args.Error(0)
}

func (m *MockMemberRepository) Update(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByOrganizationForUpdate(ctx context.Context, q repositories.Querier, orgID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, q, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ApplyUpgrade(ctx context.Context, q repositories.Querier, sub *models.Subscription) error {
	args := m.Called(ctx, q, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ListAll(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, q repositories.Querier, payment *models.Payment) error {
	args := m.Called(ctx, q, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, subscriptionID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindDuplicates(ctx context.Context) ([]*models.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) RemoveDuplicates(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUpgradeRequestRepository struct {
	mock.Mock
}

func (m *MockUpgradeRequestRepository) Create(ctx context.Context, q repositories.Querier, req *models.UpgradeRequest) error {
	args := m.Called(ctx, q, req)
	return args.Error(0)
}

func (m *MockUpgradeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UpgradeRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpgradeRequest), args.Error(1)
}

func (m *MockUpgradeRequestRepository) GetByIDForUpdate(ctx context.Context, q repositories.Querier, id uuid.UUID) (*models.UpgradeRequest, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpgradeRequest), args.Error(1)
}

func (m *MockUpgradeRequestRepository) CountOutstanding(ctx context.Context, q repositories.Querier, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, q, orgID)
	return args.Int(0), args.Error(1)
}

func (m *MockUpgradeRequestRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]*models.UpgradeRequest, error) {
	args := m.Called(ctx, orgID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UpgradeRequest), args.Error(1)
}

func (m *MockUpgradeRequestRepository) ListByStatus(ctx context.Context, status models.UpgradeStatus, limit, offset int) ([]*models.UpgradeRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UpgradeRequest), args.Error(1)
}

func (m *MockUpgradeRequestRepository) SetApproved(ctx context.Context, q repositories.Querier, id uuid.UUID, approvedBy uuid.UUID, approvedAt time.Time) error {
	args := m.Called(ctx, q, id, approvedBy, approvedAt)
	return args.Error(0)
}

func (m *MockUpgradeRequestRepository) SetCompleted(ctx context.Context, q repositories.Querier, id uuid.UUID, completedBy uuid.UUID, completedAt time.Time) error {
	args := m.Called(ctx, q, id, completedBy, completedAt)
	return args.Error(0)
}

func (m *MockUpgradeRequestRepository) SetTerminal(ctx context.Context, q repositories.Querier, id uuid.UUID, status models.UpgradeStatus, notes string) error {
	args := m.Called(ctx, q, id, status, notes)
	return args.Error(0)
}

func (m *MockUpgradeRequestRepository) ArchiveTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockCacheService) SetSubscription(ctx context.Context, sub *models.Subscription, ttl time.Duration) error {
	args := m.Called(ctx, sub, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteSubscription(ctx context.Context, orgID uuid.UUID) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockCacheService) GetQuota(ctx context.Context, orgID uuid.UUID) (*models.QuotaDetails, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuotaDetails), args.Error(1)
}

func (m *MockCacheService) SetQuota(ctx context.Context, orgID uuid.UUID, quota *models.QuotaDetails, ttl time.Duration) error {
	args := m.Called(ctx, orgID, quota, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteQuota(ctx context.Context, orgID uuid.UUID) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	args := m.Called(ctx, plan, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	args := m.Called(ctx, planID)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateOrganizationCache(ctx context.Context, orgID uuid.UUID) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	args := m.Called(ctx, key, window)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) NotifyTrialStarted(ctx context.Context, orgID uuid.UUID, planLabel string, trialDays int) {
	m.Called(ctx, orgID, planLabel, trialDays)
}

func (m *MockNotificationService) NotifyUpgradeCompleted(ctx context.Context, orgID uuid.UUID, planLabel string, amount float64) {
	m.Called(ctx, orgID, planLabel, amount)
}

func (m *MockNotificationService) NotifyGraceEntered(ctx context.Context, orgID uuid.UUID, planLabel string, daysLeft int) {
	m.Called(ctx, orgID, planLabel, daysLeft)
}
