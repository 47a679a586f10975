package services

import (
	"context"
	"errors"
	"testing"

	"plangate/internal/models"
	"plangate/internal/repositories"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func TestValidateMember(t *testing.T) {
	orgID := uuid.New()
	otherOrgID := uuid.New()
	org := &models.Organization{ID: orgID}

	tests := []struct {
		name    string
		member  *models.Member
		wantErr bool
	}{
		{"valid org member", &models.Member{OrganizationID: &orgID, Email: "a@b.io", Role: models.RoleOrgMember}, false},
		{"valid org admin", &models.Member{OrganizationID: &orgID, Email: "a@b.io", Role: models.RoleOrgAdmin}, false},
		{"operator without organization", &models.Member{Email: "op@b.io", Role: models.RolePlatformOperator}, false},
		{"operator bound to organization", &models.Member{OrganizationID: &orgID, Email: "op@b.io", Role: models.RolePlatformOperator}, true},
		{"org member without organization", &models.Member{Email: "a@b.io", Role: models.RoleOrgMember}, true},
		{"member of different organization", &models.Member{OrganizationID: &otherOrgID, Email: "a@b.io", Role: models.RoleOrgMember}, true},
		{"unknown role", &models.Member{OrganizationID: &orgID, Email: "a@b.io", Role: "superuser"}, true},
		{"missing email", &models.Member{OrganizationID: &orgID, Role: models.RoleOrgMember}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMember(org, tt.member)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMember)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type OrganizationServiceTestSuite struct {
	suite.Suite
	orgRepo    *MockOrganizationRepository
	memberRepo *MockMemberRepository
	planRepo   *MockPlanRepository
	cacheSvc   *MockCacheService
	db         pgxmock.PgxPoolIface
	service    OrganizationService
	org        *models.Organization
	plan       *models.Plan
}

func (suite *OrganizationServiceTestSuite) SetupTest() {
	db, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.db = db

	suite.orgRepo = &MockOrganizationRepository{}
	suite.memberRepo = &MockMemberRepository{}
	suite.planRepo = &MockPlanRepository{}
	suite.cacheSvc = &MockCacheService{}
	suite.service = NewOrganizationService(suite.orgRepo, suite.memberRepo, suite.planRepo, db, suite.cacheSvc)

	suite.plan = &models.Plan{ID: uuid.New(), Name: "basic", MaxUsers: 3, Active: true}
	suite.org = &models.Organization{ID: uuid.New(), Name: "Acme", Subdomain: "acme", Active: true, PlanID: suite.plan.ID}

	suite.orgRepo.Test(suite.T())
	suite.memberRepo.Test(suite.T())
	suite.planRepo.Test(suite.T())
	suite.cacheSvc.Test(suite.T())
}

func (suite *OrganizationServiceTestSuite) TearDownTest() {
	suite.orgRepo.AssertExpectations(suite.T())
	suite.memberRepo.AssertExpectations(suite.T())
	suite.planRepo.AssertExpectations(suite.T())
	suite.cacheSvc.AssertExpectations(suite.T())
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
	suite.db.Close()
}

func TestOrganizationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceTestSuite))
}

func (suite *OrganizationServiceTestSuite) TestDetailedQuota_CountsInactiveAgainstLimit() {
	ctx := context.Background()

	suite.cacheSvc.On("GetQuota", ctx, suite.org.ID).Return(nil, nil)
	suite.orgRepo.On("GetByID", ctx, suite.org.ID).Return(suite.org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)
	suite.memberRepo.On("CountByOrganization", ctx, mock.Anything, suite.org.ID).
		Return(repositories.MemberCounts{Active: 2, Inactive: 1}, nil)
	suite.cacheSvc.On("SetQuota", ctx, suite.org.ID, mock.AnythingOfType("*models.QuotaDetails"), mock.Anything).Return(nil)

	quota, err := suite.service.DetailedQuota(ctx, suite.org.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, quota.ActiveCount)
	assert.Equal(suite.T(), 1, quota.InactiveCount)
	assert.Equal(suite.T(), 3, quota.TotalCount)
	assert.Equal(suite.T(), 3, quota.MaxUsers)
	assert.Equal(suite.T(), 0, quota.AvailableSlots)
	assert.True(suite.T(), quota.AtLimit)
	assert.True(suite.T(), quota.HasInactive)
}

func (suite *OrganizationServiceTestSuite) TestCreateMember_Success() {
	ctx := context.Background()
	req := &CreateMemberRequest{
		OrganizationID: suite.org.ID,
		Email:          "new@acme.io",
		DisplayName:    "New Member",
		Role:           models.RoleOrgMember,
	}

	suite.orgRepo.On("GetByID", ctx, suite.org.ID).Return(suite.org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)

	suite.db.ExpectBegin()
	suite.orgRepo.On("LockRow", ctx, mock.Anything, suite.org.ID).Return(nil)
	suite.memberRepo.On("CountByOrganization", ctx, mock.Anything, suite.org.ID).
		Return(repositories.MemberCounts{Active: 1, Inactive: 0}, nil)
	suite.memberRepo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*models.Member")).Return(nil)
	suite.db.ExpectCommit()
	suite.cacheSvc.On("DeleteQuota", ctx, suite.org.ID).Return(nil)

	member, err := suite.service.CreateMember(ctx, req)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), member)
	assert.True(suite.T(), member.Active)
	assert.Equal(suite.T(), suite.org.ID, *member.OrganizationID)
}

func (suite *OrganizationServiceTestSuite) TestCreateMember_QuotaIncludesInactive() {
	ctx := context.Background()
	req := &CreateMemberRequest{
		OrganizationID: suite.org.ID,
		Email:          "late@acme.io",
		Role:           models.RoleOrgMember,
	}

	suite.orgRepo.On("GetByID", ctx, suite.org.ID).Return(suite.org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)

	// 2 active + 1 inactive fills a 3-seat plan; deactivation frees nothing.
	suite.db.ExpectBegin()
	suite.db.ExpectRollback()
	suite.orgRepo.On("LockRow", ctx, mock.Anything, suite.org.ID).Return(nil)
	suite.memberRepo.On("CountByOrganization", ctx, mock.Anything, suite.org.ID).
		Return(repositories.MemberCounts{Active: 2, Inactive: 1}, nil)

	member, err := suite.service.CreateMember(ctx, req)
	assert.ErrorIs(suite.T(), err, ErrQuotaExceeded)
	assert.Nil(suite.T(), member)
	suite.memberRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestReactivateMember_RefusedAtLimit() {
	ctx := context.Background()
	memberID := uuid.New()
	inactive := &models.Member{
		ID:             memberID,
		OrganizationID: &suite.org.ID,
		Email:          "dormant@acme.io",
		Role:           models.RoleOrgMember,
		Active:         false,
	}

	suite.orgRepo.On("GetByID", ctx, suite.org.ID).Return(suite.org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)
	suite.memberRepo.On("GetByID", ctx, memberID).Return(inactive, nil)

	suite.db.ExpectBegin()
	suite.db.ExpectRollback()
	suite.orgRepo.On("LockRow", ctx, mock.Anything, suite.org.ID).Return(nil)
	suite.memberRepo.On("CountByOrganization", ctx, mock.Anything, suite.org.ID).
		Return(repositories.MemberCounts{Active: 3, Inactive: 0}, nil)

	err := suite.service.ReactivateMember(ctx, suite.org.ID, memberID)
	assert.ErrorIs(suite.T(), err, ErrQuotaExceeded)
	suite.memberRepo.AssertNotCalled(suite.T(), "SetActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestReactivateMember_AlreadyActive() {
	ctx := context.Background()
	memberID := uuid.New()
	active := &models.Member{
		ID:             memberID,
		OrganizationID: &suite.org.ID,
		Email:          "live@acme.io",
		Role:           models.RoleOrgMember,
		Active:         true,
	}

	suite.orgRepo.On("GetByID", ctx, suite.org.ID).Return(suite.org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)
	suite.memberRepo.On("GetByID", ctx, memberID).Return(active, nil)

	err := suite.service.ReactivateMember(ctx, suite.org.ID, memberID)
	assert.ErrorIs(suite.T(), err, ErrMemberAlreadyActive)
}

func (suite *OrganizationServiceTestSuite) TestDeactivateMember_NoQuotaCheck() {
	ctx := context.Background()
	memberID := uuid.New()
	member := &models.Member{
		ID:             memberID,
		OrganizationID: &suite.org.ID,
		Email:          "leaving@acme.io",
		Role:           models.RoleOrgMember,
		Active:         true,
	}

	suite.memberRepo.On("GetByID", ctx, memberID).Return(member, nil)
	suite.memberRepo.On("SetActive", ctx, mock.Anything, memberID, false).Return(nil)
	suite.cacheSvc.On("DeleteQuota", ctx, suite.org.ID).Return(nil)

	err := suite.service.DeactivateMember(ctx, suite.org.ID, memberID)
	assert.NoError(suite.T(), err)
}

func (suite *OrganizationServiceTestSuite) TestTransferMember_DestinationFullLeavesSourceUntouched() {
	ctx := context.Background()
	memberID := uuid.New()
	sourceOrgID := uuid.New()
	member := &models.Member{
		ID:             memberID,
		OrganizationID: &sourceOrgID,
		Email:          "mover@acme.io",
		Role:           models.RoleOrgMember,
		Active:         true,
	}

	suite.memberRepo.On("GetByID", ctx, memberID).Return(member, nil)
	suite.orgRepo.On("GetByID", ctx, suite.org.ID).Return(suite.org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)

	suite.db.ExpectBegin()
	suite.db.ExpectRollback()
	suite.orgRepo.On("LockRow", ctx, mock.Anything, suite.org.ID).Return(nil)
	suite.memberRepo.On("CountByOrganization", ctx, mock.Anything, suite.org.ID).
		Return(repositories.MemberCounts{Active: 3, Inactive: 0}, nil)

	err := suite.service.TransferMember(ctx, memberID, suite.org.ID)
	assert.ErrorIs(suite.T(), err, ErrQuotaExceeded)
	suite.memberRepo.AssertNotCalled(suite.T(), "SetOrganization", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestMaxUsers_FallbackOnlyWhenPlanUnresolvable() {
	ctx := context.Background()
	fallback := 7
	orphaned := &models.Organization{
		ID:               uuid.New(),
		Name:             "Orphaned",
		Subdomain:        "orphaned",
		PlanID:           uuid.New(),
		MaxUsersFallback: &fallback,
	}

	suite.orgRepo.On("GetByID", ctx, orphaned.ID).Return(orphaned, nil)
	suite.planRepo.On("GetByID", ctx, orphaned.PlanID).Return(nil, errors.New("plan deleted"))

	maxUsers, err := suite.service.MaxUsers(ctx, orphaned.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, maxUsers)
}

func (suite *OrganizationServiceTestSuite) TestMaxUsers_PlanWinsOverFallback() {
	ctx := context.Background()
	fallback := 99
	org := &models.Organization{
		ID:               uuid.New(),
		Name:             "Acme",
		Subdomain:        "acme",
		PlanID:           suite.plan.ID,
		MaxUsersFallback: &fallback,
	}

	suite.orgRepo.On("GetByID", ctx, org.ID).Return(org, nil)
	suite.planRepo.On("GetByID", ctx, suite.plan.ID).Return(suite.plan, nil)

	maxUsers, err := suite.service.MaxUsers(ctx, org.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.plan.MaxUsers, maxUsers)
}
