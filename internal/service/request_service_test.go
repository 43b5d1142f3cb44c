package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sdmteam/cvconnect-backend/internal/authz"
	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/pkg/apperror"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
)

type mockRequestRepo struct {
	mock.Mock
}

func (m *mockRequestRepo) Create(ctx context.Context, req *models.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestRepo) List(ctx context.Context, f repository.ListFilter) ([]models.Request, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockRequestRepo) Update(ctx context.Context, req *models.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockRequestRepo) Accept(ctx context.Context, requestID string, cvID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, requestID, cvID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockRequestRepo) Reject(ctx context.Context, requestID string) (bool, error) {
	args := m.Called(ctx, requestID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRequestRepo) Complete(ctx context.Context, requestID string, cvID uuid.UUID, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, requestID, cvID, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockRequestRepo) Cancel(ctx context.Context, requestID string, pinID uuid.UUID, cancelledAt time.Time) (bool, error) {
	args := m.Called(ctx, requestID, pinID, cancelledAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockRequestRepo) MarkLateOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRequestRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockCategoryRepoForRequest struct {
	mock.Mock
}

func (m *mockCategoryRepoForRequest) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func validInput() RequestInput {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return RequestInput{
		Title:       "Помощь с покупками",
		Description: "Нужна помощь с еженедельными покупками",
		ServiceType: "shopping",
		Location:    "Sydney",
		Urgency:     models.UrgencyMedium,
		StartDate:   start,
		EndDate:     start.Add(7 * 24 * time.Hour),
	}
}

func TestCreateRequestSetsPending(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)
	cats := new(mockCategoryRepoForRequest)

	pin := authz.Actor{ID: uuid.New(), Role: models.RolePIN}
	repo.On("Create", ctx, mock.AnythingOfType("*models.Request")).Return(nil)

	svc := NewRequestService(repo, cats, nil, 0)
	req, err := svc.CreateRequest(ctx, pin, validInput())

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, pin.ID, req.RequestedByID)
}

func TestCreateRequestForbiddenForVolunteer(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(new(mockRequestRepo), new(mockCategoryRepoForRequest), nil, 0)

	_, err := svc.CreateRequest(ctx, authz.Actor{ID: uuid.New(), Role: models.RoleCV}, validInput())
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreateRequestRejectsBadDates(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(new(mockRequestRepo), new(mockCategoryRepoForRequest), nil, 0)

	in := validInput()
	in.EndDate = in.StartDate.Add(-time.Hour)
	_, err := svc.CreateRequest(ctx, authz.Actor{ID: uuid.New(), Role: models.RolePIN}, in)

	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "дата окончания")
}

func TestCreateRequestUnknownCategory(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)
	cats := new(mockCategoryRepoForRequest)

	catID := int64(42)
	cats.On("GetByID", ctx, catID).Return(nil, repository.ErrCategoryNotFound)

	svc := NewRequestService(repo, cats, nil, 0)
	in := validInput()
	in.CategoryID = &catID
	_, err := svc.CreateRequest(ctx, authz.Actor{ID: uuid.New(), Role: models.RolePIN}, in)

	assert.True(t, apperror.IsNotFound(err))
}

func TestAcceptReturnsRepoDecision(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)
	cv := authz.Actor{ID: uuid.New(), Role: models.RoleCV}

	repo.On("Accept", ctx, "r001", cv.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	repo.On("Accept", ctx, "r002", cv.ID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, 0)

	ok, err := svc.Accept(ctx, cv, "r001")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Не pending или просрочена: тихий отказ без ошибки.
	ok, err = svc.Accept(ctx, cv, "r002")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestAcceptForbiddenForPIN(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(new(mockRequestRepo), new(mockCategoryRepoForRequest), nil, 0)

	_, err := svc.Accept(ctx, authz.Actor{ID: uuid.New(), Role: models.RolePIN}, "r001")
	assert.True(t, apperror.IsForbidden(err))
}

func TestCompleteOnlyAssignee(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)

	cvID := uuid.New()
	req := &models.Request{ID: "r001", Status: models.RequestStatusActive, AssignedToID: &cvID}
	repo.On("GetByID", ctx, "r001").Return(req, nil)

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, 0)
	_, err := svc.Complete(ctx, authz.Actor{ID: uuid.New(), Role: models.RoleCV}, "r001")

	assert.True(t, apperror.IsForbidden(err))
}

func TestCompleteAppliesOffset(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)

	cvID := uuid.New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	offset := 8 * time.Hour
	req := &models.Request{ID: "r001", Status: models.RequestStatusActive, AssignedToID: &cvID}

	repo.On("GetByID", ctx, "r001").Return(req, nil)
	repo.On("Complete", ctx, "r001", cvID, now.Add(offset)).Return(true, nil)

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, offset)
	svc.now = func() time.Time { return now }

	ok, err := svc.Complete(ctx, authz.Actor{ID: cvID, Role: models.RoleCV}, "r001")
	assert.NoError(t, err)
	assert.True(t, ok)
	repo.AssertExpectations(t)
}

type mockCompletionNotifier struct {
	mock.Mock
}

func (m *mockCompletionNotifier) NotifyCompleted(requestID string, pinID uuid.UUID) {
	m.Called(requestID, pinID)
}

func TestCompleteNotifiesRequester(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)
	notifier := new(mockCompletionNotifier)

	cvID := uuid.New()
	pinID := uuid.New()
	req := &models.Request{ID: "r001", Status: models.RequestStatusActive, RequestedByID: pinID, AssignedToID: &cvID}

	repo.On("GetByID", ctx, "r001").Return(req, nil)
	repo.On("Complete", ctx, "r001", cvID, mock.AnythingOfType("time.Time")).Return(true, nil)
	notifier.On("NotifyCompleted", "r001", pinID).Return()

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), notifier, 0)
	ok, err := svc.Complete(ctx, authz.Actor{ID: cvID, Role: models.RoleCV}, "r001")

	assert.NoError(t, err)
	assert.True(t, ok)
	notifier.AssertExpectations(t)
}

func TestCancelMissingRequestIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)
	repo.On("GetByID", ctx, "r404").Return(nil, repository.ErrRequestNotFound)

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, 0)
	ok, err := svc.Cancel(ctx, authz.Actor{ID: uuid.New(), Role: models.RolePIN}, "r404")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelOnlyOwner(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)

	owner := uuid.New()
	req := &models.Request{ID: "r001", Status: models.RequestStatusPending, RequestedByID: owner}
	repo.On("GetByID", ctx, "r001").Return(req, nil)

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, 0)
	_, err := svc.Cancel(ctx, authz.Actor{ID: uuid.New(), Role: models.RolePIN}, "r001")

	assert.True(t, apperror.IsForbidden(err))
}

func TestListRequestsAppliesEffectiveStatus(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	stored := []models.Request{
		{ID: "r001", Status: models.RequestStatusLate, EndDate: now.Add(-2 * time.Hour)},
		{ID: "r002", Status: models.RequestStatusActive, EndDate: now.Add(-time.Hour)},
		{ID: "r003", Status: models.RequestStatusActive, EndDate: now.Add(time.Hour)},
	}

	// Для действительного статуса late выбираются хранимые late и active.
	repo.On("List", ctx, mock.MatchedBy(func(f repository.ListFilter) bool {
		return len(f.Statuses) == 2
	})).Return(stored, nil)

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, 0)
	svc.now = func() time.Time { return now }

	result, err := svc.ListRequests(ctx, RequestListFilter{Status: models.RequestStatusLate})
	assert.NoError(t, err)
	assert.Len(t, result, 2)
	for _, r := range result {
		assert.Equal(t, models.RequestStatusLate, r.Status)
	}
}

func TestSweepOverdueOrder(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRequestRepo)

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	expireCall := repo.On("ExpireOverdue", ctx, now).Return(int64(2), nil)
	repo.On("MarkLateOverdue", ctx, now).Return(int64(3), nil).NotBefore(expireCall)

	svc := NewRequestService(repo, new(mockCategoryRepoForRequest), nil, 0)
	svc.now = func() time.Time { return now }

	res, err := svc.SweepOverdue(ctx, authz.Actor{ID: uuid.New(), Role: models.RoleAdmin})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), res.MarkedLate)
	assert.Equal(t, int64(2), res.Expired)
	repo.AssertExpectations(t)
}

func TestSweepOverdueForbidden(t *testing.T) {
	ctx := context.Background()
	svc := NewRequestService(new(mockRequestRepo), new(mockCategoryRepoForRequest), nil, 0)

	_, err := svc.SweepOverdue(ctx, authz.Actor{ID: uuid.New(), Role: models.RoleCV})
	assert.True(t, apperror.IsForbidden(err))
}
