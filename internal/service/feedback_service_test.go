package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/pkg/apperror"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
)

type mockFeedbackRepo struct {
	mock.Mock
}

func (m *mockFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

func (m *mockFeedbackRepo) GetByRequestAndPIN(ctx context.Context, requestID string, pinID uuid.UUID) (*models.Feedback, error) {
	args := m.Called(ctx, requestID, pinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) AverageRating(ctx context.Context, ratedUserID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, ratedUserID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *mockFeedbackRepo) List(ctx context.Context, f repository.FeedbackFilter) ([]models.Feedback, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Feedback), args.Error(1)
}

func (m *mockFeedbackRepo) Stats(ctx context.Context, ratedUserID uuid.UUID) (*models.FeedbackStats, error) {
	args := m.Called(ctx, ratedUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeedbackStats), args.Error(1)
}

func (m *mockFeedbackRepo) CommunityRatings(ctx context.Context) ([]models.ServiceTypeRating, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceTypeRating), args.Error(1)
}

func (m *mockFeedbackRepo) RequestIDsWithFeedback(ctx context.Context, pinID uuid.UUID, requestIDs []string) (map[string]bool, error) {
	args := m.Called(ctx, pinID, requestIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

type mockRequestRepoForFeedback struct {
	mock.Mock
}

func (m *mockRequestRepoForFeedback) GetByID(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestRepoForFeedback) List(ctx context.Context, f repository.ListFilter) ([]models.Request, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func completedRequest(pinID uuid.UUID) *models.Request {
	cvID := uuid.New()
	return &models.Request{
		ID:            "r001",
		RequestedByID: pinID,
		Status:        models.RequestStatusCompleted,
		AssignedToID:  &cvID,
	}
}

func TestSubmitFeedbackRatesVolunteer(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	req := completedRequest(pinID)
	requests.On("GetByID", ctx, "r001").Return(req, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Feedback")).Return(nil)

	svc := NewFeedbackService(repo, requests)
	fb, err := svc.SubmitFeedback(ctx, pinID, "r001", 5, nil)

	assert.NoError(t, err)
	assert.Equal(t, *req.AssignedToID, fb.RatedUserID)
	assert.Equal(t, models.RatedRoleCV, fb.RatedUserRole)
}

func TestSubmitFeedbackRatesCSRRepWhenAssigned(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	repID := uuid.New()
	req := completedRequest(pinID)
	req.AssignedByID = &repID

	requests.On("GetByID", ctx, "r001").Return(req, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Feedback")).Return(nil)

	svc := NewFeedbackService(repo, requests)
	fb, err := svc.SubmitFeedback(ctx, pinID, "r001", 4, nil)

	// Если назначал представитель, оценивается он, а не волонтёр.
	assert.NoError(t, err)
	assert.Equal(t, repID, fb.RatedUserID)
	assert.Equal(t, models.RatedRoleCSRRep, fb.RatedUserRole)
}

func TestSubmitFeedbackRejectsBadRating(t *testing.T) {
	ctx := context.Background()
	svc := NewFeedbackService(new(mockFeedbackRepo), new(mockRequestRepoForFeedback))

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.SubmitFeedback(ctx, uuid.New(), "r001", rating, nil)
		assert.True(t, apperror.IsValidation(err))
	}
}

func TestSubmitFeedbackOnlyCompleted(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	req := completedRequest(pinID)
	req.Status = models.RequestStatusActive
	requests.On("GetByID", ctx, "r001").Return(req, nil)

	svc := NewFeedbackService(repo, requests)
	_, err := svc.SubmitFeedback(ctx, pinID, "r001", 5, nil)

	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "выполненной")
}

func TestSubmitFeedbackNoRatedParty(t *testing.T) {
	ctx := context.Background()
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	req := &models.Request{ID: "r001", RequestedByID: pinID, Status: models.RequestStatusCompleted}
	requests.On("GetByID", ctx, "r001").Return(req, nil)

	svc := NewFeedbackService(new(mockFeedbackRepo), requests)
	_, err := svc.SubmitFeedback(ctx, pinID, "r001", 5, nil)

	assert.ErrorIs(t, err, apperror.ErrNoRatedParty)
}

func TestSubmitFeedbackDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	requests.On("GetByID", ctx, "r001").Return(completedRequest(pinID), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Feedback")).Return(repository.ErrFeedbackExists)

	svc := NewFeedbackService(repo, requests)
	_, err := svc.SubmitFeedback(ctx, pinID, "r001", 5, nil)

	assert.ErrorIs(t, err, apperror.ErrFeedbackExists)
}

func TestSubmitFeedbackOnlyRequester(t *testing.T) {
	ctx := context.Background()
	requests := new(mockRequestRepoForFeedback)

	requests.On("GetByID", ctx, "r001").Return(completedRequest(uuid.New()), nil)

	svc := NewFeedbackService(new(mockFeedbackRepo), requests)
	_, err := svc.SubmitFeedback(ctx, uuid.New(), "r001", 5, nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestBulkSubmitFeedbackPartialSuccess(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	reqA := completedRequest(pinID)
	reqA.ID = "r001"
	reqB := completedRequest(pinID)
	reqB.ID = "r002"
	reqC := completedRequest(pinID)
	reqC.ID = "r003"

	requests.On("GetByID", ctx, "r001").Return(reqA, nil)
	requests.On("GetByID", ctx, "r002").Return(reqB, nil)
	requests.On("GetByID", ctx, "r003").Return(reqC, nil)

	repo.On("Create", ctx, mock.MatchedBy(func(fb *models.Feedback) bool { return fb.RequestID == "r001" })).Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(fb *models.Feedback) bool { return fb.RequestID == "r002" })).Return(repository.ErrFeedbackExists)
	repo.On("Create", ctx, mock.MatchedBy(func(fb *models.Feedback) bool { return fb.RequestID == "r003" })).Return(nil)

	svc := NewFeedbackService(repo, requests)
	result, err := svc.BulkSubmitFeedback(ctx, pinID, []BulkFeedbackItem{
		{RequestID: "r001", Rating: 5},
		{RequestID: "r002", Rating: 4},
		{RequestID: "r003", Rating: 3},
	})

	// Дубликат не мешает остальным: два принято, один отказ с причиной.
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Submitted)
	assert.Len(t, result.Failures, 1)
	assert.Equal(t, "r002", result.Failures[0].RequestID)
	assert.Contains(t, result.Failures[0].Reason, "уже оставлен")
}

func TestAverageRatingNoFeedback(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)

	userID := uuid.New()
	repo.On("AverageRating", ctx, userID).Return(0.0, 0, nil)

	svc := NewFeedbackService(repo, new(mockRequestRepoForFeedback))
	avg, total, err := svc.AverageRating(ctx, userID)

	assert.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, total)
}

func TestEligibleRequestsMarksExisting(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	reqA := completedRequest(pinID)
	reqA.ID = "r001"
	reqB := completedRequest(pinID)
	reqB.ID = "r002"

	requests.On("List", ctx, mock.AnythingOfType("repository.ListFilter")).Return([]models.Request{*reqA, *reqB}, nil)
	repo.On("RequestIDsWithFeedback", ctx, pinID, []string{"r001", "r002"}).Return(map[string]bool{"r001": true}, nil)

	svc := NewFeedbackService(repo, requests)
	eligible, err := svc.EligibleRequests(ctx, pinID, "")

	assert.NoError(t, err)
	assert.Len(t, eligible, 2)
	assert.True(t, eligible[0].HasFeedback)
	assert.False(t, eligible[1].HasFeedback)
}

func TestCanLeaveFeedback(t *testing.T) {
	ctx := context.Background()
	repo := new(mockFeedbackRepo)
	requests := new(mockRequestRepoForFeedback)

	pinID := uuid.New()
	requests.On("GetByID", ctx, "r001").Return(completedRequest(pinID), nil)
	repo.On("GetByRequestAndPIN", ctx, "r001", pinID).Return(nil, repository.ErrFeedbackNotFound)

	svc := NewFeedbackService(repo, requests)
	ok, err := svc.CanLeaveFeedback(ctx, pinID, "r001")

	assert.NoError(t, err)
	assert.True(t, ok)
}
