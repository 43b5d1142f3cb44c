package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
)

type mockMatchingRequestRepo struct {
	mock.Mock
}

func (m *mockMatchingRequestRepo) GetByID(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockMatchingRequestRepo) List(ctx context.Context, f repository.ListFilter) ([]models.Request, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockMatchingRequestRepo) Assign(ctx context.Context, requestID string, cvID, assignedByID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, requestID, cvID, assignedByID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockMatchingRequestRepo) GetMatchesByRequest(ctx context.Context, requestID string) ([]models.Match, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Match), args.Error(1)
}

type mockMatchingUserRepo struct {
	mock.Mock
}

func (m *mockMatchingUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockMatchingUserRepo) ListActiveVolunteers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyAssigned(requestID string, cvID uuid.UUID) {
	m.Called(requestID, cvID)
}

func strPtr(s string) *string { return &s }

func TestNormalizeSkills(t *testing.T) {
	assert.Equal(t, []string{"cooking", "driving"}, NormalizeSkills("Cooking, Driving"))
	assert.Equal(t, []string{"cooking", "driving"}, NormalizeSkills("cooking;driving"))
	assert.Equal(t, []string{"first aid"}, NormalizeSkills("  First Aid  "))
	assert.Empty(t, NormalizeSkills(" , ; "))
	assert.Empty(t, NormalizeSkills(""))
}

func TestMatchScore(t *testing.T) {
	req := &models.Request{
		Location:       "Sydney",
		SkillsRequired: strPtr("cooking, driving"),
	}

	// Два общих навыка перевешивают совпадение локации с одним.
	a := &models.User{Skills: strPtr("cooking"), Location: strPtr("Sydney")}
	b := &models.User{Skills: strPtr("Cooking, Driving"), Location: strPtr("Melbourne")}

	assert.Equal(t, 11, MatchScore(req, a))
	assert.Equal(t, 20, MatchScore(req, b))
	assert.Greater(t, MatchScore(req, b), MatchScore(req, a))
}

func TestMatchScoreDuplicateSkillsCountOnce(t *testing.T) {
	req := &models.Request{Location: "Sydney", SkillsRequired: strPtr("cooking")}
	cv := &models.User{Skills: strPtr("cooking, Cooking, COOKING"), Location: strPtr("Perth")}

	assert.Equal(t, 10, MatchScore(req, cv))
}

func TestMatchScoreNoSkills(t *testing.T) {
	req := &models.Request{Location: "Sydney"}
	cv := &models.User{Location: strPtr("sydney")}

	// Без навыков остаётся только бонус за локацию (без учёта регистра).
	assert.Equal(t, 1, MatchScore(req, cv))
}

func TestRankCandidatesOrder(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	req := &models.Request{
		ID:             "r001",
		Location:       "Sydney",
		SkillsRequired: strPtr("cooking, driving"),
	}
	volunteers := []models.User{
		{ID: uuid.New(), FullName: "A", Skills: strPtr("cooking"), Location: strPtr("Sydney")},
		{ID: uuid.New(), FullName: "B", Skills: strPtr("cooking, driving"), Location: strPtr("Melbourne")},
		{ID: uuid.New(), FullName: "C", Skills: strPtr("gardening"), Location: strPtr("Perth")},
	}

	requests.On("GetByID", ctx, "r001").Return(req, nil)
	users.On("ListActiveVolunteers", ctx).Return(volunteers, nil)

	svc := NewMatchingService(requests, users, nil)
	ranked, err := svc.RankCandidates(ctx, "r001")

	assert.NoError(t, err)
	assert.Len(t, ranked, 3)
	assert.Equal(t, "B", ranked[0].User.FullName)
	assert.Equal(t, 20, ranked[0].Score)
	assert.Equal(t, "A", ranked[1].User.FullName)
	assert.Equal(t, 11, ranked[1].Score)
	// Кандидат с нулевым баллом остаётся в списке.
	assert.Equal(t, "C", ranked[2].User.FullName)
	assert.Equal(t, 0, ranked[2].Score)
}

func TestFindCandidatesDropsZeroScore(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	req := &models.Request{ID: "r001", Location: "Sydney", SkillsRequired: strPtr("cooking")}
	volunteers := []models.User{
		{ID: uuid.New(), FullName: "A", Skills: strPtr("cooking"), Location: strPtr("Perth")},
		{ID: uuid.New(), FullName: "C", Skills: strPtr("gardening"), Location: strPtr("Perth")},
	}

	requests.On("GetByID", ctx, "r001").Return(req, nil)
	users.On("ListActiveVolunteers", ctx).Return(volunteers, nil)

	svc := NewMatchingService(requests, users, nil)
	candidates, err := svc.FindCandidates(ctx, "r001")

	assert.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].User.FullName)
}

func TestRankCandidatesStableOnTies(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	req := &models.Request{ID: "r002", Location: "Sydney", SkillsRequired: strPtr("cooking")}
	volunteers := []models.User{
		{ID: uuid.New(), FullName: "First", Skills: strPtr("cooking"), Location: strPtr("Perth")},
		{ID: uuid.New(), FullName: "Second", Skills: strPtr("cooking"), Location: strPtr("Perth")},
	}

	requests.On("GetByID", ctx, "r002").Return(req, nil)
	users.On("ListActiveVolunteers", ctx).Return(volunteers, nil)

	svc := NewMatchingService(requests, users, nil)
	ranked, err := svc.RankCandidates(ctx, "r002")

	assert.NoError(t, err)
	assert.Equal(t, "First", ranked[0].User.FullName)
	assert.Equal(t, "Second", ranked[1].User.FullName)
}

func TestAssignNotifiesOnSuccess(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)
	notifier := new(mockNotifier)

	cvID := uuid.New()
	repID := uuid.New()
	cv := &models.User{ID: cvID, Role: models.RoleCV, IsActive: true}

	users.On("GetByID", ctx, cvID).Return(cv, nil)
	requests.On("Assign", ctx, "r003", cvID, repID, mock.AnythingOfType("time.Time")).Return(true, nil)
	notifier.On("NotifyAssigned", "r003", cvID).Return()

	svc := NewMatchingService(requests, users, notifier)
	ok, err := svc.Assign(ctx, "r003", cvID, repID)

	assert.NoError(t, err)
	assert.True(t, ok)
	notifier.AssertCalled(t, "NotifyAssigned", "r003", cvID)
}

func TestAssignRefusesInactiveVolunteer(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	cvID := uuid.New()
	users.On("GetByID", ctx, cvID).Return(&models.User{ID: cvID, Role: models.RoleCV, IsActive: false}, nil)

	svc := NewMatchingService(requests, users, nil)
	ok, err := svc.Assign(ctx, "r004", cvID, uuid.New())

	assert.NoError(t, err)
	assert.False(t, ok)
	requests.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignMissingVolunteerIsNoop(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	cvID := uuid.New()
	users.On("GetByID", ctx, cvID).Return(nil, repository.ErrUserNotFound)

	svc := NewMatchingService(requests, users, nil)
	ok, err := svc.Assign(ctx, "r005", cvID, uuid.New())

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRequestsFiltersOverdue(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	list := []models.Request{
		{ID: "r010", Status: models.RequestStatusPending, EndDate: now.Add(time.Hour)},
		{ID: "r011", Status: models.RequestStatusPending, EndDate: now.Add(-time.Hour)},
	}
	requests.On("List", ctx, mock.AnythingOfType("repository.ListFilter")).Return(list, nil)

	svc := NewMatchingService(requests, users, nil)
	svc.now = func() time.Time { return now }

	open, err := svc.OpenRequests(ctx)
	assert.NoError(t, err)
	assert.Len(t, open, 1)
	assert.Equal(t, "r010", open[0].ID)
}

func TestUnassignedRequestsFilter(t *testing.T) {
	ctx := context.Background()
	requests := new(mockMatchingRequestRepo)
	users := new(mockMatchingUserRepo)

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	list := []models.Request{
		{ID: "r020", Status: models.RequestStatusPending, EndDate: now.Add(time.Hour)},
	}
	requests.On("List", ctx, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.Unassigned
	})).Return(list, nil)

	svc := NewMatchingService(requests, users, nil)
	svc.now = func() time.Time { return now }

	unassigned, err := svc.UnassignedRequests(ctx)
	assert.NoError(t, err)
	assert.Len(t, unassigned, 1)
	requests.AssertExpectations(t)
}
