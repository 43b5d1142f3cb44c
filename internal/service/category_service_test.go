package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
)

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *mockCategoryRepo) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCategoryRepo) Update(ctx context.Context, c *models.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCategoryRepo) CountActiveLinks(ctx context.Context, id int64, now time.Time) (int, error) {
	args := m.Called(ctx, id, now)
	return args.Int(0), args.Error(1)
}

func (m *mockCategoryRepo) ListWithCounts(ctx context.Context) ([]models.CategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryCount), args.Error(1)
}

func (m *mockCategoryRepo) StatusBreakdown(ctx context.Context, id int64) (*models.CategoryStatusBreakdown, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategoryStatusBreakdown), args.Error(1)
}

func (m *mockCategoryRepo) Reassign(ctx context.Context, requestID string, toID *int64) (bool, error) {
	args := m.Called(ctx, requestID, toID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCategoryRepo) BulkReassign(ctx context.Context, requestIDs []string, toID *int64) ([]string, error) {
	args := m.Called(ctx, requestIDs, toID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("NameExists", ctx, "Транспорт", int64(0)).Return(true, nil)

	svc := NewCategoryService(repo)
	_, ok, msg, err := svc.CreateCategory(ctx, "  Транспорт  ", "")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "уже существует")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateCategoryTrimsName(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("NameExists", ctx, "Транспорт", int64(0)).Return(false, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Транспорт" && c.IsActive
	})).Return(nil)

	svc := NewCategoryService(repo)
	c, ok, _, err := svc.CreateCategory(ctx, "  Транспорт  ", "перевозки")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Транспорт", c.Name)
}

func TestDeleteCategoryBlockedByActiveLinks(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("GetByID", ctx, int64(7)).Return(&models.Category{ID: 7, Name: "Транспорт"}, nil)
	repo.On("CountActiveLinks", ctx, int64(7), mock.AnythingOfType("time.Time")).Return(1, nil)

	svc := NewCategoryService(repo)
	ok, msg, err := svc.DeleteCategory(ctx, 7)

	// Одна незакрытая заявка блокирует удаление, причина содержит число.
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "1")
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteCategoryAllowedWhenOnlyClosedLinks(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("GetByID", ctx, int64(7)).Return(&models.Category{ID: 7}, nil)
	repo.On("CountActiveLinks", ctx, int64(7), mock.AnythingOfType("time.Time")).Return(0, nil)
	repo.On("Delete", ctx, int64(7)).Return(nil)

	svc := NewCategoryService(repo)
	ok, msg, err := svc.DeleteCategory(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestDeleteCategoryIgnoresOverduePending(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	// Подсчёт привязок делается на момент вызова: просроченная pending-заявка
	// по действительному статусу expired и не блокирует удаление.
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	repo.On("GetByID", ctx, int64(7)).Return(&models.Category{ID: 7}, nil)
	repo.On("CountActiveLinks", ctx, int64(7), now).Return(0, nil)
	repo.On("Delete", ctx, int64(7)).Return(nil)

	svc := NewCategoryService(repo)
	svc.now = func() time.Time { return now }

	ok, msg, err := svc.DeleteCategory(ctx, 7)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, msg)
	repo.AssertExpectations(t)
}

func TestDeleteCategoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("GetByID", ctx, int64(99)).Return(nil, repository.ErrCategoryNotFound)

	svc := NewCategoryService(repo)
	ok, msg, err := svc.DeleteCategory(ctx, 99)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "не найдена")
}

func TestUpdateCategoryRenameToTakenName(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("GetByID", ctx, int64(7)).Return(&models.Category{ID: 7, Name: "Транспорт"}, nil)
	repo.On("NameExists", ctx, "Уход", int64(7)).Return(true, nil)

	svc := NewCategoryService(repo)
	ok, msg, err := svc.UpdateCategory(ctx, 7, "Уход", "", true)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "уже существует")
}

func TestBulkReassignAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	toID := int64(3)
	ids := []string{"r001", "r404"}
	repo.On("GetByID", ctx, toID).Return(&models.Category{ID: toID}, nil)
	repo.On("BulkReassign", ctx, ids, &toID).Return([]string{"r404"}, nil)

	svc := NewCategoryService(repo)
	ok, msg, err := svc.BulkReassign(ctx, ids, &toID)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "r404")
}

func TestBulkReassignEmptyList(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(new(mockCategoryRepo))

	ok, msg, err := svc.BulkReassign(ctx, nil, nil)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, msg, "пуст")
}

func TestReassignToUncategorized(t *testing.T) {
	ctx := context.Background()
	repo := new(mockCategoryRepo)

	repo.On("Reassign", ctx, "r001", (*int64)(nil)).Return(true, nil)

	svc := NewCategoryService(repo)
	ok, msg, err := svc.ReassignRequest(ctx, "r001", nil)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, msg)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
