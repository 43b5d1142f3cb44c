package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
	"github.com/sdmteam/cvconnect-backend/internal/validation"
)

type CategoryRepo interface {
	Create(ctx context.Context, c *models.Category) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id int64) error
	CountActiveLinks(ctx context.Context, id int64, now time.Time) (int, error)
	ListWithCounts(ctx context.Context) ([]models.CategoryCount, error)
	StatusBreakdown(ctx context.Context, id int64) (*models.CategoryStatusBreakdown, error)
	Reassign(ctx context.Context, requestID string, toID *int64) (bool, error)
	BulkReassign(ctx context.Context, requestIDs []string, toID *int64) ([]string, error)
}

// CategoryService управляет справочником категорий.
// Операции возвращают (ok, message): бизнес-отказ — это false с причиной
// для пользователя, а не ошибка.
type CategoryService struct {
	repo CategoryRepo
	now  func() time.Time
}

func NewCategoryService(repo CategoryRepo) *CategoryService {
	return &CategoryService{repo: repo, now: time.Now}
}

// CreateCategory создаёт категорию. Имя уникально без учёта регистра.
func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (*models.Category, bool, string, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateCategoryName(name); err != nil {
		return nil, false, err.Error(), nil
	}
	if err := validation.ValidateLength("описание", description, 0, validation.MaxCategoryDescLength); err != nil {
		return nil, false, err.Error(), nil
	}

	taken, err := s.repo.NameExists(ctx, name, 0)
	if err != nil {
		return nil, false, "", fmt.Errorf("category service: проверка имени: %w", err)
	}
	if taken {
		return nil, false, fmt.Sprintf("категория %q уже существует", name), nil
	}

	c := &models.Category{Name: name, Description: strings.TrimSpace(description), IsActive: true}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, false, "", fmt.Errorf("category service: создание: %w", err)
	}
	return c, true, "", nil
}

// UpdateCategory переименовывает категорию и меняет описание/активность.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name, description string, isActive bool) (bool, string, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateCategoryName(name); err != nil {
		return false, err.Error(), nil
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			return false, "категория не найдена", nil
		}
		return false, "", fmt.Errorf("category service: получение: %w", err)
	}

	taken, err := s.repo.NameExists(ctx, name, id)
	if err != nil {
		return false, "", fmt.Errorf("category service: проверка имени: %w", err)
	}
	if taken {
		return false, fmt.Sprintf("категория %q уже существует", name), nil
	}

	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.IsActive = isActive
	if err := s.repo.Update(ctx, c); err != nil {
		return false, "", fmt.Errorf("category service: обновление: %w", err)
	}
	return true, "", nil
}

// DeleteCategory удаляет категорию. Удаление блокируется, пока на категорию
// ссылаются незакрытые заявки (pending, active, late) — причина отказа
// содержит их количество. Просроченные pending-заявки уже expired
// по действительному статусу и удалению не мешают.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) (bool, string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == repository.ErrCategoryNotFound {
			return false, "категория не найдена", nil
		}
		return false, "", fmt.Errorf("category service: получение: %w", err)
	}

	count, err := s.repo.CountActiveLinks(ctx, id, s.now())
	if err != nil {
		return false, "", fmt.Errorf("category service: подсчёт привязок: %w", err)
	}
	if count > 0 {
		return false, fmt.Sprintf("нельзя удалить категорию: с ней связано незакрытых заявок — %d", count), nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrCategoryNotFound {
			return false, "категория не найдена", nil
		}
		return false, "", fmt.Errorf("category service: удаление: %w", err)
	}
	return true, "", nil
}

// GetCategory возвращает категорию по идентификатору.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// ListCategories возвращает все категории.
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

// ListWithCounts возвращает число заявок по категориям,
// включая заявки без категории.
func (s *CategoryService) ListWithCounts(ctx context.Context) ([]models.CategoryCount, error) {
	return s.repo.ListWithCounts(ctx)
}

// StatusBreakdown возвращает разбивку заявок категории по статусам.
func (s *CategoryService) StatusBreakdown(ctx context.Context, id int64) (*models.CategoryStatusBreakdown, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.StatusBreakdown(ctx, id)
}

// ReassignRequest переводит заявку в другую категорию.
// toID == nil снимает категорию.
func (s *CategoryService) ReassignRequest(ctx context.Context, requestID string, toID *int64) (bool, string, error) {
	if toID != nil {
		if _, err := s.repo.GetByID(ctx, *toID); err != nil {
			if err == repository.ErrCategoryNotFound {
				return false, "категория не найдена", nil
			}
			return false, "", fmt.Errorf("category service: получение: %w", err)
		}
	}

	ok, err := s.repo.Reassign(ctx, requestID, toID)
	if err != nil {
		return false, "", fmt.Errorf("category service: перенос: %w", err)
	}
	if !ok {
		return false, "заявка не найдена", nil
	}
	return true, "", nil
}

// BulkReassign атомарно переводит набор заявок в категорию toID:
// либо переносятся все, либо ни одной.
func (s *CategoryService) BulkReassign(ctx context.Context, requestIDs []string, toID *int64) (bool, string, error) {
	if len(requestIDs) == 0 {
		return false, "список заявок пуст", nil
	}
	if toID != nil {
		if _, err := s.repo.GetByID(ctx, *toID); err != nil {
			if err == repository.ErrCategoryNotFound {
				return false, "категория не найдена", nil
			}
			return false, "", fmt.Errorf("category service: получение: %w", err)
		}
	}

	missing, err := s.repo.BulkReassign(ctx, requestIDs, toID)
	if err != nil {
		return false, "", fmt.Errorf("category service: пакетный перенос: %w", err)
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("заявки не найдены: %s", strings.Join(missing, ", ")), nil
	}
	return true, "", nil
}
