package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sdmteam/cvconnect-backend/internal/models"
)

// CategoryRepository отвечает за работу с категориями услуг.
type CategoryRepository struct {
	db *sqlx.DB
}

var (
	ErrCategoryNotFound = errors.New("category not found")
)

// NewCategoryRepository создаёт новый экземпляр.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create вставляет категорию.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO volunteer_service_categories (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query, c.Name, c.Description, c.IsActive)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("category repository: create %w", err)
	}
	return nil
}

// GetByID возвращает категорию по идентификатору.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM volunteer_service_categories
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("category repository: get by id %w", err)
	}
	return &c, nil
}

// List возвращает все категории по имени.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM volunteer_service_categories
		ORDER BY lower(name)
	`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("category repository: list %w", err)
	}
	return categories, nil
}

// NameExists проверяет занятость имени без учёта регистра и краевых пробелов.
// excludeID исключает саму категорию при переименовании; 0 — без исключения.
func (r *CategoryRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM volunteer_service_categories
			WHERE lower(trim(name)) = lower(trim($1)) AND id <> $2
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("category repository: name exists %w", err)
	}
	return exists, nil
}

// Update обновляет имя, описание и активность категории.
func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE volunteer_service_categories
		SET name = $2, description = $3, is_active = $4, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Description, c.IsActive)
	if err != nil {
		return fmt.Errorf("category repository: update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("category repository: update rows affected %w", err)
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// Delete удаляет категорию. Проверка активных привязок — на сервисном слое,
// перед вызовом.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM volunteer_service_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("category repository: delete %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("category repository: delete rows affected %w", err)
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// CountActiveLinks считает заявки категории в незакрытых статусах
// (pending, active, late) — они блокируют удаление. Просроченная
// pending-заявка по действительному статусу уже expired и не считается.
func (r *CategoryRepository) CountActiveLinks(ctx context.Context, id int64, now time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM pin_requests
		WHERE category_id = $1 AND status = ANY($2)
		  AND NOT (status = 'pending' AND end_date < $3)
	`
	if err := r.db.GetContext(ctx, &count, query, id, pq.Array(models.ActiveLinkStatuses), now); err != nil {
		return 0, fmt.Errorf("category repository: count active links %w", err)
	}
	return count, nil
}

// ListWithCounts возвращает число заявок по категориям,
// включая корзину "без категории" (category_id IS NULL).
func (r *CategoryRepository) ListWithCounts(ctx context.Context) ([]models.CategoryCount, error) {
	counts := []models.CategoryCount{}
	query := `
		SELECT category_id, COUNT(*) AS total
		FROM pin_requests
		GROUP BY category_id
		ORDER BY category_id NULLS LAST
	`
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("category repository: list with counts %w", err)
	}
	return counts, nil
}

// StatusBreakdown возвращает разбивку заявок категории по статусам.
func (r *CategoryRepository) StatusBreakdown(ctx context.Context, id int64) (*models.CategoryStatusBreakdown, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	query := `
		SELECT status, COUNT(*) AS count
		FROM pin_requests
		WHERE category_id = $1
		GROUP BY status
	`
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("category repository: status breakdown %w", err)
	}

	var b models.CategoryStatusBreakdown
	for _, row := range rows {
		switch row.Status {
		case models.RequestStatusPending:
			b.Pending = row.Count
		case models.RequestStatusActive:
			b.Active = row.Count
		case models.RequestStatusLate:
			b.Late = row.Count
		case models.RequestStatusCompleted:
			b.Completed = row.Count
		}
		b.Total += row.Count
	}
	return &b, nil
}

// Reassign переводит одну заявку в другую категорию (или убирает категорию,
// если toID == nil). Возвращает false, если заявки нет.
func (r *CategoryRepository) Reassign(ctx context.Context, requestID string, toID *int64) (bool, error) {
	query := `UPDATE pin_requests SET category_id = $2, updated_at = now() WHERE request_id = $1`
	res, err := r.db.ExecContext(ctx, query, requestID, toID)
	if err != nil {
		return false, fmt.Errorf("category repository: reassign %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("category repository: reassign rows affected %w", err)
	}
	return affected == 1, nil
}

// BulkReassign атомарно переводит набор заявок в категорию toID.
// Если хотя бы одна заявка из набора не найдена, транзакция откатывается
// и возвращается список отсутствующих идентификаторов.
func (r *CategoryRepository) BulkReassign(ctx context.Context, requestIDs []string, toID *int64) (missing []string, err error) {
	if len(requestIDs) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("category repository: bulk reassign begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	found := []string{}
	selectQuery := `SELECT request_id FROM pin_requests WHERE request_id = ANY($1) FOR UPDATE`
	if err = tx.SelectContext(ctx, &found, selectQuery, pq.Array(requestIDs)); err != nil {
		return nil, fmt.Errorf("category repository: bulk reassign select %w", err)
	}

	if len(found) != len(requestIDs) {
		seen := make(map[string]bool, len(found))
		for _, id := range found {
			seen[id] = true
		}
		for _, id := range requestIDs {
			if !seen[id] {
				missing = append(missing, id)
			}
		}
		_ = tx.Rollback()
		return missing, nil
	}

	updateQuery := `UPDATE pin_requests SET category_id = $2, updated_at = now() WHERE request_id = ANY($1)`
	if _, err = tx.ExecContext(ctx, updateQuery, pq.Array(requestIDs), toID); err != nil {
		return nil, fmt.Errorf("category repository: bulk reassign update %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("category repository: bulk reassign commit %w", err)
	}
	return nil, nil
}
