package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sdmteam/cvconnect-backend/internal/models"
)

// EngagementRepository отвечает за просмотры, интересы и шортлисты.
// Счётчики на заявке инкрементируются в той же транзакции, что и вставка
// в таблицу пар, и только при фактической вставке: повтор от того же
// пользователя счётчик не меняет.
type EngagementRepository struct {
	db *sqlx.DB
}

// NewEngagementRepository создаёт новый экземпляр.
func NewEngagementRepository(db *sqlx.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// recordOnce вставляет пару (request_id, user_id) в таблицу table и при
// успехе инкрементирует counter на заявке. Возвращает true, если пара новая.
func (r *EngagementRepository) recordOnce(ctx context.Context, table, userColumn, counter, requestID string, userID uuid.UUID) (inserted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("engagement repository: %s begin tx %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, request_id, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id, %s) DO NOTHING
	`, table, userColumn, userColumn)
	res, err := tx.ExecContext(ctx, insertQuery, uuid.New(), requestID, userID)
	if err != nil {
		return false, fmt.Errorf("engagement repository: %s insert %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("engagement repository: %s rows affected %w", table, err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	if counter != "" {
		counterQuery := fmt.Sprintf(`
			UPDATE pin_requests SET %s = %s + 1 WHERE request_id = $1
		`, counter, counter)
		if _, err = tx.ExecContext(ctx, counterQuery, requestID); err != nil {
			return false, fmt.Errorf("engagement repository: %s counter %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("engagement repository: %s commit %w", table, err)
	}
	return true, nil
}

// RecordView фиксирует первый просмотр заявки волонтёром
// и увеличивает view_count. Повторный просмотр не учитывается.
func (r *EngagementRepository) RecordView(ctx context.Context, requestID string, cvID uuid.UUID) (bool, error) {
	return r.recordOnce(ctx, "request_views", "cv_id", "view_count", requestID, cvID)
}

// AddInterest фиксирует интерес волонтёра к заявке.
func (r *EngagementRepository) AddInterest(ctx context.Context, requestID string, cvID uuid.UUID) (bool, error) {
	return r.recordOnce(ctx, "request_interests", "cv_id", "", requestID, cvID)
}

// AddShortlist добавляет заявку в шортлист представителя
// и увеличивает shortlist_count.
func (r *EngagementRepository) AddShortlist(ctx context.Context, requestID string, csrRepID uuid.UUID) (bool, error) {
	return r.recordOnce(ctx, "request_shortlists", "csrrep_id", "shortlist_count", requestID, csrRepID)
}

// RemoveShortlist убирает заявку из шортлиста представителя.
// Счётчик shortlist_count не уменьшается: он монотонный.
func (r *EngagementRepository) RemoveShortlist(ctx context.Context, requestID string, csrRepID uuid.UUID) (bool, error) {
	query := `DELETE FROM request_shortlists WHERE request_id = $1 AND csrrep_id = $2`
	res, err := r.db.ExecContext(ctx, query, requestID, csrRepID)
	if err != nil {
		return false, fmt.Errorf("engagement repository: remove shortlist %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("engagement repository: remove shortlist rows affected %w", err)
	}
	return affected == 1, nil
}

// ListShortlisted возвращает заявки из шортлиста представителя.
func (r *EngagementRepository) ListShortlisted(ctx context.Context, csrRepID uuid.UUID) ([]models.Request, error) {
	requests := []models.Request{}
	query := `
		SELECT ` + requestColumns2("r") + `
		FROM pin_requests r
		JOIN request_shortlists s ON s.request_id = r.request_id
		WHERE s.csrrep_id = $1
		ORDER BY s.added_at DESC
	`
	if err := r.db.SelectContext(ctx, &requests, query, csrRepID); err != nil {
		return nil, fmt.Errorf("engagement repository: list shortlisted %w", err)
	}
	return requests, nil
}

// ListInterested возвращает волонтёров, проявивших интерес к заявке.
func (r *EngagementRepository) ListInterested(ctx context.Context, requestID string) ([]models.User, error) {
	users := []models.User{}
	query := `
		SELECT u.id, u.username, u.password_hash, u.role, u.fullname, u.email, u.is_active,
		       u.last_login_at, u.address, u.org, u.location, u.skills, u.created_at, u.updated_at
		FROM users u
		JOIN request_interests i ON i.cv_id = u.id
		WHERE i.request_id = $1
		ORDER BY i.created_at
	`
	if err := r.db.SelectContext(ctx, &users, query, requestID); err != nil {
		return nil, fmt.Errorf("engagement repository: list interested %w", err)
	}
	return users, nil
}

// requestColumns2 возвращает список колонок заявки с префиксом таблицы.
func requestColumns2(alias string) string {
	return fmt.Sprintf(`
		%[1]s.request_id, %[1]s.requested_by_id, %[1]s.title, %[1]s.description, %[1]s.service_type,
		%[1]s.location, %[1]s.urgency, %[1]s.skills_required, %[1]s.start_date, %[1]s.end_date,
		%[1]s.status, %[1]s.completed_date, %[1]s.cancelled_at, %[1]s.assigned_to_id,
		%[1]s.assigned_by_id, %[1]s.category_id, %[1]s.view_count, %[1]s.shortlist_count,
		%[1]s.created_at, %[1]s.updated_at
	`, alias)
}
