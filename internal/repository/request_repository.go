package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sdmteam/cvconnect-backend/internal/models"
)

// RequestRepository отвечает за работу с заявками и подборами.
type RequestRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrRequestNotFound = errors.New("request not found")
)

// NewRequestRepository создаёт новый экземпляр.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	request_id, requested_by_id, title, description, service_type, location, urgency,
	skills_required, start_date, end_date, status, completed_date, cancelled_at,
	assigned_to_id, assigned_by_id, category_id, view_count, shortlist_count,
	created_at, updated_at
`

// Create вставляет заявку и возвращает её с выданным идентификатором.
// Идентификатор формируется из последовательности: "r" плюс номер,
// дополненный нулями до трёх знаков (r001, r002, ... r1000 после переполнения).
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO pin_requests (
			request_id, requested_by_id, title, description, service_type, location, urgency,
			skills_required, start_date, end_date, status, category_id
		)
		VALUES (
			'r' || lpad(nextval('pin_request_seq')::text, 3, '0'),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING request_id, view_count, shortlist_count, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		req.RequestedByID, req.Title, req.Description, req.ServiceType, req.Location,
		req.Urgency, req.SkillsRequired, req.StartDate, req.EndDate, req.Status, req.CategoryID,
	)
	if err := row.Scan(&req.ID, &req.ViewCount, &req.ShortlistCount, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	query := `SELECT ` + requestColumns + ` FROM pin_requests WHERE request_id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}
	return &req, nil
}

// ListFilter параметры выборки заявок. Нулевые значения означают "без фильтра".
type ListFilter struct {
	Statuses      []string
	RequestedByID *uuid.UUID
	AssignedToID  *uuid.UUID
	Unassigned    bool
	CategoryID    *int64
	Uncategorized bool
	ServiceType   string
	Location      string
	Search        string
	Limit         int
	Offset        int
}

// List возвращает заявки по фильтру, новые первыми.
func (r *RequestRepository) List(ctx context.Context, f ListFilter) ([]models.Request, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(f.Statuses))
	}
	if f.RequestedByID != nil {
		add("requested_by_id = $%d", *f.RequestedByID)
	}
	if f.AssignedToID != nil {
		add("assigned_to_id = $%d", *f.AssignedToID)
	}
	if f.Unassigned {
		conds = append(conds, "assigned_to_id IS NULL")
	}
	if f.Uncategorized {
		conds = append(conds, "category_id IS NULL")
	} else if f.CategoryID != nil {
		add("category_id = $%d", *f.CategoryID)
	}
	if f.ServiceType != "" {
		add("lower(service_type) = lower($%d)", f.ServiceType)
	}
	if f.Location != "" {
		add("lower(location) = lower($%d)", f.Location)
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", n, n))
	}

	query := `SELECT ` + requestColumns + ` FROM pin_requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	requests := []models.Request{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("request repository: list %w", err)
	}
	return requests, nil
}

// Update обновляет редактируемые поля заявки.
func (r *RequestRepository) Update(ctx context.Context, req *models.Request) error {
	query := `
		UPDATE pin_requests
		SET title = $2, description = $3, service_type = $4, location = $5, urgency = $6,
		    skills_required = $7, start_date = $8, end_date = $9, category_id = $10,
		    updated_at = now()
		WHERE request_id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		req.ID, req.Title, req.Description, req.ServiceType, req.Location, req.Urgency,
		req.SkillsRequired, req.StartDate, req.EndDate, req.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("request repository: update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("request repository: update rows affected %w", err)
	}
	if affected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// Accept переводит pending-заявку в active и закрепляет исполнителя.
// Условие в WHERE гарантирует, что из конкурирующих вызовов ровно один
// получит true: остальные не затронут ни одной строки.
// Просроченную pending-заявку принять нельзя.
func (r *RequestRepository) Accept(ctx context.Context, requestID string, cvID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE pin_requests
		SET status = 'active', assigned_to_id = COALESCE(assigned_to_id, $2), updated_at = now()
		WHERE request_id = $1 AND status = 'pending' AND end_date >= $3
	`
	res, err := r.db.ExecContext(ctx, query, requestID, cvID, now)
	if err != nil {
		return false, fmt.Errorf("request repository: accept %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("request repository: accept rows affected %w", err)
	}
	return affected == 1, nil
}

// Reject удаляет pending-заявку. Заявка в любом другом статусе не трогается.
func (r *RequestRepository) Reject(ctx context.Context, requestID string) (bool, error) {
	query := `DELETE FROM pin_requests WHERE request_id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, requestID)
	if err != nil {
		return false, fmt.Errorf("request repository: reject %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("request repository: reject rows affected %w", err)
	}
	return affected == 1, nil
}

// Complete отмечает заявку выполненной назначенным исполнителем.
// Разрешено из active и late: просрочка не мешает засчитать работу.
func (r *RequestRepository) Complete(ctx context.Context, requestID string, cvID uuid.UUID, completedAt time.Time) (bool, error) {
	query := `
		UPDATE pin_requests
		SET status = 'completed', completed_date = $3, updated_at = now()
		WHERE request_id = $1 AND assigned_to_id = $2 AND status IN ('active', 'late')
	`
	res, err := r.db.ExecContext(ctx, query, requestID, cvID, completedAt)
	if err != nil {
		return false, fmt.Errorf("request repository: complete %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("request repository: complete rows affected %w", err)
	}
	return affected == 1, nil
}

// Cancel отменяет заявку её автора. Блокируется только для выполненных
// и уже отменённых заявок.
func (r *RequestRepository) Cancel(ctx context.Context, requestID string, pinID uuid.UUID, cancelledAt time.Time) (bool, error) {
	query := `
		UPDATE pin_requests
		SET status = 'cancelled', cancelled_at = $3, updated_at = now()
		WHERE request_id = $1 AND requested_by_id = $2 AND status NOT IN ('completed', 'cancelled')
	`
	res, err := r.db.ExecContext(ctx, query, requestID, pinID, cancelledAt)
	if err != nil {
		return false, fmt.Errorf("request repository: cancel %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("request repository: cancel rows affected %w", err)
	}
	return affected == 1, nil
}

// Assign в одной транзакции закрепляет исполнителя за pending-заявкой
// и создаёт запись подбора. Возвращает false, если заявка уже не pending.
func (r *RequestRepository) Assign(ctx context.Context, requestID string, cvID, assignedByID uuid.UUID, now time.Time) (matched bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("request repository: assign begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	updateQuery := `
		UPDATE pin_requests
		SET status = 'active', assigned_to_id = $2, assigned_by_id = $3, updated_at = now()
		WHERE request_id = $1 AND status = 'pending' AND end_date >= $4
	`
	res, err := tx.ExecContext(ctx, updateQuery, requestID, cvID, assignedByID, now)
	if err != nil {
		return false, fmt.Errorf("request repository: assign update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("request repository: assign rows affected %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	matchQuery := `
		INSERT INTO matches (match_id, request_id, user_id, assigned_by_id, status, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err = tx.ExecContext(ctx, matchQuery,
		uuid.New(), requestID, cvID, assignedByID, models.MatchStatusConfirmed, now,
	); err != nil {
		return false, fmt.Errorf("request repository: assign insert match %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("request repository: assign commit %w", err)
	}
	return true, nil
}

// MarkLateOverdue переводит просроченные active-заявки в late.
// Возвращает количество затронутых строк.
func (r *RequestRepository) MarkLateOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE pin_requests
		SET status = 'late', updated_at = now()
		WHERE status = 'active' AND end_date < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("request repository: mark late %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("request repository: mark late rows affected %w", err)
	}
	return affected, nil
}

// ExpireOverdue переводит просроченные pending- и late-заявки в expired.
// Вызывается только административным sweep'ом: на читающих путях
// просрочка вычисляется без записи.
func (r *RequestRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE pin_requests
		SET status = 'expired', updated_at = now()
		WHERE status IN ('pending', 'late') AND end_date < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("request repository: expire overdue %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("request repository: expire overdue rows affected %w", err)
	}
	return affected, nil
}

// GetMatchesByRequest возвращает записи подбора по заявке.
func (r *RequestRepository) GetMatchesByRequest(ctx context.Context, requestID string) ([]models.Match, error) {
	matches := []models.Match{}
	query := `
		SELECT match_id, request_id, user_id, assigned_by_id, status, assigned_at
		FROM matches
		WHERE request_id = $1
		ORDER BY assigned_at DESC
	`
	if err := r.db.SelectContext(ctx, &matches, query, requestID); err != nil {
		return nil, fmt.Errorf("request repository: get matches %w", err)
	}
	return matches, nil
}
