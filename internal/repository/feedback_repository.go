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

// FeedbackRepository отвечает за работу с отзывами.
type FeedbackRepository struct {
	db *sqlx.DB
}

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrFeedbackExists   = errors.New("feedback already exists")
)

// NewFeedbackRepository создаёт новый экземпляр.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create вставляет отзыв. Дубликат по (request_id, pin_id) возвращает
// ErrFeedbackExists — уникальный индекс закрывает гонку двух вставок.
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO feedbacks (feedback_id, request_id, pin_id, rated_user_id, rated_user_role, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		fb.ID, fb.RequestID, fb.PINID, fb.RatedUserID, fb.RatedUserRole, fb.Rating, fb.Comment,
	)
	if err := row.Scan(&fb.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrFeedbackExists
		}
		return fmt.Errorf("feedback repository: create %w", err)
	}
	return nil
}

// GetByRequestAndPIN возвращает отзыв PIN по конкретной заявке.
func (r *FeedbackRepository) GetByRequestAndPIN(ctx context.Context, requestID string, pinID uuid.UUID) (*models.Feedback, error) {
	var fb models.Feedback
	query := `
		SELECT feedback_id, request_id, pin_id, rated_user_id, rated_user_role, rating, comment, created_at
		FROM feedbacks
		WHERE request_id = $1 AND pin_id = $2
	`
	if err := r.db.GetContext(ctx, &fb, query, requestID, pinID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("feedback repository: get by request and pin %w", err)
	}
	return &fb, nil
}

// AverageRating возвращает среднюю оценку и число отзывов о пользователе.
// Без отзывов — (0, 0), а не ошибка.
func (r *FeedbackRepository) AverageRating(ctx context.Context, ratedUserID uuid.UUID) (float64, int, error) {
	var agg struct {
		Average float64 `db:"average"`
		Total   int     `db:"total"`
	}
	query := `
		SELECT COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total
		FROM feedbacks
		WHERE rated_user_id = $1
	`
	if err := r.db.GetContext(ctx, &agg, query, ratedUserID); err != nil {
		return 0, 0, fmt.Errorf("feedback repository: average rating %w", err)
	}
	return agg.Average, agg.Total, nil
}

// FeedbackFilter параметры выборки истории отзывов.
type FeedbackFilter struct {
	PINID       *uuid.UUID
	RatedUserID *uuid.UUID
	ServiceType string
	MinRating   int
	MaxRating   int
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// List возвращает отзывы с деталями заявки, новые первыми.
func (r *FeedbackRepository) List(ctx context.Context, f FeedbackFilter) ([]models.Feedback, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.PINID != nil {
		add("f.pin_id = $%d", *f.PINID)
	}
	if f.RatedUserID != nil {
		add("f.rated_user_id = $%d", *f.RatedUserID)
	}
	if f.ServiceType != "" {
		add("lower(r.service_type) = lower($%d)", f.ServiceType)
	}
	if f.MinRating > 0 {
		add("f.rating >= $%d", f.MinRating)
	}
	if f.MaxRating > 0 {
		add("f.rating <= $%d", f.MaxRating)
	}
	if f.From != nil {
		add("f.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("f.created_at <= $%d", *f.To)
	}

	query := `
		SELECT f.feedback_id, f.request_id, f.pin_id, f.rated_user_id, f.rated_user_role,
		       f.rating, f.comment, f.created_at,
		       r.title AS request_title, r.service_type
		FROM feedbacks f
		JOIN pin_requests r ON r.request_id = f.request_id
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY f.created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows := []struct {
		models.Feedback
		RequestTitle string `db:"request_title"`
		ServiceType  string `db:"service_type"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("feedback repository: list %w", err)
	}

	feedbacks := make([]models.Feedback, 0, len(rows))
	for _, row := range rows {
		fb := row.Feedback
		fb.RequestTitle = row.RequestTitle
		fb.ServiceType = row.ServiceType
		feedbacks = append(feedbacks, fb)
	}
	return feedbacks, nil
}

// Stats возвращает агрегированную статистику отзывов о пользователе.
func (r *FeedbackRepository) Stats(ctx context.Context, ratedUserID uuid.UUID) (*models.FeedbackStats, error) {
	rows := []struct {
		Rating int `db:"rating"`
		Count  int `db:"count"`
	}{}
	query := `
		SELECT rating, COUNT(*) AS count
		FROM feedbacks
		WHERE rated_user_id = $1
		GROUP BY rating
	`
	if err := r.db.SelectContext(ctx, &rows, query, ratedUserID); err != nil {
		return nil, fmt.Errorf("feedback repository: stats %w", err)
	}

	stats := &models.FeedbackStats{RatingCounts: map[int]int{}}
	sum := 0
	for _, row := range rows {
		stats.RatingCounts[row.Rating] = row.Count
		stats.Total += row.Count
		sum += row.Rating * row.Count
	}
	if stats.Total > 0 {
		stats.Average = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

// CommunityRatings возвращает средние оценки в разрезе типов услуг.
func (r *FeedbackRepository) CommunityRatings(ctx context.Context) ([]models.ServiceTypeRating, error) {
	rows := []struct {
		ServiceType string `db:"service_type"`
		Rating      int    `db:"rating"`
		Count       int    `db:"count"`
	}{}
	query := `
		SELECT r.service_type, f.rating, COUNT(*) AS count
		FROM feedbacks f
		JOIN pin_requests r ON r.request_id = f.request_id
		GROUP BY r.service_type, f.rating
		ORDER BY r.service_type
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("feedback repository: community ratings %w", err)
	}

	byType := map[string]*models.ServiceTypeRating{}
	order := []string{}
	for _, row := range rows {
		agg, ok := byType[row.ServiceType]
		if !ok {
			agg = &models.ServiceTypeRating{ServiceType: row.ServiceType, RatingCounts: map[int]int{}}
			byType[row.ServiceType] = agg
			order = append(order, row.ServiceType)
		}
		agg.RatingCounts[row.Rating] = row.Count
		agg.Count += row.Count
	}

	result := make([]models.ServiceTypeRating, 0, len(order))
	for _, st := range order {
		agg := byType[st]
		sum := 0
		for rating, count := range agg.RatingCounts {
			sum += rating * count
		}
		if agg.Count > 0 {
			agg.Average = float64(sum) / float64(agg.Count)
		}
		result = append(result, *agg)
	}
	return result, nil
}

// RequestIDsWithFeedback возвращает из переданного набора те заявки,
// по которым PIN уже оставил отзыв.
func (r *FeedbackRepository) RequestIDsWithFeedback(ctx context.Context, pinID uuid.UUID, requestIDs []string) (map[string]bool, error) {
	if len(requestIDs) == 0 {
		return map[string]bool{}, nil
	}
	ids := []string{}
	query := `SELECT request_id FROM feedbacks WHERE pin_id = $1 AND request_id = ANY($2)`
	if err := r.db.SelectContext(ctx, &ids, query, pinID, pq.Array(requestIDs)); err != nil {
		return nil, fmt.Errorf("feedback repository: request ids with feedback %w", err)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}
