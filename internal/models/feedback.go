package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback описывает отзыв PIN о выполненной заявке.
// На пару (request_id, pin_id) допускается не более одной записи —
// ограничение продублировано уникальным индексом в базе.
type Feedback struct {
	ID            uuid.UUID `db:"feedback_id" json:"feedback_id"`
	RequestID     string    `db:"request_id" json:"request_id"`
	PINID         uuid.UUID `db:"pin_id" json:"pin_id"`
	RatedUserID   uuid.UUID `db:"rated_user_id" json:"rated_user_id"`
	RatedUserRole string    `db:"rated_user_role" json:"rated_user_role"`
	Rating        int       `db:"rating" json:"rating"`
	Comment       *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// Детали заявки для истории отзывов, в таблице feedbacks не хранятся.
	RequestTitle string `db:"-" json:"request_title,omitempty"`
	ServiceType  string `db:"-" json:"service_type,omitempty"`
}

// FeedbackStats агрегированная статистика отзывов.
type FeedbackStats struct {
	Total        int         `json:"total"`
	Average      float64     `json:"average"`
	RatingCounts map[int]int `json:"rating_counts"`
}

// ServiceTypeRating средние оценки по типу услуги для общей витрины.
type ServiceTypeRating struct {
	ServiceType  string      `json:"service_type"`
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	RatingCounts map[int]int `json:"rating_counts"`
}
