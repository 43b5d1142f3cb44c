package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestView фиксирует просмотр заявки волонтёром.
// Пара (request_id, cv_id) уникальна: повторный просмотр
// не увеличивает счётчик на заявке.
type RequestView struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	CVID      uuid.UUID `db:"cv_id" json:"cv_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Interest фиксирует интерес волонтёра к заявке.
type Interest struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	CVID      uuid.UUID `db:"cv_id" json:"cv_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Shortlist хранит отобранные CSR-представителем заявки.
type Shortlist struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	CSRRepID  uuid.UUID `db:"csrrep_id" json:"csrrep_id"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}
