package models

import (
	"time"

	"github.com/google/uuid"
)

// Request описывает заявку на помощь от PIN.
// Идентификатор — токен фиксированной ширины вида "r001",
// выдаваемый из последовательности в базе.
type Request struct {
	ID             string     `db:"request_id" json:"request_id"`
	RequestedByID  uuid.UUID  `db:"requested_by_id" json:"requested_by_id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	ServiceType    string     `db:"service_type" json:"service_type"`
	Location       string     `db:"location" json:"location"`
	Urgency        string     `db:"urgency" json:"urgency"`
	SkillsRequired *string    `db:"skills_required" json:"skills_required,omitempty"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        time.Time  `db:"end_date" json:"end_date"`
	Status         string     `db:"status" json:"status"`
	CompletedDate  *time.Time `db:"completed_date" json:"completed_date,omitempty"`
	CancelledAt    *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	AssignedToID   *uuid.UUID `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	AssignedByID   *uuid.UUID `db:"assigned_by_id" json:"assigned_by_id,omitempty"`
	CategoryID     *int64     `db:"category_id" json:"category_id,omitempty"`
	ViewCount      int        `db:"view_count" json:"view_count"`
	ShortlistCount int        `db:"shortlist_count" json:"shortlist_count"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// PINName заполняется при выдаче списков, в базе не хранится.
	PINName string `db:"-" json:"pin_name,omitempty"`
}

// Match фиксирует подтверждённый подбор исполнителя на заявку.
// Запись неизменяемая: создаётся один раз вместе с переводом заявки в active.
type Match struct {
	ID           uuid.UUID  `db:"match_id" json:"match_id"`
	RequestID    string     `db:"request_id" json:"request_id"`
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	AssignedByID *uuid.UUID `db:"assigned_by_id" json:"assigned_by_id,omitempty"`
	Status       string     `db:"status" json:"status"`
	AssignedAt   time.Time  `db:"assigned_at" json:"assigned_at"`
}
