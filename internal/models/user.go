package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает учётную запись пользователя платформы.
// Роль хранится строковой меткой из ValidRoles; поля, специфичные
// для роли, опциональны и сгруппированы ниже.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	FullName     string     `db:"fullname" json:"fullname"`
	Email        *string    `db:"email" json:"email,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`

	// Для PIN — адрес, для CV/CSRRep — организация.
	Address *string `db:"address" json:"address,omitempty"`
	Org     *string `db:"org" json:"org,omitempty"`

	// Для CV — данные подбора: локация и навыки
	// (свободный текст через запятую/точку с запятой).
	Location *string `db:"location" json:"location,omitempty"`
	Skills   *string `db:"skills" json:"skills,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RankedCandidate кандидат на заявку с посчитанным баллом подбора.
type RankedCandidate struct {
	User  User `json:"user"`
	Score int  `json:"score"`
}
