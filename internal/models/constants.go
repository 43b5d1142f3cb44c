package models

// RequestStatus константы статусов заявок на помощь
const (
	RequestStatusPending   = "pending"
	RequestStatusActive    = "active"
	RequestStatusLate      = "late"
	RequestStatusCompleted = "completed"
	RequestStatusExpired   = "expired"
	RequestStatusCancelled = "cancelled"
)

// Urgency константы срочности заявки
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Role константы ролей пользователей платформы
const (
	RolePIN    = "pin"
	RoleCV     = "cv"
	RoleCSRRep = "csrrep"
	RoleAdmin  = "admin"
	RolePM     = "pm"
)

// MatchStatus константы статусов подбора
const (
	MatchStatusConfirmed = "confirmed"
)

// RatedRole роли получателей отзыва
const (
	RatedRoleCSRRep = "csrrep"
	RatedRoleCV     = "cv"
)

// ValidRequestStatuses список валидных статусов заявок
var ValidRequestStatuses = map[string]bool{
	RequestStatusPending:   true,
	RequestStatusActive:    true,
	RequestStatusLate:      true,
	RequestStatusCompleted: true,
	RequestStatusExpired:   true,
	RequestStatusCancelled: true,
}

// ValidUrgencies список валидных значений срочности
var ValidUrgencies = map[string]bool{
	UrgencyLow:    true,
	UrgencyMedium: true,
	UrgencyHigh:   true,
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]bool{
	RolePIN:    true,
	RoleCV:     true,
	RoleCSRRep: true,
	RoleAdmin:  true,
	RolePM:     true,
}

// ActiveLinkStatuses статусы, при которых заявка считается "живой".
// Категорию с такими связями удалять нельзя.
var ActiveLinkStatuses = []string{
	RequestStatusPending,
	RequestStatusActive,
	RequestStatusLate,
}
