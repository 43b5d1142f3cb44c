// Package authz содержит единый предикат авторизации.
// Все проверки "кто может выполнить действие над заявкой" сведены сюда,
// чтобы правила не расползались по обработчикам и сервисам.
package authz

import (
	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/models"
)

// Action действие над заявкой или смежным ресурсом.
type Action string

const (
	ActionViewRequest     Action = "request:view"
	ActionCreateRequest   Action = "request:create"
	ActionUpdateRequest   Action = "request:update"
	ActionAcceptRequest   Action = "request:accept"
	ActionRejectRequest   Action = "request:reject"
	ActionCompleteRequest Action = "request:complete"
	ActionCancelRequest   Action = "request:cancel"
	ActionAssignRequest   Action = "request:assign"
	ActionLeaveFeedback   Action = "feedback:create"
	ActionManageCategory  Action = "category:manage"
	ActionSweepOverdue    Action = "request:sweep"
)

// Actor субъект, выполняющий действие.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// Can решает, разрешено ли actor выполнить action над заявкой r.
// Для действий без привязки к заявке (создание, управление категориями,
// sweep) передаётся r == nil.
func Can(actor Actor, action Action, r *models.Request) bool {
	switch action {
	case ActionViewRequest:
		return true

	case ActionCreateRequest:
		return actor.Role == models.RolePIN

	case ActionUpdateRequest, ActionCancelRequest:
		// Заявкой распоряжается только её автор.
		return r != nil && actor.Role == models.RolePIN && r.RequestedByID == actor.ID

	case ActionAcceptRequest, ActionRejectRequest:
		// Волонтёр берёт заявку сам, представитель CSR — от имени волонтёра.
		return actor.Role == models.RoleCV || actor.Role == models.RoleCSRRep

	case ActionCompleteRequest:
		return r != nil && actor.Role == models.RoleCV &&
			r.AssignedToID != nil && *r.AssignedToID == actor.ID

	case ActionAssignRequest:
		return actor.Role == models.RoleCSRRep || actor.Role == models.RoleAdmin

	case ActionLeaveFeedback:
		return r != nil && actor.Role == models.RolePIN && r.RequestedByID == actor.ID

	case ActionManageCategory, ActionSweepOverdue:
		return actor.Role == models.RoleAdmin || actor.Role == models.RolePM
	}

	return false
}
