package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/http/handlers/common"
	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/service"
)

type RequestHandler struct {
	requests *service.RequestService
}

func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

type requestBody struct {
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description" binding:"required"`
	ServiceType    string    `json:"service_type" binding:"required"`
	Location       string    `json:"location" binding:"required"`
	Urgency        string    `json:"urgency" binding:"required"`
	SkillsRequired *string   `json:"skills_required"`
	StartDate      time.Time `json:"start_date" binding:"required"`
	EndDate        time.Time `json:"end_date" binding:"required"`
	CategoryID     *int64    `json:"category_id"`
}

func (b requestBody) toInput() service.RequestInput {
	return service.RequestInput{
		Title:          b.Title,
		Description:    b.Description,
		ServiceType:    b.ServiceType,
		Location:       b.Location,
		Urgency:        b.Urgency,
		SkillsRequired: b.SkillsRequired,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		CategoryID:     b.CategoryID,
	}
}

// CreateRequest POST /requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req requestBody
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	created, err := h.requests.CreateRequest(c.Request.Context(), actor, req.toInput())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetRequest GET /requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requests.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// ListRequests GET /requests
func (h *RequestHandler) ListRequests(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	filter := service.RequestListFilter{
		Status:        c.Query("status"),
		ServiceType:   c.Query("service_type"),
		Location:      c.Query("location"),
		Search:        c.Query("q"),
		Uncategorized: c.Query("uncategorized") == "true",
		Limit:         limit,
		Offset:        offset,
	}

	if raw := c.Query("category_id"); raw != "" {
		id := int64(common.ParseIntQuery(c, "category_id", 0))
		filter.CategoryID = &id
	}
	if raw := c.Query("requested_by"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "неверный requested_by")
			return
		}
		filter.RequestedByID = &id
	}
	if raw := c.Query("assigned_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "неверный assigned_to")
			return
		}
		filter.AssignedToID = &id
	}

	requests, err := h.requests.ListRequests(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

// MyRequests GET /requests/my
func (h *RequestHandler) MyRequests(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	filter := service.RequestListFilter{Status: c.Query("status")}
	if actor.Role == models.RoleCV {
		filter.AssignedToID = &actor.ID
	} else {
		filter.RequestedByID = &actor.ID
	}

	requests, err := h.requests.ListRequests(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

// UpdateRequest PUT /requests/:id
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req requestBody
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.requests.UpdateRequest(c.Request.Context(), actor, c.Param("id"), req.toInput())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// transition выполняет смену статуса и переводит бизнес-отказ в 409.
func (h *RequestHandler) transition(c *gin.Context, fn func() (bool, error), refusal string) {
	ok, err := fn()
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondConflict(c, refusal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AcceptRequest POST /requests/:id/accept
func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	h.transition(c, func() (bool, error) {
		return h.requests.Accept(c.Request.Context(), actor, c.Param("id"))
	}, "заявку нельзя принять: она не в ожидании или срок истёк")
}

// RejectRequest POST /requests/:id/reject
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	h.transition(c, func() (bool, error) {
		return h.requests.Reject(c.Request.Context(), actor, c.Param("id"))
	}, "заявку нельзя отклонить: она не в ожидании")
}

// CompleteRequest POST /requests/:id/complete
func (h *RequestHandler) CompleteRequest(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	h.transition(c, func() (bool, error) {
		return h.requests.Complete(c.Request.Context(), actor, c.Param("id"))
	}, "заявку нельзя завершить: она не в работе")
}

// CancelRequest POST /requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	h.transition(c, func() (bool, error) {
		return h.requests.Cancel(c.Request.Context(), actor, c.Param("id"))
	}, "заявку нельзя отменить: она уже закрыта")
}

// SweepOverdue POST /admin/requests/sweep
func (h *RequestHandler) SweepOverdue(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	result, err := h.requests.SweepOverdue(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
