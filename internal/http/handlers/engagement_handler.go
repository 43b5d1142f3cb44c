package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdmteam/cvconnect-backend/internal/http/handlers/common"
	"github.com/sdmteam/cvconnect-backend/internal/service"
)

type EngagementHandler struct {
	engagement *service.EngagementService
}

func NewEngagementHandler(engagement *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagement: engagement}
}

// RecordView POST /requests/:id/view
func (h *EngagementHandler) RecordView(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	ok, err := h.engagement.RecordView(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondNotFound(c, "заявка не найдена")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AddInterest POST /requests/:id/interest
func (h *EngagementHandler) AddInterest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	added, err := h.engagement.AddInterest(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// ListInterested GET /requests/:id/interested
func (h *EngagementHandler) ListInterested(c *gin.Context) {
	users, err := h.engagement.ListInterested(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

// AddShortlist POST /shortlist/:id
func (h *EngagementHandler) AddShortlist(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	added, err := h.engagement.AddShortlist(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// RemoveShortlist DELETE /shortlist/:id
func (h *EngagementHandler) RemoveShortlist(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	removed, err := h.engagement.RemoveShortlist(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !removed {
		common.RespondNotFound(c, "заявки нет в шортлисте")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListShortlisted GET /shortlist
func (h *EngagementHandler) ListShortlisted(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requests, err := h.engagement.ListShortlisted(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}
