package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/http/handlers/common"
	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/service"
)

type MatchingHandler struct {
	matching *service.MatchingService
}

func NewMatchingHandler(matching *service.MatchingService) *MatchingHandler {
	return &MatchingHandler{matching: matching}
}

// OpenRequests GET /matching/open
func (h *MatchingHandler) OpenRequests(c *gin.Context) {
	requests, err := h.matching.OpenRequests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

// UnassignedRequests GET /matching/unassigned
func (h *MatchingHandler) UnassignedRequests(c *gin.Context) {
	requests, err := h.matching.UnassignedRequests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "total": len(requests)})
}

// RankCandidates GET /matching/requests/:id/candidates
// С параметром matched=true выдаются только кандидаты с ненулевым баллом.
func (h *MatchingHandler) RankCandidates(c *gin.Context) {
	var (
		ranked []models.RankedCandidate
		err    error
	)
	if c.Query("matched") == "true" {
		ranked, err = h.matching.FindCandidates(c.Request.Context(), c.Param("id"))
	} else {
		ranked, err = h.matching.RankCandidates(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": ranked, "total": len(ranked)})
}

// Assign POST /matching/requests/:id/assign
func (h *MatchingHandler) Assign(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		CVID uuid.UUID `json:"cv_id" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	matched, err := h.matching.Assign(c.Request.Context(), c.Param("id"), req.CVID, actor.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !matched {
		common.RespondConflict(c, "назначение невозможно: заявка не в ожидании или волонтёр недоступен")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MatchHistory GET /matching/requests/:id/history
func (h *MatchingHandler) MatchHistory(c *gin.Context) {
	matches, err := h.matching.MatchHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches, "total": len(matches)})
}
