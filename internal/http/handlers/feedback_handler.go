package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/http/handlers/common"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
	"github.com/sdmteam/cvconnect-backend/internal/service"
)

type FeedbackHandler struct {
	feedback *service.FeedbackService
}

func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// SubmitFeedback POST /requests/:id/feedback
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Rating  int     `json:"rating" binding:"required,min=1,max=5"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "оценка должна быть от 1 до 5")
		return
	}

	fb, err := h.feedback.SubmitFeedback(c.Request.Context(), userID, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, fb)
}

// BulkSubmitFeedback POST /feedback/bulk
func (h *FeedbackHandler) BulkSubmitFeedback(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Items []service.BulkFeedbackItem `json:"items" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.feedback.BulkSubmitFeedback(c.Request.Context(), userID, req.Items)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// EligibleRequests GET /feedback/eligible
func (h *FeedbackHandler) EligibleRequests(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	eligible, err := h.feedback.EligibleRequests(c.Request.Context(), userID, c.Query("service_type"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": eligible, "total": len(eligible)})
}

// CanLeaveFeedback GET /requests/:id/can-feedback
func (h *FeedbackHandler) CanLeaveFeedback(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	ok, err := h.feedback.CanLeaveFeedback(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"can_leave": ok})
}

// UserRating GET /users/:id/rating
func (h *FeedbackHandler) UserRating(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "неверный user_id")
		return
	}

	avg, total, err := h.feedback.AverageRating(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"average_rating": avg,
		"total_reviews":  total,
	})
}

// UserStats GET /users/:id/feedback-stats
func (h *FeedbackHandler) UserStats(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondBadRequest(c, "неверный user_id")
		return
	}

	stats, err := h.feedback.Stats(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// History GET /feedback/history
func (h *FeedbackHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	filter := repository.FeedbackFilter{
		PINID:       &userID,
		ServiceType: c.Query("service_type"),
		MinRating:   common.ParseIntQuery(c, "min_rating", 0),
		MaxRating:   common.ParseIntQuery(c, "max_rating", 0),
		Limit:       limit,
		Offset:      offset,
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}

	feedbacks, err := h.feedback.History(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedbacks": feedbacks, "total": len(feedbacks)})
}

// CommunityRatings GET /feedback/community
func (h *FeedbackHandler) CommunityRatings(c *gin.Context) {
	ratings, err := h.feedback.CommunityRatings(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}
