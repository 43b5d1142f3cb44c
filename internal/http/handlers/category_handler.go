package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sdmteam/cvconnect-backend/internal/http/handlers/common"
	"github.com/sdmteam/cvconnect-backend/internal/pkg/apperror"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
	"github.com/sdmteam/cvconnect-backend/internal/service"
)

type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func parseCategoryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondBadRequest(c, "неверный id категории")
		return 0, false
	}
	return id, true
}

// ListCategories GET /categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory GET /categories/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	category, err := h.categories.GetCategory(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			_ = c.Error(apperror.ErrCategoryNotFound)
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// CreateCategory POST /categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	category, ok, msg, err := h.categories.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondConflict(c, msg)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// UpdateCategory PUT /categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, okID := parseCategoryID(c)
	if !okID {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	ok, msg, err := h.categories.UpdateCategory(c.Request.Context(), id, req.Name, req.Description, isActive)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondConflict(c, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteCategory DELETE /categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, okID := parseCategoryID(c)
	if !okID {
		return
	}

	ok, msg, err := h.categories.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondConflict(c, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListWithCounts GET /categories/counts
func (h *CategoryHandler) ListWithCounts(c *gin.Context) {
	counts, err := h.categories.ListWithCounts(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// StatusBreakdown GET /categories/:id/breakdown
func (h *CategoryHandler) StatusBreakdown(c *gin.Context) {
	id, ok := parseCategoryID(c)
	if !ok {
		return
	}

	breakdown, err := h.categories.StatusBreakdown(c.Request.Context(), id)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			_ = c.Error(apperror.ErrCategoryNotFound)
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// ReassignRequest POST /categories/reassign
func (h *CategoryHandler) ReassignRequest(c *gin.Context) {
	var req struct {
		RequestID  string `json:"request_id" binding:"required"`
		CategoryID *int64 `json:"category_id"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ok, msg, err := h.categories.ReassignRequest(c.Request.Context(), req.RequestID, req.CategoryID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondConflict(c, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BulkReassign POST /categories/reassign/bulk
func (h *CategoryHandler) BulkReassign(c *gin.Context) {
	var req struct {
		RequestIDs []string `json:"request_ids" binding:"required"`
		CategoryID *int64   `json:"category_id"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ok, msg, err := h.categories.BulkReassign(c.Request.Context(), req.RequestIDs, req.CategoryID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ok {
		common.RespondConflict(c, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
