package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

// validatePreppedRecipe checks the numeric fields a binding tag cannot: prep
// time and every recipe quantity must be positive. Returns a user-facing
// message or "" when valid.
func validatePreppedRecipe(prepTimeHours *float64, lines []models.PreppedItemIngredientRequest) string {
	if prepTimeHours != nil && *prepTimeHours <= 0 {
		return "prep_time_hours must be positive"
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return "quantity must be positive for " + line.IngredientName
		}
	}
	return ""
}

// CreatePreppedItem creates a prepped item with its recipe. Every recipe
// line is validated against the catalog before anything is written.
func (h *Handler) CreatePreppedItem(c *gin.Context) {
	var req models.CreatePreppedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}
	if msg := validatePreppedRecipe(&req.PrepTimeHours, req.Ingredients); msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: msg,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	detail, err := h.createPreppedItem(ctx, req)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Duplicate prepped item",
				Message: "A prepped item with this name already exists",
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Failed to create prepped item",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Prepped item created successfully",
		Data:    detail,
	})
}

// ListPreppedItems returns summaries. Supports ?name= substring filtering
// and ?skip=/?limit= pagination.
func (h *Handler) ListPreppedItems(c *gin.Context) {
	skip := 0
	if raw := c.Query("skip"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			skip = parsed
		}
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	summaries, err := h.listPreppedItems(ctx, c.Query("name"), skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list prepped items",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetPreppedItem returns one prepped item by name with its recipe
func (h *Handler) GetPreppedItem(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	detail, err := h.getPreppedItemByName(ctx, c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load prepped item",
			Message: err.Error(),
		})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Prepped item not found",
			Message: "No prepped item exists with this name",
		})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdatePreppedItem patches prep time and/or replaces the recipe by name
func (h *Handler) UpdatePreppedItem(c *gin.Context) {
	var req models.UpdatePreppedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}
	lines := []models.PreppedItemIngredientRequest{}
	if req.Ingredients != nil {
		if len(*req.Ingredients) == 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request",
				Message: "A replacement recipe needs at least one ingredient",
			})
			return
		}
		lines = *req.Ingredients
	}
	if msg := validatePreppedRecipe(req.PrepTimeHours, lines); msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: msg,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	detail, err := h.updatePreppedItem(ctx, c.Param("name"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Failed to update prepped item",
			Message: err.Error(),
		})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Prepped item not found",
			Message: "No prepped item exists with this name",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Prepped item updated successfully",
		Data:    detail,
	})
}

// DeletePreppedItem removes a prepped item and its recipe by name
func (h *Handler) DeletePreppedItem(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deletePreppedItemByName(ctx, c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete prepped item",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Prepped item not found",
			Message: "No prepped item exists with this name",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Prepped item deleted successfully"})
}
