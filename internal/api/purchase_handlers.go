package api

import (
	"context"
	"net/http"
	"time"

	"github.com/JWang2033/DessertPOS/internal/logging"
	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

// CreatePurchaseOrder validates and records a receiving document. The PO
// code is generated per order date: PO-YYYYMMDD-NNNN.
func (h *Handler) CreatePurchaseOrder(c *gin.Context) {
	var req models.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	detail, err := h.createPurchaseOrder(ctx, req)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Purchase order code collision",
				Message: "Please retry the request",
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Failed to create purchase order",
			Message: err.Error(),
		})
		return
	}

	logging.LogKV("info", "purchase order created", map[string]interface{}{
		"po_code":    detail.POCode,
		"item_count": len(detail.Items),
	})

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Purchase order created successfully",
		Data:    detail,
	})
}

// ListPurchaseOrders returns summaries, optionally bounded by
// ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) ListPurchaseOrders(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid from date",
				Message: "from must be YYYY-MM-DD",
			})
			return
		}
		from = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid to date",
				Message: "to must be YYYY-MM-DD",
			})
			return
		}
		to = &parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	summaries, err := h.listPurchaseOrders(ctx, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list purchase orders",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetPurchaseOrder returns one purchase order by code with its items
func (h *Handler) GetPurchaseOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	detail, err := h.getPurchaseOrderByCode(ctx, c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load purchase order",
			Message: err.Error(),
		})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Purchase order not found",
			Message: "No purchase order exists with this code",
		})
		return
	}
	c.JSON(http.StatusOK, detail)
}
