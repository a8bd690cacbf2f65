package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JWang2033/DessertPOS/internal/logging"
	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

// Checkout converts the cart into a durable order. The order header and all
// items are written in one transaction; the cart is cleared only after a
// successful commit, so a failed write leaves the cart intact.
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}
	if !req.PaymentMethod.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid payment method",
			Message: "Payment method must be one of: cash, card, wechat",
		})
		return
	}
	if !req.DineOption.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid dine option",
			Message: "Dine option must be one of: take_out, dine_in",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	cart, err := h.cartDetails(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load cart",
			Message: err.Error(),
		})
		return
	}
	if len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Cart is empty",
			Message: "Add items to the cart before checking out",
		})
		return
	}

	order, err := h.createOrder(ctx, userID, req, cart)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Order number collision",
				Message: "Please retry the checkout",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Checkout failed",
			Message: err.Error(),
		})
		return
	}

	// Clearing the cart after commit is best-effort: a leftover cart is
	// recoverable, a lost order is not.
	if err := h.carts.Clear(ctx, userID); err != nil {
		logging.LogKV("error", "failed to clear cart after checkout", map[string]interface{}{
			"user_id":      userID,
			"order_number": order.OrderNumber,
			"error":        err.Error(),
		})
	}

	logging.LogKV("info", "order created", map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total_price":  order.TotalPrice,
		"item_count":   len(order.Items),
	})

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Order created successfully",
		Data:    order,
	})
}

// ListOrders returns the authenticated user's orders, newest first
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.listOrders(ctx, userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list orders",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// GetOrder returns one order with its items. Orders belonging to other
// users are indistinguishable from missing ones.
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	order, err := h.getOrder(ctx, userID, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load order",
			Message: err.Error(),
		})
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Order not found",
			Message: "No order exists with this id",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Order retrieved successfully",
		Data:    order,
	})
}
