package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JWang2033/DessertPOS/internal/cache"
	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

// resolveModifiers validates modifier ids against the catalog: every id must
// exist and be active. Returns snapshot views in input order.
func (h *Handler) resolveModifiers(ctx context.Context, ids []int64) ([]models.CartModifier, error) {
	resolved := make([]models.CartModifier, 0, len(ids))
	for _, id := range ids {
		var m models.CartModifier
		var active bool
		err := h.db.Pool.QueryRow(ctx, `
			SELECT id, name, type, price, is_active FROM modifiers WHERE id = $1
		`, id).Scan(&m.ModifierID, &m.Name, &m.Type, &m.Price, &active)
		if err != nil {
			return nil, fmt.Errorf("modifier %d does not exist", id)
		}
		if !active {
			return nil, fmt.Errorf("modifier %d is not active", id)
		}
		resolved = append(resolved, m)
	}
	return resolved, nil
}

// cartDetails joins every stored cart line against the live catalog. Lines
// whose product has been deleted are pruned from Redis instead of failing
// the read.
func (h *Handler) cartDetails(ctx context.Context, userID int64) (*models.CartResponse, error) {
	ids, err := h.carts.ItemIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &models.CartResponse{Items: []models.CartItemDetail{}}
	for _, itemID := range ids {
		line, err := h.carts.Get(ctx, userID, itemID)
		if errors.Is(err, cache.ErrCartItemNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		product, err := h.getProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			// product removed from the catalog since it was added
			h.carts.Drop(ctx, userID, itemID)
			continue
		}

		mods := []models.CartModifier{}
		for _, modID := range line.Modifiers {
			var m models.CartModifier
			var active bool
			err := h.db.Pool.QueryRow(ctx, `
				SELECT id, name, type, price, is_active FROM modifiers WHERE id = $1
			`, modID).Scan(&m.ModifierID, &m.Name, &m.Type, &m.Price, &active)
			if err != nil || !active {
				continue
			}
			mods = append(mods, m)
		}

		item := models.CartItemDetail{
			ID:           itemID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			Quantity:     line.Quantity,
			Modifiers:    mods,
		}
		item.ItemSubtotal = item.Subtotal()
		resp.Items = append(resp.Items, item)
	}
	resp.TotalPrice = resp.Total()
	return resp, nil
}

// GetCart returns the cart joined against current catalog data
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cart, err := h.cartDetails(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load cart",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Cart retrieved successfully",
		Data:    cart,
	})
}

// AddToCart validates the product and modifiers against the catalog and
// stores a new cart line.
func (h *Handler) AddToCart(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.getProduct(ctx, req.ProductID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load product",
			Message: err.Error(),
		})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Product not found",
			Message: "No product exists with this id",
		})
		return
	}

	if _, err := h.resolveModifiers(ctx, req.Modifiers); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid modifiers",
			Message: err.Error(),
		})
		return
	}

	itemID, err := h.carts.Add(ctx, userID, cache.CartLine{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Modifiers: req.Modifiers,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to add to cart",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Item added to cart",
		Data:    gin.H{"item_id": itemID},
	})
}

// UpdateCartItem changes quantity and/or modifiers of a cart line. Ownership
// is enforced through the per-user index, so another user's item id is a 404.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	itemID := c.Param("item_id")

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	line, err := h.carts.Get(ctx, userID, itemID)
	if errors.Is(err, cache.ErrCartItemNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Cart item not found",
			Message: "No such item in your cart",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load cart item",
			Message: err.Error(),
		})
		return
	}

	if req.Quantity != nil {
		line.Quantity = *req.Quantity
	}
	if req.Modifiers != nil {
		if _, err := h.resolveModifiers(ctx, *req.Modifiers); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid modifiers",
				Message: err.Error(),
			})
			return
		}
		line.Modifiers = *req.Modifiers
	}

	if err := h.carts.Set(ctx, userID, itemID, *line); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update cart item",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Cart item updated"})
}

// RemoveCartItem deletes one cart line
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	itemID := c.Param("item_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	err := h.carts.Remove(ctx, userID, itemID)
	if errors.Is(err, cache.ErrCartItemNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Cart item not found",
			Message: "No such item in your cart",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to remove cart item",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Cart item removed"})
}

// ClearCart empties the cart. Clearing an already-empty cart succeeds.
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.carts.Clear(ctx, userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to clear cart",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Cart cleared"})
}
