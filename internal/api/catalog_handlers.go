package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid id",
			Message: "Path parameter must be an integer",
		})
		return 0, false
	}
	return id, true
}

// ListProductTypes returns every menu category
func (h *Handler) ListProductTypes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	types, err := h.listProductTypes(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list product types",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types)
}

// CreateProductType creates a menu category
func (h *Handler) CreateProductType(c *gin.Context) {
	var req models.CreateProductTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	t, err := h.createProductType(ctx, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create product type",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Product type created successfully",
		Data:    t,
	})
}

// DeleteProductType removes a menu category
func (h *Handler) DeleteProductType(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deleteProductType(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete product type",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Product type not found",
			Message: "No product type exists with this id",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Product type deleted successfully"})
}

// ListProducts returns products, optionally filtered by type
func (h *Handler) ListProducts(c *gin.Context) {
	var typeID *int64
	if raw := c.Query("type_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid type_id",
				Message: "type_id must be an integer",
			})
			return
		}
		typeID = &parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	products, err := h.listProducts(ctx, typeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list products",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct creates a sellable product
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.createProduct(ctx, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create product",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Product created successfully",
		Data:    product,
	})
}

// UpdateProduct edits a product in place
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.updateProduct(ctx, id, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update product",
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
	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct removes a product and its links
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deleteProduct(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete product",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Product not found",
			Message: "No product exists with this id",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Product deleted successfully"})
}

// ListModifiers returns every modifier, active or not
func (h *Handler) ListModifiers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	mods, err := h.listModifiers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list modifiers",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, mods)
}

// CreateModifier creates a modifier
func (h *Handler) CreateModifier(c *gin.Context) {
	var req models.CreateModifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	mod, err := h.createModifier(ctx, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create modifier",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Modifier created successfully",
		Data:    mod,
	})
}

// UpdateModifier edits a modifier; deactivation hides it from customers
func (h *Handler) UpdateModifier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateModifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	mod, err := h.updateModifier(ctx, id, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update modifier",
			Message: err.Error(),
		})
		return
	}
	if mod == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Modifier not found",
			Message: "No modifier exists with this id",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Modifier updated successfully",
		Data:    mod,
	})
}

// DeleteModifier removes a modifier and its product links
func (h *Handler) DeleteModifier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deleteModifier(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete modifier",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Modifier not found",
			Message: "No modifier exists with this id",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Modifier deleted successfully"})
}

// LinkModifierToProduct attaches a modifier to a product
func (h *Handler) LinkModifierToProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	modifierID, ok := idParam(c, "modifier_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.getProduct(ctx, productID)
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

	if err := h.linkModifier(ctx, productID, modifierID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to link modifier",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Modifier linked successfully"})
}

// UnlinkModifierFromProduct detaches a modifier from a product
func (h *Handler) UnlinkModifierFromProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	modifierID, ok := idParam(c, "modifier_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	removed, err := h.unlinkModifier(ctx, productID, modifierID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to unlink modifier",
			Message: err.Error(),
		})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Link not found",
			Message: "This modifier is not linked to the product",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Modifier unlinked successfully"})
}

// SetProductAllergens replaces a product's allergen tags
func (h *Handler) SetProductAllergens(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.SetProductAllergensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.getProduct(ctx, id)
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

	if err := h.setProductAllergens(ctx, id, req.Allergens); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to set product allergens",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Product allergens updated successfully"})
}

// Menu returns the customer-facing product listing. Allergens can be
// excluded explicitly (?allergens=milk,nuts) or from the user's saved set
// (?use_user_setting=true).
func (h *Handler) Menu(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var typeID *int64
	if raw := c.Query("type_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid type_id",
				Message: "type_id must be an integer",
			})
			return
		}
		typeID = &parsed
	}

	exclude := []string{}
	if raw := c.Query("allergens"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" {
				exclude = append(exclude, a)
			}
		}
	}
	if c.Query("use_user_setting") == "true" {
		userID, ok := GetUserID(c)
		if !ok {
			unauthorized(c)
			return
		}
		saved, err := h.userAllergens(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Failed to load allergen settings",
				Message: err.Error(),
			})
			return
		}
		exclude = append(exclude, saved...)
	}

	products, err := h.listMenu(ctx, typeID, exclude)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load menu",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, products)
}

// MenuProduct returns one product with its active modifiers
func (h *Handler) MenuProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	product, err := h.getProduct(ctx, id)
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

	mods, err := h.productModifiers(ctx, id, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load modifiers",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductDetail{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		TypeID:    product.TypeID,
		Modifiers: mods,
	})
}

// GetUserAllergens returns the customer's saved allergen set
func (h *Handler) GetUserAllergens(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	allergens, err := h.userAllergens(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load allergen settings",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allergens": allergens})
}

// SetUserAllergens replaces the customer's saved allergen set
func (h *Handler) SetUserAllergens(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.UpdateUserAllergensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.setUserAllergens(ctx, userID, req.Allergens); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to save allergen settings",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Allergen settings saved successfully"})
}
