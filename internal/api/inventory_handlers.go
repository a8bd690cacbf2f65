package api

import (
	"context"
	"net/http"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

// ListUnits returns every unit of measurement
func (h *Handler) ListUnits(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	units, err := h.listUnits(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list units",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, units)
}

// CreateUnits accepts a single unit or a list of units. Duplicates are
// reported per item under "skipped" while the rest are created.
func (h *Handler) CreateUnits(c *gin.Context) {
	var batch models.UnitBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: "At least one unit is required",
		})
		return
	}
	for _, req := range batch {
		if req.Name == "" || req.Abbreviation == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request",
				Message: "Every unit needs a name and an abbreviation",
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	created, skipped, err := h.createUnits(ctx, batch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create units",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Units processed",
		Data:    gin.H{"created": created, "skipped": skipped},
	})
}

// DeleteUnit removes a unit by name. Units still referenced by ingredients
// or stock records cannot be removed.
func (h *Handler) DeleteUnit(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deleteUnitByName(ctx, c.Param("name"))
	if err != nil {
		if isForeignKeyViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Unit in use",
				Message: "This unit is still referenced by ingredients or stock records",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete unit",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Unit not found",
			Message: "No unit exists with this name",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Unit deleted successfully"})
}

// ListAllergens returns every allergen
func (h *Handler) ListAllergens(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	allergens, err := h.listAllergens(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list allergens",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, allergens)
}

// CreateAllergen creates an allergen
func (h *Handler) CreateAllergen(c *gin.Context) {
	var req models.CreateAllergenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	allergen, err := h.createAllergen(ctx, req.Name)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Duplicate allergen",
				Message: "An allergen with this name already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create allergen",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Allergen created successfully",
		Data:    allergen,
	})
}

// ListCategories returns categories with their allowed units
func (h *Handler) ListCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	categories, err := h.listCategoriesWithUnits(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list categories",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCategory creates or updates a category by name and replaces its
// allowed units. Unit names must all exist.
func (h *Handler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	cat, err := h.upsertCategory(ctx, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Failed to save category",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Category saved successfully",
		Data:    cat,
	})
}

// DeleteCategory removes a category and its unit links by name. Categories
// with ingredients cannot be removed.
func (h *Handler) DeleteCategory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deleteCategoryByName(ctx, c.Param("name"))
	if err != nil {
		if isForeignKeyViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Category in use",
				Message: "This category still has ingredients",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete category",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Category not found",
			Message: "No category exists with this name",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Category deleted successfully"})
}

// ListIngredients returns every ingredient
func (h *Handler) ListIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ingredients, err := h.listIngredients(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list ingredients",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// GetIngredient returns one ingredient by name with its allergens
func (h *Handler) GetIngredient(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ing, err := h.getIngredientByName(ctx, c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load ingredient",
			Message: err.Error(),
		})
		return
	}
	if ing == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Ingredient not found",
			Message: "No ingredient exists with this name",
		})
		return
	}

	allergens, err := h.ingredientAllergens(ctx, ing.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load ingredient allergens",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.IngredientDetail{Ingredient: *ing, Allergens: allergens})
}

// DeleteIngredient removes an ingredient by name. Ingredients referenced by
// stock, purchase orders, or prepped item recipes cannot be removed.
func (h *Handler) DeleteIngredient(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	deleted, err := h.deleteIngredientByName(ctx, c.Param("name"))
	if err != nil {
		if isForeignKeyViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Ingredient in use",
				Message: "This ingredient is still referenced by stock, purchase orders, or prepped items",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to delete ingredient",
			Message: err.Error(),
		})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Ingredient not found",
			Message: "No ingredient exists with this name",
		})
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Ingredient deleted successfully"})
}

// CreateIngredients accepts a single ingredient or a list. Unknown
// categories/units and duplicate names are reported per item under
// "skipped".
func (h *Handler) CreateIngredients(c *gin.Context) {
	var batch models.IngredientBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: "At least one ingredient is required",
		})
		return
	}
	for _, req := range batch {
		if req.Name == "" || req.CategoryName == "" || req.UnitName == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request",
				Message: "Every ingredient needs a name, category_name, and unit_name",
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	created, skipped, err := h.createIngredients(ctx, batch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create ingredients",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Ingredients processed",
		Data:    gin.H{"created": created, "skipped": skipped},
	})
}

// UpdateIngredient patches brand, threshold, and allergen links
func (h *Handler) UpdateIngredient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	ing, err := h.updateIngredient(ctx, id, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update ingredient",
			Message: err.Error(),
		})
		return
	}
	if ing == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Ingredient not found",
			Message: "No ingredient exists with this id",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Ingredient updated successfully",
		Data:    ing,
	})
}

// CreateInventory records stock of an ingredient at a location. The restock
// flag is derived from the ingredient's threshold at write time.
func (h *Handler) CreateInventory(c *gin.Context) {
	var req models.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rec, err := h.createInventory(ctx, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Failed to create inventory record",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Inventory record created successfully",
		Data:    rec,
	})
}

// UpdateInventory sets the actual quantity of an inventory record and
// recomputes the restock flag synchronously.
func (h *Handler) UpdateInventory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rec, err := h.updateInventoryQty(ctx, id, req.ActualQty)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update inventory record",
			Message: err.Error(),
		})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Inventory record not found",
			Message: "No inventory record exists with this id",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Inventory record updated successfully",
		Data:    rec,
	})
}

// ListInventory returns denormalized stock rows. Supports ?sort_by=
// actual_qty|standard_qty|update_time and ?group_by=location|restock_needed.
func (h *Handler) ListInventory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	entries, err := h.listInventory(ctx, c.Query("sort_by"), c.Query("group_by"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Failed to list inventory",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, entries)
}
