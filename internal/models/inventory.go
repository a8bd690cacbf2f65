package models

import (
	"encoding/json"
	"time"
)

// Unit is a unit of measurement (kg, g, L, ...)
type Unit struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Abbreviation string `json:"abbreviation" db:"abbreviation"`
}

// Allergen is a common allergen (milk, nuts, gluten, ...)
type Allergen struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Category groups ingredients and restricts which units they may use
type Category struct {
	ID   int64   `json:"id" db:"id"`
	Name string  `json:"name" db:"name"`
	Tag  *string `json:"tag,omitempty" db:"tag"`
}

// CategoryWithUnits is the category listing entry with its allowed units
type CategoryWithUnits struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Tag   *string `json:"tag,omitempty"`
	Units []Unit  `json:"units"`
}

// Ingredient is a raw ingredient tracked in inventory. Threshold is the low
// stock level below which restocking is flagged.
type Ingredient struct {
	ID         int64    `json:"id" db:"id"`
	Name       string   `json:"name" db:"name"`
	CategoryID int64    `json:"category_id" db:"category_id"`
	UnitID     int64    `json:"unit_id" db:"unit_id"`
	Brand      *string  `json:"brand,omitempty" db:"brand"`
	Threshold  *float64 `json:"threshold,omitempty" db:"threshold"`
}

// IngredientDetail is an ingredient with its linked allergens
type IngredientDetail struct {
	Ingredient
	Allergens []Allergen `json:"allergens"`
}

// InventoryRecord tracks actual vs standard quantity per ingredient+location
type InventoryRecord struct {
	ID            int64     `json:"id" db:"id"`
	IngredientID  int64     `json:"ingredient_id" db:"ingredient_id"`
	UnitID        int64     `json:"unit_id" db:"unit_id"`
	StandardQty   *float64  `json:"standard_qty,omitempty" db:"standard_qty"`
	ActualQty     *float64  `json:"actual_qty,omitempty" db:"actual_qty"`
	Location      string    `json:"location" db:"location"`
	UpdateTime    time.Time `json:"update_time" db:"update_time"`
	RestockNeeded bool      `json:"restock_needed" db:"restock_needed"`
}

// InventoryListEntry is the denormalized inventory listing row
type InventoryListEntry struct {
	InventoryID      int64     `json:"inventory_id"`
	IngredientID     int64     `json:"ingredient_id"`
	IngredientName   string    `json:"ingredient_name"`
	CategoryName     string    `json:"category_name"`
	Brand            *string   `json:"brand,omitempty"`
	StandardQty      *float64  `json:"standard_qty,omitempty"`
	ActualQty        *float64  `json:"actual_qty,omitempty"`
	UnitAbbreviation string    `json:"unit_abbreviation"`
	Location         string    `json:"location"`
	UpdateTime       time.Time `json:"update_time"`
	RestockNeeded    bool      `json:"restock_needed"`
}

// RestockNeeded derives the restock flag from an actual quantity and an
// optional threshold. With no threshold the flag is always false.
func RestockNeeded(actualQty *float64, threshold *float64) bool {
	if threshold == nil || actualQty == nil {
		return false
	}
	return *actualQty < *threshold
}

// CreateUnitRequest creates a unit of measurement
type CreateUnitRequest struct {
	Name         string `json:"name" binding:"required,max=50"`
	Abbreviation string `json:"abbreviation" binding:"required,max=20"`
}

// CreateAllergenRequest creates an allergen
type CreateAllergenRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateCategoryRequest creates or updates a category by name. Units are
// referenced by name and replace any existing links.
type CreateCategoryRequest struct {
	Name      string   `json:"name" binding:"required,max=50"`
	Tag       *string  `json:"tag,omitempty"`
	UnitNames []string `json:"unit_names" binding:"required,min=1"`
}

// CreateIngredientRequest creates an ingredient. Category and unit are
// referenced by name; allergens by id.
type CreateIngredientRequest struct {
	Name         string   `json:"name" binding:"required,max=100"`
	CategoryName string   `json:"category_name" binding:"required"`
	UnitName     string   `json:"unit_name" binding:"required"`
	Brand        *string  `json:"brand,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
	AllergenIDs  []int64  `json:"allergen_ids"`
}

// UpdateIngredientRequest updates an ingredient; nil fields are unchanged
type UpdateIngredientRequest struct {
	Brand       *string  `json:"brand,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	AllergenIDs *[]int64 `json:"allergen_ids,omitempty"`
}

// CreateInventoryRequest creates an inventory record
type CreateInventoryRequest struct {
	IngredientName string   `json:"ingredient_name" binding:"required"`
	UnitName       string   `json:"unit_name" binding:"required"`
	StandardQty    *float64 `json:"standard_qty,omitempty"`
	ActualQty      *float64 `json:"actual_qty,omitempty"`
	Location       string   `json:"location" binding:"required,max=100"`
}

// UpdateInventoryRequest updates the actual quantity of an inventory record
type UpdateInventoryRequest struct {
	ActualQty float64 `json:"actual_qty"`
}

// BatchSkipped reports one input skipped during a batch create
type BatchSkipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UnitBatch accepts either a single unit object or a list of them. The shape
// is resolved once at deserialization.
type UnitBatch []CreateUnitRequest

// UnmarshalJSON implements the single-or-list boundary contract
func (b *UnitBatch) UnmarshalJSON(data []byte) error {
	var many []CreateUnitRequest
	if err := json.Unmarshal(data, &many); err == nil {
		*b = many
		return nil
	}
	var one CreateUnitRequest
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*b = UnitBatch{one}
	return nil
}

// IngredientBatch accepts either a single ingredient object or a list
type IngredientBatch []CreateIngredientRequest

// UnmarshalJSON implements the single-or-list boundary contract
func (b *IngredientBatch) UnmarshalJSON(data []byte) error {
	var many []CreateIngredientRequest
	if err := json.Unmarshal(data, &many); err == nil {
		*b = many
		return nil
	}
	var one CreateIngredientRequest
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*b = IngredientBatch{one}
	return nil
}

// PreppedItem is a semi-finished product made in-house from raw ingredients
// (custard base, dough, syrups). PrepTimeHours is how long a batch takes.
type PreppedItem struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	PrepTimeHours float64 `json:"prep_time_hours" db:"prep_time_hours"`
}

// PreppedItemIngredient is one recipe line of a prepped item
type PreppedItemIngredient struct {
	ID               int64   `json:"id"`
	IngredientID     int64   `json:"ingredient_id"`
	IngredientName   string  `json:"ingredient_name"`
	UnitID           int64   `json:"unit_id"`
	UnitAbbreviation string  `json:"unit_abbreviation"`
	Quantity         float64 `json:"quantity"`
}

// PreppedItemSummary is the listing view with a recipe line count
type PreppedItemSummary struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	PrepTimeHours   float64 `json:"prep_time_hours"`
	IngredientCount int     `json:"ingredient_count"`
}

// PreppedItemDetail is a prepped item with its full recipe
type PreppedItemDetail struct {
	ID            int64                   `json:"id"`
	Name          string                  `json:"name"`
	PrepTimeHours float64                 `json:"prep_time_hours"`
	Ingredients   []PreppedItemIngredient `json:"ingredients"`
}

// PreppedItemIngredientRequest is one recipe line; ingredient and unit are
// referenced by name.
type PreppedItemIngredientRequest struct {
	IngredientName string  `json:"ingredient_name" binding:"required"`
	UnitName       string  `json:"unit_name" binding:"required"`
	Quantity       float64 `json:"quantity" binding:"required"`
}

// CreatePreppedItemRequest creates a prepped item with its recipe
type CreatePreppedItemRequest struct {
	Name          string                         `json:"name" binding:"required,max=100"`
	PrepTimeHours float64                        `json:"prep_time_hours" binding:"required"`
	Ingredients   []PreppedItemIngredientRequest `json:"ingredients" binding:"required,min=1"`
}

// UpdatePreppedItemRequest updates a prepped item; nil fields are unchanged.
// A non-nil ingredient list replaces the whole recipe.
type UpdatePreppedItemRequest struct {
	PrepTimeHours *float64                        `json:"prep_time_hours,omitempty"`
	Ingredients   *[]PreppedItemIngredientRequest `json:"ingredients,omitempty"`
}

// PurchaseOrder is a receiving record
type PurchaseOrder struct {
	ID        int64   `json:"id" db:"id"`
	POCode    string  `json:"po_code" db:"po_code"`
	OrderDate string  `json:"order_date" db:"order_date"`
	StoreID   *string `json:"store_id,omitempty" db:"store_id"`
}

// PurchaseOrderItem is one received line
type PurchaseOrderItem struct {
	ID               int64   `json:"id" db:"id"`
	IngredientID     int64   `json:"ingredient_id" db:"ingredient_id"`
	IngredientName   string  `json:"ingredient_name"`
	UnitID           int64   `json:"unit_id" db:"unit_id"`
	UnitAbbreviation string  `json:"unit_abbreviation"`
	Quantity         float64 `json:"quantity" db:"quantity"`
	Vendor           *string `json:"vendor,omitempty" db:"vendor"`
}

// CreatePurchaseOrderItemRequest is one line of a purchase order
type CreatePurchaseOrderItemRequest struct {
	IngredientName string  `json:"ingredient_name" binding:"required"`
	UnitName       string  `json:"unit_name" binding:"required"`
	Quantity       float64 `json:"quantity" binding:"required"`
	Vendor         *string `json:"vendor,omitempty"`
}

// CreatePurchaseOrderRequest creates a purchase order with items
type CreatePurchaseOrderRequest struct {
	OrderDate string                           `json:"order_date" binding:"required"`
	StoreID   *string                          `json:"store_id,omitempty"`
	Items     []CreatePurchaseOrderItemRequest `json:"items" binding:"required,min=1"`
}

// PurchaseOrderSummary is the listing view with an item count
type PurchaseOrderSummary struct {
	ID              int64   `json:"id"`
	POCode          string  `json:"po_code"`
	OrderDate       string  `json:"order_date"`
	StoreID         *string `json:"store_id,omitempty"`
	TotalItemsCount int     `json:"total_items_count"`
}

// PurchaseOrderDetail is a purchase order with its items
type PurchaseOrderDetail struct {
	ID        int64               `json:"id"`
	POCode    string              `json:"po_code"`
	OrderDate string              `json:"order_date"`
	StoreID   *string             `json:"store_id,omitempty"`
	Items     []PurchaseOrderItem `json:"items"`
}
