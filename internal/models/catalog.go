package models

import "time"

// ProductType is a menu category ("cake", "drink", ...)
type ProductType struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a sellable menu item
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	TypeID    int64     `json:"type_id" db:"type_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Modifier customizes a product (size, sweetness, toppings). Inactive
// modifiers stay attached to products but are hidden from customers.
type Modifier struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Type     string  `json:"type" db:"type"`
	Price    float64 `json:"price" db:"price"`
	IsActive bool    `json:"is_active" db:"is_active"`
}

// ProductDetail is a product with its active modifiers
type ProductDetail struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	TypeID    int64      `json:"type_id"`
	Modifiers []Modifier `json:"modifiers"`
}

// ProductWithAllergens is the menu listing entry when allergen data is wanted
type ProductWithAllergens struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	TypeID    int64    `json:"type_id"`
	Allergens []string `json:"allergens"`
}

// CreateProductTypeRequest creates a menu category
type CreateProductTypeRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateProductRequest creates a product
type CreateProductRequest struct {
	Name   string  `json:"name" binding:"required,max=120"`
	Price  float64 `json:"price" binding:"min=0"`
	TypeID int64   `json:"type_id" binding:"required"`
}

// UpdateProductRequest updates a product; nil fields are left unchanged
type UpdateProductRequest struct {
	Name   *string  `json:"name,omitempty"`
	Price  *float64 `json:"price,omitempty"`
	TypeID *int64   `json:"type_id,omitempty"`
}

// CreateModifierRequest creates a modifier
type CreateModifierRequest struct {
	Name  string  `json:"name" binding:"required,max=100"`
	Type  string  `json:"type" binding:"required,max=50"`
	Price float64 `json:"price" binding:"min=0"`
}

// UpdateModifierRequest updates a modifier; nil fields are left unchanged
type UpdateModifierRequest struct {
	Name     *string  `json:"name,omitempty"`
	Type     *string  `json:"type,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

// SetProductAllergensRequest replaces a product's allergen tags
type SetProductAllergensRequest struct {
	Allergens []string `json:"allergens" binding:"required"`
}
