package models

import "time"

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWechat PaymentMethod = "wechat"
)

// IsValid checks if the payment method is valid
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWechat:
		return true
	default:
		return false
	}
}

// DineOption is where the order is consumed
type DineOption string

const (
	DineOptionTakeOut DineOption = "take_out"
	DineOptionDineIn  DineOption = "dine_in"
)

// IsValid checks if the dine option is valid
func (d DineOption) IsValid() bool {
	switch d {
	case DineOptionTakeOut, DineOptionDineIn:
		return true
	default:
		return false
	}
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "IP"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusRefunded   OrderStatus = "Refunded"
	OrderStatusPreorder   OrderStatus = "preorder"
)

// CartModifier is the modifier view stored on cart lines and snapshotted onto
// order items. It carries the price at the time it was read so historical
// orders stay stable under catalog edits.
type CartModifier struct {
	ModifierID int64   `json:"modifier_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Price      float64 `json:"price"`
}

// CartItemDetail is a cart line joined against current catalog data
type CartItemDetail struct {
	ID           string         `json:"id"`
	ProductID    int64          `json:"product_id"`
	ProductName  string         `json:"product_name"`
	ProductPrice float64        `json:"product_price"`
	Quantity     int            `json:"quantity"`
	Modifiers    []CartModifier `json:"modifiers"`
	ItemSubtotal float64        `json:"item_subtotal"`
}

// Subtotal prices a cart line: the product's unit price plus the price of
// every chosen modifier, multiplied by the quantity.
func (i CartItemDetail) Subtotal() float64 {
	extras := 0.0
	for _, m := range i.Modifiers {
		extras += m.Price
	}
	return (i.ProductPrice + extras) * float64(i.Quantity)
}

// CartResponse is the full cart view with the running total
type CartResponse struct {
	Items      []CartItemDetail `json:"items"`
	TotalPrice float64          `json:"total_price"`
}

// Total sums the line subtotals of the whole cart
func (r *CartResponse) Total() float64 {
	total := 0.0
	for _, item := range r.Items {
		total += item.ItemSubtotal
	}
	return total
}

// AddToCartRequest adds a product with chosen modifiers to the cart
type AddToCartRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Modifiers []int64 `json:"modifiers"`
}

// UpdateCartItemRequest updates quantity and/or modifiers of a cart line
type UpdateCartItemRequest struct {
	Quantity  *int     `json:"quantity,omitempty" binding:"omitempty,min=1"`
	Modifiers *[]int64 `json:"modifiers,omitempty"`
}

// CheckoutRequest converts the cart into an order
type CheckoutRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
	DineOption    DineOption    `json:"dine_option" binding:"required"`
}

// Order is a finalized purchase
type Order struct {
	ID            int64         `json:"id" db:"id"`
	OrderNumber   string        `json:"order_number" db:"order_number"`
	UserID        *int64        `json:"user_id,omitempty" db:"user_id"`
	PickupNumber  *string       `json:"pickup_number,omitempty" db:"pickup_number"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	DineOption    DineOption    `json:"dine_option" db:"dine_option"`
	TotalPrice    float64       `json:"total_price" db:"total_price"`
	OrderStatus   OrderStatus   `json:"order_status" db:"order_status"`
	Items         []OrderItem   `json:"items"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// OrderItem is one line of an order. Modifiers are a denormalized snapshot,
// not live references.
type OrderItem struct {
	ID          int64          `json:"id" db:"id"`
	OrderID     int64          `json:"order_id" db:"order_id"`
	ProductID   int64          `json:"product_id" db:"product_id"`
	ProductName string         `json:"product_name"`
	Quantity    int            `json:"quantity" db:"quantity"`
	Modifiers   []CartModifier `json:"modifiers"`
	Price       float64        `json:"price" db:"price"`
}
