package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

// newOrderNumber builds an order number from a timestamp and four random
// bytes: "ORD" + yyyymmddhhmmss + 8 uppercase hex chars. Collisions are
// vanishingly rare; the unique constraint on orders.order_number catches the
// rest.
func newOrderNumber(now time.Time) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("order: reading random bytes: %v", err))
	}
	return "ORD" + now.Format("20060102150405") + strings.ToUpper(hex.EncodeToString(buf))
}

// createOrder writes the order header and all items in one transaction.
// Modifier snapshots go in as JSONB so later catalog edits never change
// historical amounts. Returns the stored order.
func (h *Handler) createOrder(ctx context.Context, userID int64, req models.CheckoutRequest, cart *models.CartResponse) (*models.Order, error) {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order := &models.Order{
		OrderNumber:   newOrderNumber(time.Now()),
		UserID:        &userID,
		PaymentMethod: req.PaymentMethod,
		DineOption:    req.DineOption,
		TotalPrice:    cart.TotalPrice,
		OrderStatus:   models.OrderStatusInProgress,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, payment_method, dine_option, total_price, order_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, order.OrderNumber, userID, order.PaymentMethod, order.DineOption, order.TotalPrice, order.OrderStatus).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, item := range cart.Items {
		snapshot, err := json.Marshal(item.Modifiers)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot modifiers: %w", err)
		}

		var oi models.OrderItem
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, modifiers, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, order.ID, item.ProductID, item.Quantity, snapshot, item.ItemSubtotal).Scan(&oi.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}

		oi.OrderID = order.ID
		oi.ProductID = item.ProductID
		oi.ProductName = item.ProductName
		oi.Quantity = item.Quantity
		oi.Modifiers = item.Modifiers
		oi.Price = item.ItemSubtotal
		order.Items = append(order.Items, oi)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

// listOrders returns the user's orders, newest first
func (h *Handler) listOrders(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, order_number, user_id, pickup_number, payment_method, dine_option,
		       total_price, order_status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.PickupNumber,
			&o.PaymentMethod, &o.DineOption, &o.TotalPrice, &o.OrderStatus, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// getOrder loads one order with its items, scoped to the owning user.
// Another user's order id behaves exactly like a missing one.
func (h *Handler) getOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	var o models.Order
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, order_number, user_id, pickup_number, payment_method, dine_option,
		       total_price, order_status, created_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`, orderID, userID).Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.PickupNumber,
		&o.PaymentMethod, &o.DineOption, &o.TotalPrice, &o.OrderStatus, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	rows, err := h.db.Pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.modifiers, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	o.Items = []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var snapshot []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &snapshot, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &item.Modifiers); err != nil {
				return nil, fmt.Errorf("failed to decode modifier snapshot: %w", err)
			}
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}
