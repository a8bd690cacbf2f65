package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

// nextPOSequence derives the next sequence number for a date from the
// existing codes sharing its prefix. Codes with malformed suffixes are
// skipped rather than breaking code generation.
func nextPOSequence(prefix string, codes []string) int {
	max := 0
	for _, code := range codes {
		suffix, found := strings.CutPrefix(code, prefix)
		if !found {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// poCodeForDate builds the next PO-YYYYMMDD-NNNN code for an order date
func (h *Handler) poCodeForDate(ctx context.Context, orderDate time.Time) (string, error) {
	prefix := "PO-" + orderDate.Format("20060102") + "-"

	rows, err := h.db.Pool.Query(ctx, `
		SELECT po_code FROM purchase_orders WHERE po_code LIKE $1
	`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("failed to query purchase order codes: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return "", fmt.Errorf("failed to scan purchase order code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, nextPOSequence(prefix, codes)), nil
}

// createPurchaseOrder validates and writes a purchase order with its items
// in one transaction.
func (h *Handler) createPurchaseOrder(ctx context.Context, req models.CreatePurchaseOrderRequest) (*models.PurchaseOrderDetail, error) {
	orderDate, err := time.Parse("2006-01-02", req.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("order_date must be YYYY-MM-DD")
	}
	if orderDate.After(time.Now()) {
		return nil, fmt.Errorf("order_date cannot be in the future")
	}

	type resolvedItem struct {
		ingredient *models.Ingredient
		unit       *models.Unit
		req        models.CreatePurchaseOrderItemRequest
	}
	resolved := make([]resolvedItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for %s", item.IngredientName)
		}
		ing, err := h.getIngredientByName(ctx, item.IngredientName)
		if err != nil {
			return nil, err
		}
		if ing == nil {
			return nil, fmt.Errorf("unknown ingredient: %s", item.IngredientName)
		}
		unit, err := h.getUnitByName(ctx, item.UnitName)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("unknown unit: %s", item.UnitName)
		}
		allowed, err := h.unitAllowedForCategory(ctx, ing.CategoryID, unit.ID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("unit %s is not allowed for ingredient %s", item.UnitName, item.IngredientName)
		}
		resolved = append(resolved, resolvedItem{ingredient: ing, unit: unit, req: item})
	}

	poCode, err := h.poCodeForDate(ctx, orderDate)
	if err != nil {
		return nil, err
	}

	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	detail := &models.PurchaseOrderDetail{
		POCode:    poCode,
		OrderDate: req.OrderDate,
		StoreID:   req.StoreID,
		Items:     []models.PurchaseOrderItem{},
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (po_code, order_date, store_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, poCode, orderDate, req.StoreID).Scan(&detail.ID)
	if err != nil {
		return nil, err
	}

	for _, item := range resolved {
		var itemID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO purchase_order_items (purchase_order_id, ingredient_id, unit_id, quantity, vendor)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, detail.ID, item.ingredient.ID, item.unit.ID, item.req.Quantity, item.req.Vendor).Scan(&itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert purchase order item: %w", err)
		}
		detail.Items = append(detail.Items, models.PurchaseOrderItem{
			ID:               itemID,
			IngredientID:     item.ingredient.ID,
			IngredientName:   item.ingredient.Name,
			UnitID:           item.unit.ID,
			UnitAbbreviation: item.unit.Abbreviation,
			Quantity:         item.req.Quantity,
			Vendor:           item.req.Vendor,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase order: %w", err)
	}
	return detail, nil
}

// listPurchaseOrders returns summaries filtered by an optional date range
func (h *Handler) listPurchaseOrders(ctx context.Context, from, to *time.Time) ([]models.PurchaseOrderSummary, error) {
	query := `
		SELECT po.id, po.po_code, to_char(po.order_date, 'YYYY-MM-DD'), po.store_id, COUNT(poi.id)
		FROM purchase_orders po
		LEFT JOIN purchase_order_items poi ON poi.purchase_order_id = po.id
	`
	conditions := []string{}
	args := []interface{}{}
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("po.order_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("po.order_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` GROUP BY po.id ORDER BY po.po_code DESC`

	rows, err := h.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	defer rows.Close()

	summaries := []models.PurchaseOrderSummary{}
	for rows.Next() {
		var s models.PurchaseOrderSummary
		if err := rows.Scan(&s.ID, &s.POCode, &s.OrderDate, &s.StoreID, &s.TotalItemsCount); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// getPurchaseOrderByCode loads a purchase order with denormalized items
func (h *Handler) getPurchaseOrderByCode(ctx context.Context, code string) (*models.PurchaseOrderDetail, error) {
	var detail models.PurchaseOrderDetail
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, po_code, to_char(order_date, 'YYYY-MM-DD'), store_id
		FROM purchase_orders WHERE po_code = $1
	`, code).Scan(&detail.ID, &detail.POCode, &detail.OrderDate, &detail.StoreID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase order: %w", err)
	}

	rows, err := h.db.Pool.Query(ctx, `
		SELECT poi.id, poi.ingredient_id, ing.name, poi.unit_id, u.abbreviation, poi.quantity, poi.vendor
		FROM purchase_order_items poi
		JOIN ingredients ing ON ing.id = poi.ingredient_id
		JOIN units u ON u.id = poi.unit_id
		WHERE poi.purchase_order_id = $1
		ORDER BY poi.id
	`, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase order items: %w", err)
	}
	defer rows.Close()

	detail.Items = []models.PurchaseOrderItem{}
	for rows.Next() {
		var item models.PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.IngredientID, &item.IngredientName,
			&item.UnitID, &item.UnitAbbreviation, &item.Quantity, &item.Vendor); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order item: %w", err)
		}
		detail.Items = append(detail.Items, item)
	}
	return &detail, rows.Err()
}
