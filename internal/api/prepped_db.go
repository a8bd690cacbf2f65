package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

// resolvePreppedIngredients validates recipe lines: every ingredient and
// unit must exist by name and the unit must be allowed for the ingredient's
// category. Returns resolved lines in input order.
func (h *Handler) resolvePreppedIngredients(ctx context.Context, lines []models.PreppedItemIngredientRequest) ([]models.PreppedItemIngredient, error) {
	resolved := make([]models.PreppedItemIngredient, 0, len(lines))
	for _, line := range lines {
		ing, err := h.getIngredientByName(ctx, line.IngredientName)
		if err != nil {
			return nil, err
		}
		if ing == nil {
			return nil, fmt.Errorf("unknown ingredient: %s", line.IngredientName)
		}
		unit, err := h.getUnitByName(ctx, line.UnitName)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("unknown unit: %s", line.UnitName)
		}
		allowed, err := h.unitAllowedForCategory(ctx, ing.CategoryID, unit.ID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("unit %s is not allowed for ingredient %s", line.UnitName, line.IngredientName)
		}
		resolved = append(resolved, models.PreppedItemIngredient{
			IngredientID:     ing.ID,
			IngredientName:   ing.Name,
			UnitID:           unit.ID,
			UnitAbbreviation: unit.Abbreviation,
			Quantity:         line.Quantity,
		})
	}
	return resolved, nil
}

// createPreppedItem validates and writes a prepped item with its recipe in
// one transaction. Unique violations on the name pass through raw so the
// handler can map them to a conflict.
func (h *Handler) createPreppedItem(ctx context.Context, req models.CreatePreppedItemRequest) (*models.PreppedItemDetail, error) {
	resolved, err := h.resolvePreppedIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}

	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	detail := &models.PreppedItemDetail{
		Name:          req.Name,
		PrepTimeHours: req.PrepTimeHours,
		Ingredients:   []models.PreppedItemIngredient{},
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO semi_finished_products (name, prep_time_hours)
		VALUES ($1, $2)
		RETURNING id
	`, req.Name, req.PrepTimeHours).Scan(&detail.ID)
	if err != nil {
		return nil, err
	}

	for _, line := range resolved {
		err := tx.QueryRow(ctx, `
			INSERT INTO semi_finished_product_ingredients
				(semi_finished_product_id, ingredient_id, unit_id, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, detail.ID, line.IngredientID, line.UnitID, line.Quantity).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert recipe line: %w", err)
		}
		detail.Ingredients = append(detail.Ingredients, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit prepped item: %w", err)
	}
	return detail, nil
}

// listPreppedItems returns summaries with recipe line counts. A non-empty
// name filters with a case-insensitive substring match.
func (h *Handler) listPreppedItems(ctx context.Context, name string, skip, limit int) ([]models.PreppedItemSummary, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT sfp.id, sfp.name, sfp.prep_time_hours, COUNT(sfi.id)
		FROM semi_finished_products sfp
		LEFT JOIN semi_finished_product_ingredients sfi
			ON sfi.semi_finished_product_id = sfp.id
		WHERE $1 = '' OR sfp.name ILIKE '%' || $1 || '%'
		GROUP BY sfp.id
		ORDER BY sfp.id
		OFFSET $2 LIMIT $3
	`, name, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prepped items: %w", err)
	}
	defer rows.Close()

	summaries := []models.PreppedItemSummary{}
	for rows.Next() {
		var s models.PreppedItemSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.PrepTimeHours, &s.IngredientCount); err != nil {
			return nil, fmt.Errorf("failed to scan prepped item: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// getPreppedItemByName loads a prepped item with its denormalized recipe
func (h *Handler) getPreppedItemByName(ctx context.Context, name string) (*models.PreppedItemDetail, error) {
	var detail models.PreppedItemDetail
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, name, prep_time_hours FROM semi_finished_products WHERE name = $1
	`, name).Scan(&detail.ID, &detail.Name, &detail.PrepTimeHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prepped item: %w", err)
	}

	rows, err := h.db.Pool.Query(ctx, `
		SELECT sfi.id, sfi.ingredient_id, ing.name, sfi.unit_id, u.abbreviation, sfi.quantity
		FROM semi_finished_product_ingredients sfi
		JOIN ingredients ing ON ing.id = sfi.ingredient_id
		JOIN units u ON u.id = sfi.unit_id
		WHERE sfi.semi_finished_product_id = $1
		ORDER BY sfi.id
	`, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe lines: %w", err)
	}
	defer rows.Close()

	detail.Ingredients = []models.PreppedItemIngredient{}
	for rows.Next() {
		var line models.PreppedItemIngredient
		if err := rows.Scan(&line.ID, &line.IngredientID, &line.IngredientName,
			&line.UnitID, &line.UnitAbbreviation, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		detail.Ingredients = append(detail.Ingredients, line)
	}
	return &detail, rows.Err()
}

// updatePreppedItem patches prep time and, when a list is given, replaces the
// whole recipe. Returns nil when no item has the name.
func (h *Handler) updatePreppedItem(ctx context.Context, name string, req models.UpdatePreppedItemRequest) (*models.PreppedItemDetail, error) {
	var resolved []models.PreppedItemIngredient
	if req.Ingredients != nil {
		lines, err := h.resolvePreppedIngredients(ctx, *req.Ingredients)
		if err != nil {
			return nil, err
		}
		resolved = lines
	}

	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		UPDATE semi_finished_products
		SET prep_time_hours = COALESCE($2, prep_time_hours)
		WHERE name = $1
		RETURNING id
	`, name, req.PrepTimeHours).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update prepped item: %w", err)
	}

	if req.Ingredients != nil {
		if _, err := tx.Exec(ctx, `
			DELETE FROM semi_finished_product_ingredients WHERE semi_finished_product_id = $1
		`, id); err != nil {
			return nil, fmt.Errorf("failed to clear recipe lines: %w", err)
		}
		for _, line := range resolved {
			if _, err := tx.Exec(ctx, `
				INSERT INTO semi_finished_product_ingredients
					(semi_finished_product_id, ingredient_id, unit_id, quantity)
				VALUES ($1, $2, $3, $4)
			`, id, line.IngredientID, line.UnitID, line.Quantity); err != nil {
				return nil, fmt.Errorf("failed to insert recipe line: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return h.getPreppedItemByName(ctx, name)
}

// deletePreppedItemByName removes a prepped item; its recipe lines cascade
func (h *Handler) deletePreppedItemByName(ctx context.Context, name string) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `
		DELETE FROM semi_finished_products WHERE name = $1
	`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete prepped item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
