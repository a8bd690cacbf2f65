package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

func (h *Handler) listUnits(ctx context.Context) ([]models.Unit, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, name, abbreviation FROM units ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	units := []models.Unit{}
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Abbreviation); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (h *Handler) getUnitByName(ctx context.Context, name string) (*models.Unit, error) {
	var u models.Unit
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, name, abbreviation FROM units WHERE name = $1
	`, name).Scan(&u.ID, &u.Name, &u.Abbreviation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query unit: %w", err)
	}
	return &u, nil
}

// createUnits inserts a batch of units. Duplicates are reported as skipped
// entries, not errors; the rest of the batch still commits.
func (h *Handler) createUnits(ctx context.Context, batch models.UnitBatch) ([]models.Unit, []models.BatchSkipped, error) {
	created := []models.Unit{}
	skipped := []models.BatchSkipped{}
	for _, req := range batch {
		var u models.Unit
		err := h.db.Pool.QueryRow(ctx, `
			INSERT INTO units (name, abbreviation) VALUES ($1, $2)
			RETURNING id, name, abbreviation
		`, req.Name, req.Abbreviation).Scan(&u.ID, &u.Name, &u.Abbreviation)
		if err != nil {
			if isUniqueViolation(err) {
				skipped = append(skipped, models.BatchSkipped{Name: req.Name, Reason: "already exists"})
				continue
			}
			return nil, nil, fmt.Errorf("failed to create unit: %w", err)
		}
		created = append(created, u)
	}
	return created, skipped, nil
}

// deleteUnitByName removes a unit. Category links cascade; the delete fails
// with a foreign key violation when ingredients or stock still reference it.
func (h *Handler) deleteUnitByName(ctx context.Context, name string) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `DELETE FROM units WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (h *Handler) listAllergens(ctx context.Context) ([]models.Allergen, error) {
	rows, err := h.db.Pool.Query(ctx, `SELECT id, name FROM allergens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allergens: %w", err)
	}
	defer rows.Close()

	allergens := []models.Allergen{}
	for rows.Next() {
		var a models.Allergen
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan allergen: %w", err)
		}
		allergens = append(allergens, a)
	}
	return allergens, rows.Err()
}

func (h *Handler) createAllergen(ctx context.Context, name string) (*models.Allergen, error) {
	var a models.Allergen
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO allergens (name) VALUES ($1) RETURNING id, name
	`, name).Scan(&a.ID, &a.Name)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (h *Handler) listCategoriesWithUnits(ctx context.Context) ([]models.CategoryWithUnits, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT c.id, c.name, c.tag, u.id, u.name, u.abbreviation
		FROM categories c
		LEFT JOIN category_units cu ON cu.category_id = c.id
		LEFT JOIN units u ON u.id = cu.unit_id
		ORDER BY c.id, u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.CategoryWithUnits{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			catID    int64
			catName  string
			catTag   *string
			unitID   *int64
			unitName *string
			unitAbbr *string
		)
		if err := rows.Scan(&catID, &catName, &catTag, &unitID, &unitName, &unitAbbr); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}

		pos, seen := index[catID]
		if !seen {
			categories = append(categories, models.CategoryWithUnits{
				ID: catID, Name: catName, Tag: catTag, Units: []models.Unit{},
			})
			pos = len(categories) - 1
			index[catID] = pos
		}
		if unitID != nil {
			categories[pos].Units = append(categories[pos].Units, models.Unit{
				ID: *unitID, Name: *unitName, Abbreviation: *unitAbbr,
			})
		}
	}
	return categories, rows.Err()
}

// upsertCategory creates or updates a category by name and replaces its unit
// links. Unit names must all resolve or the whole write is rejected.
func (h *Handler) upsertCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.CategoryWithUnits, error) {
	units := make([]models.Unit, 0, len(req.UnitNames))
	for _, name := range req.UnitNames {
		unit, err := h.getUnitByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, fmt.Errorf("unknown unit name: %s", name)
		}
		units = append(units, *unit)
	}

	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cat models.Category
	err = tx.QueryRow(ctx, `
		INSERT INTO categories (name, tag) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET tag = COALESCE(EXCLUDED.tag, categories.tag)
		RETURNING id, name, tag
	`, req.Name, req.Tag).Scan(&cat.ID, &cat.Name, &cat.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM category_units WHERE category_id = $1`, cat.ID); err != nil {
		return nil, fmt.Errorf("failed to clear category units: %w", err)
	}
	for _, unit := range units {
		if _, err := tx.Exec(ctx, `
			INSERT INTO category_units (category_id, unit_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, cat.ID, unit.ID); err != nil {
			return nil, fmt.Errorf("failed to link unit: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &models.CategoryWithUnits{ID: cat.ID, Name: cat.Name, Tag: cat.Tag, Units: units}, nil
}

func (h *Handler) getCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, name, tag FROM categories WHERE name = $1
	`, name).Scan(&cat.ID, &cat.Name, &cat.Tag)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &cat, nil
}

// deleteCategoryByName removes a category and its unit links. Fails with a
// foreign key violation when ingredients still use the category.
func (h *Handler) deleteCategoryByName(ctx context.Context, name string) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `DELETE FROM categories WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// unitAllowedForCategory reports whether a unit is linked to a category
func (h *Handler) unitAllowedForCategory(ctx context.Context, categoryID, unitID int64) (bool, error) {
	var exists bool
	err := h.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM category_units WHERE category_id = $1 AND unit_id = $2
		)
	`, categoryID, unitID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category units: %w", err)
	}
	return exists, nil
}

func (h *Handler) listIngredients(ctx context.Context) ([]models.Ingredient, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, name, category_id, unit_id, brand, threshold FROM ingredients ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.CategoryID, &ing.UnitID, &ing.Brand, &ing.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func (h *Handler) getIngredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, name, category_id, unit_id, brand, threshold
		FROM ingredients WHERE name = $1
	`, name).Scan(&ing.ID, &ing.Name, &ing.CategoryID, &ing.UnitID, &ing.Brand, &ing.Threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient: %w", err)
	}
	return &ing, nil
}

// ingredientAllergens returns the allergens linked to an ingredient
func (h *Handler) ingredientAllergens(ctx context.Context, ingredientID int64) ([]models.Allergen, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT a.id, a.name
		FROM ingredient_allergens ia
		JOIN allergens a ON a.id = ia.allergen_id
		WHERE ia.ingredient_id = $1
		ORDER BY a.id
	`, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient allergens: %w", err)
	}
	defer rows.Close()

	allergens := []models.Allergen{}
	for rows.Next() {
		var a models.Allergen
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan allergen: %w", err)
		}
		allergens = append(allergens, a)
	}
	return allergens, rows.Err()
}

// deleteIngredientByName removes an ingredient and its allergen links. Fails
// with a foreign key violation when stock, purchase orders, or prepped item
// recipes still reference it.
func (h *Handler) deleteIngredientByName(ctx context.Context, name string) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `DELETE FROM ingredients WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// createIngredients inserts a batch of ingredients, resolving category and
// unit by name. Per-item failures are reported as skipped, not as request
// failures.
func (h *Handler) createIngredients(ctx context.Context, batch models.IngredientBatch) ([]models.Ingredient, []models.BatchSkipped, error) {
	created := []models.Ingredient{}
	skipped := []models.BatchSkipped{}

	for _, req := range batch {
		cat, err := h.getCategoryByName(ctx, req.CategoryName)
		if err != nil {
			return nil, nil, err
		}
		if cat == nil {
			skipped = append(skipped, models.BatchSkipped{Name: req.Name, Reason: "unknown category: " + req.CategoryName})
			continue
		}
		unit, err := h.getUnitByName(ctx, req.UnitName)
		if err != nil {
			return nil, nil, err
		}
		if unit == nil {
			skipped = append(skipped, models.BatchSkipped{Name: req.Name, Reason: "unknown unit: " + req.UnitName})
			continue
		}

		var ing models.Ingredient
		err = h.db.Pool.QueryRow(ctx, `
			INSERT INTO ingredients (name, category_id, unit_id, brand, threshold)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, name, category_id, unit_id, brand, threshold
		`, req.Name, cat.ID, unit.ID, req.Brand, req.Threshold).
			Scan(&ing.ID, &ing.Name, &ing.CategoryID, &ing.UnitID, &ing.Brand, &ing.Threshold)
		if err != nil {
			if isUniqueViolation(err) {
				skipped = append(skipped, models.BatchSkipped{Name: req.Name, Reason: "already exists"})
				continue
			}
			return nil, nil, fmt.Errorf("failed to create ingredient: %w", err)
		}

		for _, allergenID := range req.AllergenIDs {
			if _, err := h.db.Pool.Exec(ctx, `
				INSERT INTO ingredient_allergens (ingredient_id, allergen_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, ing.ID, allergenID); err != nil {
				return nil, nil, fmt.Errorf("failed to link allergen: %w", err)
			}
		}
		created = append(created, ing)
	}
	return created, skipped, nil
}

// updateIngredient patches brand, threshold, and allergen links. A threshold
// change re-derives restock_needed on every inventory record of the
// ingredient.
func (h *Handler) updateIngredient(ctx context.Context, id int64, req models.UpdateIngredientRequest) (*models.Ingredient, error) {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ing models.Ingredient
	err = tx.QueryRow(ctx, `
		UPDATE ingredients
		SET brand = COALESCE($2, brand),
		    threshold = COALESCE($3, threshold)
		WHERE id = $1
		RETURNING id, name, category_id, unit_id, brand, threshold
	`, id, req.Brand, req.Threshold).Scan(&ing.ID, &ing.Name, &ing.CategoryID, &ing.UnitID, &ing.Brand, &ing.Threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}

	if req.AllergenIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM ingredient_allergens WHERE ingredient_id = $1`, id); err != nil {
			return nil, fmt.Errorf("failed to clear allergen links: %w", err)
		}
		for _, allergenID := range *req.AllergenIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO ingredient_allergens (ingredient_id, allergen_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, id, allergenID); err != nil {
				return nil, fmt.Errorf("failed to link allergen: %w", err)
			}
		}
	}

	if req.Threshold != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE inventory
			SET restock_needed = (actual_qty IS NOT NULL AND actual_qty < $2)
			WHERE ingredient_id = $1
		`, id, *req.Threshold); err != nil {
			return nil, fmt.Errorf("failed to recompute restock flags: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &ing, nil
}

func (h *Handler) createInventory(ctx context.Context, req models.CreateInventoryRequest) (*models.InventoryRecord, error) {
	ing, err := h.getIngredientByName(ctx, req.IngredientName)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		return nil, fmt.Errorf("unknown ingredient: %s", req.IngredientName)
	}
	unit, err := h.getUnitByName(ctx, req.UnitName)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("unknown unit: %s", req.UnitName)
	}

	restock := models.RestockNeeded(req.ActualQty, ing.Threshold)

	var rec models.InventoryRecord
	err = h.db.Pool.QueryRow(ctx, `
		INSERT INTO inventory (ingredient_id, unit_id, standard_qty, actual_qty, location, restock_needed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, ingredient_id, unit_id, standard_qty, actual_qty, location, update_time, restock_needed
	`, ing.ID, unit.ID, req.StandardQty, req.ActualQty, req.Location, restock).
		Scan(&rec.ID, &rec.IngredientID, &rec.UnitID, &rec.StandardQty, &rec.ActualQty,
			&rec.Location, &rec.UpdateTime, &rec.RestockNeeded)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory record: %w", err)
	}
	return &rec, nil
}

// updateInventoryQty sets the actual quantity and re-derives restock_needed
// from the ingredient's threshold in the same statement.
func (h *Handler) updateInventoryQty(ctx context.Context, id int64, actualQty float64) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := h.db.Pool.QueryRow(ctx, `
		UPDATE inventory inv
		SET actual_qty = $2,
		    update_time = CURRENT_TIMESTAMP,
		    restock_needed = (ing.threshold IS NOT NULL AND $2 < ing.threshold)
		FROM ingredients ing
		WHERE inv.id = $1 AND ing.id = inv.ingredient_id
		RETURNING inv.id, inv.ingredient_id, inv.unit_id, inv.standard_qty, inv.actual_qty,
		          inv.location, inv.update_time, inv.restock_needed
	`, id, actualQty).Scan(&rec.ID, &rec.IngredientID, &rec.UnitID, &rec.StandardQty,
		&rec.ActualQty, &rec.Location, &rec.UpdateTime, &rec.RestockNeeded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory record: %w", err)
	}
	return &rec, nil
}

// inventory sort columns whitelisted against injection
var inventorySortColumns = map[string]string{
	"actual_qty":   "inv.actual_qty",
	"standard_qty": "inv.standard_qty",
	"update_time":  "inv.update_time",
}

// listInventory returns denormalized stock rows with optional sorting and
// grouping hints.
func (h *Handler) listInventory(ctx context.Context, sortBy, groupBy string) ([]models.InventoryListEntry, error) {
	query := `
		SELECT inv.id, ing.id, ing.name, c.name, ing.brand, inv.standard_qty, inv.actual_qty,
		       u.abbreviation, inv.location, inv.update_time, inv.restock_needed
		FROM inventory inv
		JOIN ingredients ing ON ing.id = inv.ingredient_id
		JOIN categories c ON c.id = ing.category_id
		JOIN units u ON u.id = inv.unit_id
	`

	order := []string{}
	switch groupBy {
	case "location":
		order = append(order, "inv.location")
	case "restock_needed":
		order = append(order, "inv.restock_needed DESC")
	case "":
	default:
		return nil, fmt.Errorf("unsupported group_by: %s", groupBy)
	}
	if sortBy != "" {
		col, ok := inventorySortColumns[sortBy]
		if !ok {
			return nil, fmt.Errorf("unsupported sort_by: %s", sortBy)
		}
		order = append(order, col)
	}
	order = append(order, "inv.id")

	query += " ORDER BY " + order[0]
	for _, o := range order[1:] {
		query += ", " + o
	}

	rows, err := h.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	entries := []models.InventoryListEntry{}
	for rows.Next() {
		var e models.InventoryListEntry
		if err := rows.Scan(&e.InventoryID, &e.IngredientID, &e.IngredientName, &e.CategoryName,
			&e.Brand, &e.StandardQty, &e.ActualQty, &e.UnitAbbreviation, &e.Location,
			&e.UpdateTime, &e.RestockNeeded); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
