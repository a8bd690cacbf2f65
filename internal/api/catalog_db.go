package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

func (h *Handler) listProductTypes(ctx context.Context) ([]models.ProductType, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, name, created_at, updated_at FROM product_types ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product types: %w", err)
	}
	defer rows.Close()

	types := []models.ProductType{}
	for rows.Next() {
		var t models.ProductType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (h *Handler) createProductType(ctx context.Context, name string) (*models.ProductType, error) {
	var t models.ProductType
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO product_types (name) VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, name).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) deleteProductType(ctx context.Context, id int64) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `DELETE FROM product_types WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product type: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (h *Handler) createProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	var p models.Product
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO products (name, price, type_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, price, type_id, created_at, updated_at
	`, req.Name, req.Price, req.TypeID).Scan(&p.ID, &p.Name, &p.Price, &p.TypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (h *Handler) getProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, name, price, type_id, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.TypeID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

func (h *Handler) listProducts(ctx context.Context, typeID *int64) ([]models.Product, error) {
	query := `SELECT id, name, price, type_id, created_at, updated_at FROM products`
	args := []interface{}{}
	if typeID != nil {
		query += ` WHERE type_id = $1`
		args = append(args, *typeID)
	}
	query += ` ORDER BY id`

	rows, err := h.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.TypeID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (h *Handler) updateProduct(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	var p models.Product
	err := h.db.Pool.QueryRow(ctx, `
		UPDATE products
		SET name = COALESCE($2, name),
		    price = COALESCE($3, price),
		    type_id = COALESCE($4, type_id),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING id, name, price, type_id, created_at, updated_at
	`, id, req.Name, req.Price, req.TypeID).Scan(&p.ID, &p.Name, &p.Price, &p.TypeID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

func (h *Handler) deleteProduct(ctx context.Context, id int64) (bool, error) {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM modifier_product WHERE product_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to unlink modifiers: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_allergens WHERE product_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to remove product allergens: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (h *Handler) createModifier(ctx context.Context, req models.CreateModifierRequest) (*models.Modifier, error) {
	var m models.Modifier
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO modifiers (name, type, price)
		VALUES ($1, $2, $3)
		RETURNING id, name, type, price, is_active
	`, req.Name, req.Type, req.Price).Scan(&m.ID, &m.Name, &m.Type, &m.Price, &m.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to create modifier: %w", err)
	}
	return &m, nil
}

func (h *Handler) listModifiers(ctx context.Context) ([]models.Modifier, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, name, type, price, is_active FROM modifiers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query modifiers: %w", err)
	}
	defer rows.Close()

	mods := []models.Modifier{}
	for rows.Next() {
		var m models.Modifier
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Price, &m.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan modifier: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

func (h *Handler) updateModifier(ctx context.Context, id int64, req models.UpdateModifierRequest) (*models.Modifier, error) {
	var m models.Modifier
	err := h.db.Pool.QueryRow(ctx, `
		UPDATE modifiers
		SET name = COALESCE($2, name),
		    type = COALESCE($3, type),
		    price = COALESCE($4, price),
		    is_active = COALESCE($5, is_active)
		WHERE id = $1
		RETURNING id, name, type, price, is_active
	`, id, req.Name, req.Type, req.Price, req.IsActive).Scan(&m.ID, &m.Name, &m.Type, &m.Price, &m.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update modifier: %w", err)
	}
	return &m, nil
}

func (h *Handler) deleteModifier(ctx context.Context, id int64) (bool, error) {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM modifier_product WHERE modifier_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to unlink modifier: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM modifiers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete modifier: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// linkModifier attaches a modifier to a product. Idempotent.
func (h *Handler) linkModifier(ctx context.Context, productID, modifierID int64) error {
	_, err := h.db.Pool.Exec(ctx, `
		INSERT INTO modifier_product (product_id, modifier_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, productID, modifierID)
	if err != nil {
		return fmt.Errorf("failed to link modifier: %w", err)
	}
	return nil
}

func (h *Handler) unlinkModifier(ctx context.Context, productID, modifierID int64) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `
		DELETE FROM modifier_product WHERE product_id = $1 AND modifier_id = $2
	`, productID, modifierID)
	if err != nil {
		return false, fmt.Errorf("failed to unlink modifier: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// productModifiers returns a product's modifiers, optionally only active ones
func (h *Handler) productModifiers(ctx context.Context, productID int64, activeOnly bool) ([]models.Modifier, error) {
	query := `
		SELECT m.id, m.name, m.type, m.price, m.is_active
		FROM modifier_product mp
		JOIN modifiers m ON m.id = mp.modifier_id
		WHERE mp.product_id = $1`
	if activeOnly {
		query += ` AND m.is_active`
	}
	query += ` ORDER BY m.id`

	rows, err := h.db.Pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product modifiers: %w", err)
	}
	defer rows.Close()

	mods := []models.Modifier{}
	for rows.Next() {
		var m models.Modifier
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.Price, &m.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan modifier: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// setProductAllergens replaces a product's allergen tags. Names are
// lowercased so filtering is case-insensitive.
func (h *Handler) setProductAllergens(ctx context.Context, productID int64, allergens []string) error {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM product_allergens WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear product allergens: %w", err)
	}
	for _, a := range allergens {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_allergens (product_id, allergen)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, productID, a); err != nil {
			return fmt.Errorf("failed to set product allergen: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (h *Handler) productAllergens(ctx context.Context, productID int64) ([]string, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT allergen FROM product_allergens WHERE product_id = $1 ORDER BY allergen
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product allergens: %w", err)
	}
	defer rows.Close()

	allergens := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan allergen: %w", err)
		}
		allergens = append(allergens, a)
	}
	return allergens, rows.Err()
}

// listMenu returns products filtered by optional type and excluded allergens
func (h *Handler) listMenu(ctx context.Context, typeID *int64, excludeAllergens []string) ([]models.ProductWithAllergens, error) {
	query := `
		SELECT p.id, p.name, p.price, p.type_id,
		       COALESCE(array_agg(pa.allergen) FILTER (WHERE pa.allergen IS NOT NULL), '{}')
		FROM products p
		LEFT JOIN product_allergens pa ON pa.product_id = p.id
	`
	args := []interface{}{}
	if typeID != nil {
		args = append(args, *typeID)
		query += fmt.Sprintf(" WHERE p.type_id = $%d", len(args))
	}
	query += ` GROUP BY p.id`
	if len(excludeAllergens) > 0 {
		args = append(args, excludeAllergens)
		query += fmt.Sprintf(`
			HAVING NOT COALESCE(array_agg(pa.allergen) FILTER (WHERE pa.allergen IS NOT NULL), '{}') && $%d::text[]
		`, len(args))
	}
	query += ` ORDER BY p.id`

	rows, err := h.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	defer rows.Close()

	products := []models.ProductWithAllergens{}
	for rows.Next() {
		var p models.ProductWithAllergens
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.TypeID, &p.Allergens); err != nil {
			return nil, fmt.Errorf("failed to scan menu entry: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// userAllergens returns the customer's saved allergen set
func (h *Handler) userAllergens(ctx context.Context, userID int64) ([]string, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT allergen FROM user_allergens WHERE user_id = $1 ORDER BY allergen
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user allergens: %w", err)
	}
	defer rows.Close()

	allergens := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("failed to scan allergen: %w", err)
		}
		allergens = append(allergens, a)
	}
	return allergens, rows.Err()
}

// setUserAllergens replaces the customer's saved allergen set
func (h *Handler) setUserAllergens(ctx context.Context, userID int64, allergens []string) error {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_allergens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user allergens: %w", err)
	}
	for _, a := range allergens {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_allergens (user_id, allergen) VALUES ($1, $2)
		`, userID, a); err != nil {
			return fmt.Errorf("failed to save user allergen: %w", err)
		}
	}
	return tx.Commit(ctx)
}
