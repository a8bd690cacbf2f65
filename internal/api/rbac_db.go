package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

// staffRoleCodes returns the role codes currently assigned to a staff member
func (h *Handler) staffRoleCodes(ctx context.Context, staffID int64) ([]string, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT r.code
		FROM staff_roles sr
		JOIN roles r ON r.id = sr.role_id
		WHERE sr.staff_id = $1
		ORDER BY r.code
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff roles: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan role code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// staffPermissionCodes returns the effective permission set of a staff
// member: the union of permissions over all assigned roles.
func (h *Handler) staffPermissionCodes(ctx context.Context, staffID int64) (map[string]bool, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT DISTINCT p.code
		FROM staff_roles sr
		JOIN role_permissions rp ON rp.role_id = sr.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE sr.staff_id = $1
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff permissions: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan permission code: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

func (h *Handler) listRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, code, name, description FROM roles ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (h *Handler) createRole(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	var r models.Role
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO roles (code, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, code, name, description
	`, req.Code, req.Name, req.Description).Scan(&r.ID, &r.Code, &r.Name, &r.Description)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (h *Handler) getRoleByCode(ctx context.Context, code string) (*models.Role, error) {
	var r models.Role
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, code, name, description FROM roles WHERE code = $1
	`, code).Scan(&r.ID, &r.Code, &r.Name, &r.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query role: %w", err)
	}
	return &r, nil
}

func (h *Handler) rolePermissions(ctx context.Context, roleID int64) ([]models.Permission, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT p.id, p.code, p.name, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.code
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role permissions: %w", err)
	}
	defer rows.Close()

	perms := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// attachPermission binds a permission to a role, optionally creating the
// permission first. Idempotent for already-bound pairs.
func (h *Handler) attachPermission(ctx context.Context, roleID int64, req models.AttachPermissionRequest) (*models.Permission, error) {
	var p models.Permission
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, code, name, description FROM permissions WHERE code = $1
	`, req.Code).Scan(&p.ID, &p.Code, &p.Name, &p.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		if !req.AutoCreate {
			return nil, nil
		}
		name := req.Code
		if req.Name != nil {
			name = *req.Name
		}
		err = h.db.Pool.QueryRow(ctx, `
			INSERT INTO permissions (code, name, description)
			VALUES ($1, $2, $3)
			RETURNING id, code, name, description
		`, req.Code, name, req.Description).Scan(&p.ID, &p.Code, &p.Name, &p.Description)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permission: %w", err)
	}

	_, err = h.db.Pool.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, roleID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to attach permission: %w", err)
	}
	return &p, nil
}

func (h *Handler) detachPermission(ctx context.Context, roleID int64, code string) (bool, error) {
	tag, err := h.db.Pool.Exec(ctx, `
		DELETE FROM role_permissions rp
		USING permissions p
		WHERE rp.role_id = $1 AND rp.permission_id = p.id AND p.code = $2
	`, roleID, code)
	if err != nil {
		return false, fmt.Errorf("failed to detach permission: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// resolveRoleIDs maps role codes to ids, failing on any unknown code
func (h *Handler) resolveRoleIDs(ctx context.Context, codes []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(codes))
	for _, code := range codes {
		role, err := h.getRoleByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, fmt.Errorf("unknown role code: %s", code)
		}
		ids[code] = role.ID
	}
	return ids, nil
}

// setStaffRoles replaces a staff member's role assignments atomically
func (h *Handler) setStaffRoles(ctx context.Context, staffID int64, roleIDs map[string]int64) error {
	tx, err := h.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM staff_roles WHERE staff_id = $1`, staffID); err != nil {
		return fmt.Errorf("failed to clear staff roles: %w", err)
	}
	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO staff_roles (staff_id, role_id) VALUES ($1, $2)
		`, staffID, roleID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (h *Handler) addStaffRoles(ctx context.Context, staffID int64, roleIDs map[string]int64) error {
	for _, roleID := range roleIDs {
		if _, err := h.db.Pool.Exec(ctx, `
			INSERT INTO staff_roles (staff_id, role_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, staffID, roleID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
	}
	return nil
}

func (h *Handler) removeStaffRoles(ctx context.Context, staffID int64, roleIDs map[string]int64) error {
	for _, roleID := range roleIDs {
		if _, err := h.db.Pool.Exec(ctx, `
			DELETE FROM staff_roles WHERE staff_id = $1 AND role_id = $2
		`, staffID, roleID); err != nil {
			return fmt.Errorf("failed to remove role: %w", err)
		}
	}
	return nil
}
