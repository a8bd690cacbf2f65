package models

// PermissionWildcard grants every permission when attached to any of the
// staff member's roles.
const PermissionWildcard = "*"

// Role is a named permission bundle ("owner", "manager", ...)
type Role struct {
	ID          int64   `json:"id" db:"id"`
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

// Permission is a named capability ("inventory.adjust", ...)
type Permission struct {
	ID          int64   `json:"id" db:"id"`
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
}

// CreateRoleRequest creates a new role
type CreateRoleRequest struct {
	Code        string  `json:"code" binding:"required,max=64"`
	Name        string  `json:"name" binding:"required,max=128"`
	Description *string `json:"description,omitempty"`
}

// AttachPermissionRequest binds a permission to a role. AutoCreate creates
// the permission on the fly when it does not exist yet.
type AttachPermissionRequest struct {
	Code        string  `json:"code" binding:"required,max=128"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	AutoCreate  bool    `json:"auto_create"`
}

// DetachPermissionRequest unbinds a permission from a role
type DetachPermissionRequest struct {
	Code string `json:"code" binding:"required,max=128"`
}

// StaffRolesRequest carries a set of role codes for the staff-role endpoints
type StaffRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

// RolePermissionsResponse lists the permissions bound to a role
type RolePermissionsResponse struct {
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// StaffRolesResponse lists a staff member's current role codes
type StaffRolesResponse struct {
	StaffID int64    `json:"staff_id"`
	Roles   []string `json:"roles"`
}
