package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

// ListRoles returns every role
func (h *Handler) ListRoles(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	roles, err := h.listRoles(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list roles",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, roles)
}

// CreateRole creates a new role
func (h *Handler) CreateRole(c *gin.Context) {
	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	role, err := h.createRole(ctx, req)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Duplicate role",
				Message: "A role with this code already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create role",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Role created successfully",
		Data:    role,
	})
}

// requireRoleByCode loads the role named in the :code path param, answering
// 404 when it does not exist.
func (h *Handler) requireRoleByCode(c *gin.Context, ctx context.Context) (*models.Role, bool) {
	role, err := h.getRoleByCode(ctx, c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load role",
			Message: err.Error(),
		})
		return nil, false
	}
	if role == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Role not found",
			Message: "No role exists with this code",
		})
		return nil, false
	}
	return role, true
}

// ListRolePermissions returns the permissions bound to a role
func (h *Handler) ListRolePermissions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	role, ok := h.requireRoleByCode(c, ctx)
	if !ok {
		return
	}

	perms, err := h.rolePermissions(ctx, role.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list permissions",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.RolePermissionsResponse{
		Role:        role.Code,
		Permissions: perms,
	})
}

// AttachRolePermission binds a permission to a role
func (h *Handler) AttachRolePermission(c *gin.Context) {
	var req models.AttachPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	role, ok := h.requireRoleByCode(c, ctx)
	if !ok {
		return
	}

	perm, err := h.attachPermission(ctx, role.ID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to attach permission",
			Message: err.Error(),
		})
		return
	}
	if perm == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Permission not found",
			Message: "No permission exists with this code; set auto_create to create it",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Permission attached successfully",
		Data:    perm,
	})
}

// DetachRolePermission unbinds a permission from a role
func (h *Handler) DetachRolePermission(c *gin.Context) {
	var req models.DetachPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	role, ok := h.requireRoleByCode(c, ctx)
	if !ok {
		return
	}

	removed, err := h.detachPermission(ctx, role.ID, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to detach permission",
			Message: err.Error(),
		})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Binding not found",
			Message: "This permission is not attached to the role",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Permission detached successfully",
	})
}

// staffIDParam parses the :id path param and verifies the staff exists
func (h *Handler) staffIDParam(c *gin.Context, ctx context.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid staff id",
			Message: "Staff id must be an integer",
		})
		return 0, false
	}

	staff, err := h.getStaffByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load staff",
			Message: err.Error(),
		})
		return 0, false
	}
	if staff == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Staff not found",
			Message: "No staff member exists with this id",
		})
		return 0, false
	}
	return id, true
}

// GetStaffRoles returns a staff member's current role codes
func (h *Handler) GetStaffRoles(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	staffID, ok := h.staffIDParam(c, ctx)
	if !ok {
		return
	}

	roles, err := h.staffRoleCodes(ctx, staffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list staff roles",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.StaffRolesResponse{StaffID: staffID, Roles: roles})
}

// mutateStaffRoles factors the shared shape of set/add/remove role handlers
func (h *Handler) mutateStaffRoles(c *gin.Context, apply func(ctx context.Context, staffID int64, roleIDs map[string]int64) error, message string) {
	var req models.StaffRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	staffID, ok := h.staffIDParam(c, ctx)
	if !ok {
		return
	}

	roleIDs, err := h.resolveRoleIDs(ctx, req.Roles)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid roles",
			Message: err.Error(),
		})
		return
	}

	if err := apply(ctx, staffID, roleIDs); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update staff roles",
			Message: err.Error(),
		})
		return
	}

	roles, err := h.staffRoleCodes(ctx, staffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list staff roles",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: message,
		Data:    models.StaffRolesResponse{StaffID: staffID, Roles: roles},
	})
}

// SetStaffRoles replaces a staff member's roles
func (h *Handler) SetStaffRoles(c *gin.Context) {
	h.mutateStaffRoles(c, h.setStaffRoles, "Staff roles replaced successfully")
}

// AddStaffRoles grants additional roles to a staff member
func (h *Handler) AddStaffRoles(c *gin.Context) {
	h.mutateStaffRoles(c, h.addStaffRoles, "Staff roles added successfully")
}

// RemoveStaffRoles revokes roles from a staff member
func (h *Handler) RemoveStaffRoles(c *gin.Context) {
	h.mutateStaffRoles(c, h.removeStaffRoles, "Staff roles removed successfully")
}
