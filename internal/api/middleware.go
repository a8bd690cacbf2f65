package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	ctxStaffID = "staff_id"
	ctxUserID  = "user_id"
)

// CORSMiddleware handles cross-origin requests
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "Invalid token",
		Message: "The provided token is invalid or expired",
	})
	c.Abort()
}

// AuthMiddleware validates the bearer token and requires the subject to be
// of the given kind. A valid token of the other kind is still a 401; a staff
// token never opens customer routes and vice versa.
func AuthMiddleware(requiredKind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Authorization header required",
				Message: "Please provide a valid authorization token",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Invalid authorization format",
				Message: "Authorization header must be in format 'Bearer <token>'",
			})
			c.Abort()
			return
		}

		kind, id, err := VerifyToken(tokenParts[1])
		if err != nil || kind != requiredKind {
			unauthorized(c)
			return
		}

		switch kind {
		case SubjectStaff:
			c.Set(ctxStaffID, id)
		case SubjectUser:
			c.Set(ctxUserID, id)
		}
		c.Next()
	}
}

// GetStaffID extracts the authenticated staff id set by AuthMiddleware
func GetStaffID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxStaffID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetUserID extracts the authenticated customer id set by AuthMiddleware
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "Forbidden",
		Message: "You do not have permission to perform this action",
	})
	c.Abort()
}

// RequireStaffRoles passes when the staff holds ANY of the given role codes.
// Assignments are read fresh on every request so revocation applies on the
// next call.
func (h *Handler) RequireStaffRoles(roleCodes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		staffID, ok := GetStaffID(c)
		if !ok {
			unauthorized(c)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		held, err := h.staffRoleCodes(ctx, staffID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Failed to check roles",
				Message: err.Error(),
			})
			c.Abort()
			return
		}

		for _, have := range held {
			for _, want := range roleCodes {
				if have == want {
					c.Next()
					return
				}
			}
		}
		forbidden(c)
	}
}

// permissionsSatisfied reports whether a held permission set covers every
// wanted code. Holding the wildcard permission satisfies any check.
func permissionsSatisfied(held map[string]bool, wanted []string) bool {
	if held[models.PermissionWildcard] {
		return true
	}
	for _, want := range wanted {
		if !held[want] {
			return false
		}
	}
	return true
}

// RequireStaffPermissions passes when the staff's effective permission set
// (union over assigned roles) covers ALL of the given codes. The wildcard
// permission grants everything.
func (h *Handler) RequireStaffPermissions(permissionCodes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		staffID, ok := GetStaffID(c)
		if !ok {
			unauthorized(c)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		held, err := h.staffPermissionCodes(ctx, staffID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Failed to check permissions",
				Message: err.Error(),
			})
			c.Abort()
			return
		}

		if !permissionsSatisfied(held, permissionCodes) {
			forbidden(c)
			return
		}
		c.Next()
	}
}
