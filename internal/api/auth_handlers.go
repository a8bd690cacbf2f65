package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/JWang2033/DessertPOS/internal/logging"
	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// StaffRegister creates a new staff account. Only owners and managers reach
// this handler; the role gate runs before it.
func (h *Handler) StaffRegister(c *gin.Context) {
	var req models.StaffRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to process password",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	id, err := h.createStaff(ctx, req, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "Duplicate staff",
				Message: "Username, email, or phone is already registered",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to register staff",
			Message: err.Error(),
		})
		return
	}

	logging.LogKV("info", "staff registered", map[string]interface{}{
		"staff_id": id,
		"username": req.Username,
	})

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Staff registered successfully",
		Data:    gin.H{"id": id},
	})
}

// StaffLogin authenticates by username, email, or phone plus password and
// issues a staff bearer token.
func (h *Handler) StaffLogin(c *gin.Context) {
	var req models.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	staff, err := h.getStaffByIdentifier(ctx, req.Identifier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Login failed",
			Message: err.Error(),
		})
		return
	}

	// Same response whether the account is unknown or the password is wrong
	if staff == nil || bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid credentials",
			Message: "Identifier or password is incorrect",
		})
		return
	}

	roles, err := h.staffRoleCodes(ctx, staff.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Login failed",
			Message: err.Error(),
		})
		return
	}

	token, err := GenerateToken(SubjectStaff, staff.ID, roles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to issue token",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// StaffMe returns the authenticated staff profile with live role codes
func (h *Handler) StaffMe(c *gin.Context) {
	staffID, ok := GetStaffID(c)
	if !ok {
		unauthorized(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	staff, err := h.getStaffByID(ctx, staffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load profile",
			Message: err.Error(),
		})
		return
	}
	if staff == nil {
		unauthorized(c)
		return
	}

	roles, err := h.staffRoleCodes(ctx, staffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load roles",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.StaffProfile{
		ID:       staff.ID,
		Username: staff.Username,
		FullName: staff.FullName,
		Email:    staff.Email,
		Phone:    staff.Phone,
		Roles:    roles,
	})
}

func isProduction() bool {
	return os.Getenv("ENVIRONMENT") == "production"
}

// UserSendCode issues a phone login code. Outside production the code is
// echoed back so clients can log in without SMS delivery.
func (h *Handler) UserSendCode(c *gin.Context) {
	var req models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	code, err := h.otps.Issue(ctx, req.PhoneNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to issue verification code",
			Message: err.Error(),
		})
		return
	}

	message := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
	if err := h.sms.SendSMS(ctx, req.PhoneNumber, message); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to send verification code",
			Message: err.Error(),
		})
		return
	}

	resp := models.SendCodeResponse{Message: "Verification code sent"}
	if !isProduction() {
		resp.DebugCode = code
	}
	c.JSON(http.StatusOK, resp)
}

// UserLogin verifies a phone login code, creating the user on first login,
// and issues a customer bearer token.
func (h *Handler) UserLogin(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.otps.Verify(ctx, req.PhoneNumber, req.Code); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid verification code",
			Message: "The verification code is expired or incorrect",
		})
		return
	}

	user, err := h.getOrCreateUserByPhone(ctx, req.PhoneNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Login failed",
			Message: err.Error(),
		})
		return
	}

	token, err := GenerateToken(SubjectUser, user.ID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to issue token",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.UserLoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

// UserRegister completes the profile of the authenticated customer
func (h *Handler) UserRegister(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req models.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	user, err := h.updateUserProfile(ctx, userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to update profile",
			Message: err.Error(),
		})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "User not found",
			Message: "The user no longer exists",
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Profile updated successfully",
		Data:    user,
	})
}
