package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/jackc/pgx/v5"
)

// createStaff inserts a new staff record and returns its id
func (h *Handler) createStaff(ctx context.Context, req models.StaffRegisterRequest, passwordHash string) (int64, error) {
	var id int64
	err := h.db.Pool.QueryRow(ctx, `
		INSERT INTO staffs (username, password_hash, full_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, req.Username, passwordHash, req.FullName, req.Email, req.Phone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create staff: %w", err)
	}
	return id, nil
}

// getStaffByIdentifier looks a staff member up by username, email, or phone
func (h *Handler) getStaffByIdentifier(ctx context.Context, identifier string) (*models.Staff, error) {
	var s models.Staff
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, username, password_hash, full_name, email, phone
		FROM staffs
		WHERE username = $1 OR email = $1 OR phone = $1
	`, identifier).Scan(&s.ID, &s.Username, &s.PasswordHash, &s.FullName, &s.Email, &s.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	return &s, nil
}

func (h *Handler) getStaffByID(ctx context.Context, id int64) (*models.Staff, error) {
	var s models.Staff
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, username, password_hash, full_name, email, phone
		FROM staffs
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Username, &s.PasswordHash, &s.FullName, &s.Email, &s.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	return &s, nil
}

// getOrCreateUserByPhone returns the user for a phone number, creating a
// placeholder profile on first login.
func (h *Handler) getOrCreateUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, username, prefer_name, phone_number
		FROM users
		WHERE phone_number = $1
	`, phone).Scan(&u.ID, &u.Username, &u.PreferName, &u.PhoneNumber)
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	err = h.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, phone_number)
		VALUES ($1, $2)
		ON CONFLICT (phone_number) DO UPDATE SET phone_number = EXCLUDED.phone_number
		RETURNING id, username, prefer_name, phone_number
	`, "guest_"+phone, phone).Scan(&u.ID, &u.Username, &u.PreferName, &u.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (h *Handler) getUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := h.db.Pool.QueryRow(ctx, `
		SELECT id, username, prefer_name, phone_number
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PreferName, &u.PhoneNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// updateUserProfile completes a placeholder profile after phone login
func (h *Handler) updateUserProfile(ctx context.Context, id int64, req models.UserRegisterRequest) (*models.User, error) {
	var u models.User
	err := h.db.Pool.QueryRow(ctx, `
		UPDATE users
		SET username = $2, prefer_name = $3
		WHERE id = $1
		RETURNING id, username, prefer_name, phone_number
	`, id, req.Username, req.PreferName).Scan(&u.ID, &u.Username, &u.PreferName, &u.PhoneNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}
