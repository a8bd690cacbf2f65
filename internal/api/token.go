package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject kinds carried in token subjects. Staff and customer tokens share
// the signing key but are never interchangeable.
const (
	SubjectStaff = "staff"
	SubjectUser  = "user"
)

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not configured")
	}
	return []byte(secret), nil
}

func tokenLifetime() time.Duration {
	minutes := 60
	if raw := os.Getenv("JWT_EXPIRATION_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	return time.Duration(minutes) * time.Minute
}

// GenerateToken issues an HS256 bearer token with subject "<kind>:<id>".
// Roles are embedded as a display-only snapshot; authorization always
// re-reads the database.
func GenerateToken(kind string, id int64, roles []string) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%s:%d", kind, id),
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime()).Unix(),
	}
	if len(roles) > 0 {
		claims["roles"] = roles
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseSubject splits a token subject into its kind and numeric id.
func ParseSubject(sub string) (kind string, id int64, err error) {
	parts := strings.SplitN(sub, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("malformed token subject")
	}
	id, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed token subject")
	}
	if parts[0] != SubjectStaff && parts[0] != SubjectUser {
		return "", 0, fmt.Errorf("unknown token subject kind")
	}
	return parts[0], id, nil
}

// VerifyToken validates the signature and expiry of a bearer token and
// returns the subject kind and id.
func VerifyToken(tokenString string) (kind string, id int64, err error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", 0, err
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", 0, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", 0, fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", 0, fmt.Errorf("invalid token claims")
	}
	return ParseSubject(sub)
}
