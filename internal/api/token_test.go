package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func setGinTestMode() { gin.SetMode(gin.TestMode) }

func withSecret(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })
}

func TestGenerateAndVerifyToken(t *testing.T) {
	withSecret(t)

	token, err := GenerateToken(SubjectStaff, 42, []string{"manager"})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	kind, id, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if kind != SubjectStaff || id != 42 {
		t.Fatalf("expected staff:42, got %s:%d", kind, id)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	withSecret(t)
	token, err := GenerateToken(SubjectUser, 7, nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	os.Setenv("JWT_SECRET", "a-different-secret")
	if _, _, err := VerifyToken(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	withSecret(t)

	claims := jwt.MapClaims{
		"sub": "user:7",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, _, err := VerifyToken(signed); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestParseSubject(t *testing.T) {
	cases := []struct {
		sub     string
		kind    string
		id      int64
		wantErr bool
	}{
		{"staff:1", "staff", 1, false},
		{"user:99", "user", 99, false},
		{"staff", "", 0, true},
		{"staff:abc", "", 0, true},
		{"robot:1", "", 0, true},
		{"", "", 0, true},
	}
	for _, tc := range cases {
		kind, id, err := ParseSubject(tc.sub)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSubject(%q): expected error", tc.sub)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSubject(%q): unexpected error %v", tc.sub, err)
			continue
		}
		if kind != tc.kind || id != tc.id {
			t.Errorf("ParseSubject(%q) = %s:%d, want %s:%d", tc.sub, kind, id, tc.kind, tc.id)
		}
	}
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	setGinTestMode()
	withSecret(t)

	r := gin.New()
	r.Use(AuthMiddleware(SubjectStaff))
	r.GET("/secure", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestAuthMiddleware_RejectsMalformedHeader(t *testing.T) {
	setGinTestMode()
	withSecret(t)

	r := gin.New()
	r.Use(AuthMiddleware(SubjectStaff))
	r.GET("/secure", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed header, got %d", w.Code)
	}
}

func TestAuthMiddleware_RejectsKindMismatch(t *testing.T) {
	setGinTestMode()
	withSecret(t)

	token, err := GenerateToken(SubjectUser, 7, nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	r := gin.New()
	r.Use(AuthMiddleware(SubjectStaff))
	r.GET("/secure", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// A customer token must not open staff routes
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for kind mismatch, got %d", w.Code)
	}
}

func TestAuthMiddleware_AcceptsMatchingKind(t *testing.T) {
	setGinTestMode()
	withSecret(t)

	token, err := GenerateToken(SubjectStaff, 3, nil)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	r := gin.New()
	r.Use(AuthMiddleware(SubjectStaff))
	r.GET("/secure", func(c *gin.Context) {
		id, ok := GetStaffID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"staff_id": fmt.Sprint(id)})
	})

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid staff token, got %d", w.Code)
	}
}
