package api

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/JWang2033/DessertPOS/internal/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	num := newOrderNumber(now)

	pattern := regexp.MustCompile(`^ORD20250314150926[0-9A-F]{8}$`)
	if !pattern.MatchString(num) {
		t.Fatalf("order number %q does not match expected format", num)
	}
}

func TestNewOrderNumberUniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		num := newOrderNumber(now)
		if seen[num] {
			t.Fatalf("duplicate order number generated: %s", num)
		}
		seen[num] = true
	}
}

// checkoutRouter builds a router whose auth is replaced by a fixed user id,
// backed by a real cart store on an in-memory Redis.
func checkoutRouter(t *testing.T, userID int64) *gin.Engine {
	t.Helper()
	setGinTestMode()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := &Handler{carts: cache.NewCartStore(rdb)}
	r := gin.New()
	r.POST("/checkout", func(c *gin.Context) {
		c.Set(ctxUserID, userID)
		c.Next()
	}, h.Checkout)
	return r
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	r := checkoutRouter(t, 7)

	body := `{"payment_method":"cash","dine_option":"take_out"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Cart is empty") {
		t.Fatalf("expected empty-cart error, got %s", w.Body.String())
	}
}

func TestCheckout_InvalidPaymentMethod(t *testing.T) {
	r := checkoutRouter(t, 7)

	body := `{"payment_method":"bitcoin","dine_option":"take_out"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payment method, got %d", w.Code)
	}
}

func TestCheckout_InvalidDineOption(t *testing.T) {
	r := checkoutRouter(t, 7)

	body := `{"payment_method":"cash","dine_option":"delivery"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid dine option, got %d", w.Code)
	}
}
