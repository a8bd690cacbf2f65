package api

import (
	"context"
	"net/http"
	"time"

	"github.com/JWang2033/DessertPOS/internal/cache"
	"github.com/JWang2033/DessertPOS/internal/db"
	"github.com/JWang2033/DessertPOS/internal/models"
	"github.com/JWang2033/DessertPOS/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handler holds the service dependencies and provides HTTP handlers
type Handler struct {
	db    *db.Database
	redis *redis.Client
	carts *cache.CartStore
	otps  *cache.OTPStore
	sms   services.SmsSender
}

// NewHandler creates a new handler instance
func NewHandler(database *db.Database, rdb *redis.Client, sms services.SmsSender) *Handler {
	return &Handler{
		db:    database,
		redis: rdb,
		carts: cache.NewCartStore(rdb),
		otps:  cache.NewOTPStore(rdb),
		sms:   sms,
	}
}

// Live reports process liveness
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready reports whether the backing stores are reachable
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Database connection failed",
			Message: err.Error(),
		})
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Redis connection failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Health checks the health of the service
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Database connection failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "dessert-pos",
		"timestamp": time.Now().UTC(),
	})
}
