package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JWang2033/DessertPOS/internal/api"
	"github.com/JWang2033/DessertPOS/internal/cache"
	"github.com/JWang2033/DessertPOS/internal/db"
	"github.com/JWang2033/DessertPOS/internal/logging"
	"github.com/JWang2033/DessertPOS/internal/services"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)
	log.Println("Dessert POS backend starting")

	database, err := db.NewDatabase()
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.Close()

	rdb, err := cache.ConnectRedis()
	if err != nil {
		log.Fatalf("Redis initialization failed: %v", err)
	}
	defer rdb.Close()

	handler := api.NewHandler(database, rdb, newSmsSender())

	router := setupRouter(handler)

	port := os.Getenv("POS_PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
}

// newSmsSender wires AWS SNS in production and falls back to a logging no-op
// elsewhere so phone login works without AWS credentials.
func newSmsSender() services.SmsSender {
	if os.Getenv("ENVIRONMENT") != "production" {
		log.Println("SMS delivery disabled outside production; login codes are returned as debug_code")
		return services.NoopSmsService{}
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Printf("[WARN] AWS configuration failed, falling back to no-op SMS sender: %v", err)
		return services.NoopSmsService{}
	}
	return services.NewSmsService(cfg)
}

func setupRouter(handler *api.Handler) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(api.CORSMiddleware())

	router.GET("/live", handler.Live)
	router.GET("/ready", handler.Ready)
	router.GET("/health", handler.Health)

	// Staff authentication
	auth := router.Group("/auth")
	{
		auth.POST("/login", handler.StaffLogin)

		protected := auth.Group("")
		protected.Use(api.AuthMiddleware(api.SubjectStaff))
		protected.POST("/register", handler.RequireStaffRoles("owner", "manager"), handler.StaffRegister)
	}

	staff := router.Group("/staff")
	staff.Use(api.AuthMiddleware(api.SubjectStaff))
	{
		staff.GET("/me", handler.StaffMe)
	}

	// Customer authentication (phone + one-time code)
	user := router.Group("/user")
	{
		user.POST("/send-code", handler.UserSendCode)
		user.POST("/login", handler.UserLogin)

		protected := user.Group("")
		protected.Use(api.AuthMiddleware(api.SubjectUser))
		protected.POST("/register", handler.UserRegister)
	}

	// Role and permission administration (owner only)
	rbac := router.Group("/rbac")
	rbac.Use(api.AuthMiddleware(api.SubjectStaff))
	rbac.Use(handler.RequireStaffRoles("owner"))
	{
		rbac.GET("/roles", handler.ListRoles)
		rbac.POST("/roles", handler.CreateRole)
		rbac.GET("/roles/:code/permissions", handler.ListRolePermissions)
		rbac.POST("/roles/:code/permissions", handler.AttachRolePermission)
		rbac.DELETE("/roles/:code/permissions", handler.DetachRolePermission)
		rbac.GET("/staff/:id/roles", handler.GetStaffRoles)
		rbac.PUT("/staff/:id/roles", handler.SetStaffRoles)
		rbac.POST("/staff/:id/roles", handler.AddStaffRoles)
		rbac.DELETE("/staff/:id/roles", handler.RemoveStaffRoles)
	}

	// Catalog administration (owner/manager)
	catalog := router.Group("/catalog")
	catalog.Use(api.AuthMiddleware(api.SubjectStaff))
	catalog.Use(handler.RequireStaffRoles("owner", "manager"))
	{
		catalog.GET("/types", handler.ListProductTypes)
		catalog.POST("/types", handler.CreateProductType)
		catalog.DELETE("/types/:id", handler.DeleteProductType)

		catalog.GET("/products", handler.ListProducts)
		catalog.POST("/products", handler.CreateProduct)
		catalog.PATCH("/products/:id", handler.UpdateProduct)
		catalog.DELETE("/products/:id", handler.DeleteProduct)
		catalog.PUT("/products/:id/allergens", handler.SetProductAllergens)
		catalog.POST("/products/:id/modifiers/:modifier_id", handler.LinkModifierToProduct)
		catalog.DELETE("/products/:id/modifiers/:modifier_id", handler.UnlinkModifierFromProduct)

		catalog.GET("/modifiers", handler.ListModifiers)
		catalog.POST("/modifiers", handler.CreateModifier)
		catalog.PATCH("/modifiers/:id", handler.UpdateModifier)
		catalog.DELETE("/modifiers/:id", handler.DeleteModifier)
	}

	// Customer ordering surface: menu, cart, checkout, order history
	order := router.Group("/order")
	order.Use(api.AuthMiddleware(api.SubjectUser))
	{
		order.GET("/menu", handler.Menu)
		order.GET("/menu/products/:id", handler.MenuProduct)
		order.GET("/allergens", handler.GetUserAllergens)
		order.PUT("/allergens", handler.SetUserAllergens)

		order.GET("/cart", handler.GetCart)
		order.POST("/cart/items", handler.AddToCart)
		order.PATCH("/cart/items/:item_id", handler.UpdateCartItem)
		order.DELETE("/cart/items/:item_id", handler.RemoveCartItem)
		order.DELETE("/cart", handler.ClearCart)

		order.POST("/checkout", handler.Checkout)
		order.GET("/orders", handler.ListOrders)
		order.GET("/orders/:id", handler.GetOrder)
	}

	// Inventory and receiving. Reads are open to any authenticated staff;
	// writes require the inventory.write permission (granted to manager and
	// staff roles by default, owner via the wildcard).
	inventory := router.Group("/inventory")
	inventory.Use(api.AuthMiddleware(api.SubjectStaff))
	{
		inventory.GET("/units", handler.ListUnits)
		inventory.GET("/allergens", handler.ListAllergens)
		inventory.GET("/categories", handler.ListCategories)
		inventory.GET("/ingredients", handler.ListIngredients)
		inventory.GET("/ingredients/:name", handler.GetIngredient)
		inventory.GET("/prepped-items", handler.ListPreppedItems)
		inventory.GET("/prepped-items/:name", handler.GetPreppedItem)
		inventory.GET("/stock", handler.ListInventory)
		inventory.GET("/purchase-orders", handler.ListPurchaseOrders)
		inventory.GET("/purchase-orders/:code", handler.GetPurchaseOrder)

		writes := inventory.Group("")
		writes.Use(handler.RequireStaffPermissions("inventory.write"))
		{
			writes.POST("/units", handler.CreateUnits)
			writes.DELETE("/units/:name", handler.DeleteUnit)
			writes.POST("/allergens", handler.CreateAllergen)
			writes.POST("/categories", handler.CreateCategory)
			writes.DELETE("/categories/:name", handler.DeleteCategory)
			writes.POST("/ingredients", handler.CreateIngredients)
			writes.PATCH("/ingredients/:id", handler.UpdateIngredient)
			writes.DELETE("/ingredients/:name", handler.DeleteIngredient)
			writes.POST("/prepped-items", handler.CreatePreppedItem)
			writes.PATCH("/prepped-items/:name", handler.UpdatePreppedItem)
			writes.DELETE("/prepped-items/:name", handler.DeletePreppedItem)
			writes.POST("/stock", handler.CreateInventory)
			writes.PATCH("/stock/:id", handler.UpdateInventory)
			writes.POST("/purchase-orders", handler.CreatePurchaseOrder)
		}
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "dessert-pos",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}
