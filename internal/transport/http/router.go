package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rainbowshop/backend/internal/handlers"
	mwauth "github.com/rainbowshop/backend/internal/middleware/auth"
	"github.com/rainbowshop/backend/internal/transport/response"
)

const apiVersion = "1.0.0"

type Deps struct {
	Gate           *mwauth.Gate
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	UploadDir      string
}

func Register(e *echo.Echo, d *Deps) {
	e.Static("/uploads", d.UploadDir)

	api := e.Group("/api")

	api.GET("/health", health)
	api.GET("/docs", docs)

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/admin/register", d.AuthHandler.RegisterAdmin, d.Gate.RequireAuth, d.Gate.RequireAdmin)

	auth.GET("/profile", d.AuthHandler.GetProfile, d.Gate.RequireAuth)
	auth.PUT("/profile", d.AuthHandler.UpdateProfile, d.Gate.RequireAuth)
	auth.PUT("/change-password", d.AuthHandler.ChangePassword, d.Gate.RequireAuth)
	auth.GET("/purchase-history", d.AuthHandler.PurchaseHistory, d.Gate.RequireAuth)

	users := auth.Group("/users", d.Gate.RequireAuth, d.Gate.RequireAdmin)
	users.GET("", d.AuthHandler.ListUsers)
	users.GET("/:userId", d.AuthHandler.GetUserByID)
	users.PUT("/:userId/block", d.AuthHandler.ToggleBlock)
	users.PUT("/:userId/role", d.AuthHandler.ChangeRole)
	users.DELETE("/:userId", d.AuthHandler.DeleteUser)

	products := api.Group("/products")
	// Static segments before /:id so search and featured don't shadow.
	products.GET("/search", d.ProductHandler.Search)
	products.GET("/featured", d.ProductHandler.ListFeatured)
	products.GET("/category/:category", d.ProductHandler.ListByCategory)
	products.GET("/slug/:slug", d.ProductHandler.GetBySlug)
	products.GET("", d.ProductHandler.List)
	products.GET("/:id", d.ProductHandler.GetByID)

	products.POST("/:id/reviews", d.ProductHandler.AddReview, d.Gate.RequireAuth)

	products.POST("", d.ProductHandler.Create, d.Gate.RequireAuth, d.Gate.RequireAdmin)
	products.PUT("/:id", d.ProductHandler.Update, d.Gate.RequireAuth, d.Gate.RequireAdmin)
	products.DELETE("/:id", d.ProductHandler.Delete, d.Gate.RequireAuth, d.Gate.RequireAdmin)
	products.GET("/stats/overview", d.ProductHandler.Stats, d.Gate.RequireAuth, d.Gate.RequireAdmin)
	products.PUT("/bulk/update", d.ProductHandler.BulkUpdate, d.Gate.RequireAuth, d.Gate.RequireAdmin)

	api.POST("/orders", d.OrderHandler.Checkout, d.Gate.RequireAuth)
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "RainbowShop API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   apiVersion,
	})
}

func docs(c echo.Context) error {
	return response.OK(c, http.StatusOK, "RainbowShop API Documentation", map[string]any{
		"auth": map[string]string{
			"register":        "POST /api/auth/register (name, email, password, age?, role?)",
			"registerAdmin":   "POST /api/auth/admin/register (name, email, password, age) (admin only)",
			"login":           "POST /api/auth/login",
			"profile":         "GET /api/auth/profile",
			"updateProfile":   "PUT /api/auth/profile (name?, email?, age?)",
			"changePassword":  "PUT /api/auth/change-password",
			"purchaseHistory": "GET /api/auth/purchase-history",
			"users":           "GET /api/auth/users (admin only)",
			"userById":        "GET /api/auth/users/:userId (admin only)",
			"toggleUserBlock": "PUT /api/auth/users/:userId/block (admin only)",
			"changeUserRole":  "PUT /api/auth/users/:userId/role (admin only)",
			"deleteUser":      "DELETE /api/auth/users/:userId (admin only)",
		},
		"products": map[string]string{
			"getAll":     "GET /api/products",
			"getById":    "GET /api/products/:id",
			"getBySlug":  "GET /api/products/slug/:slug",
			"create":     "POST /api/products (admin only, supports file upload)",
			"update":     "PUT /api/products/:id (admin only, supports file upload)",
			"delete":     "DELETE /api/products/:id (admin only)",
			"search":     "GET /api/products/search?q=query",
			"byCategory": "GET /api/products/category/:category",
			"featured":   "GET /api/products/featured",
			"addReview":  "POST /api/products/:id/reviews (auth required)",
			"stats":      "GET /api/products/stats/overview (admin only)",
			"bulkUpdate": "PUT /api/products/bulk/update (admin only)",
		},
		"orders": map[string]string{
			"checkout": "POST /api/orders (auth required)",
		},
		"health": "GET /api/health",
		"docs":   "GET /api/docs",
	})
}
