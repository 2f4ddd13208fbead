package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/safebite/safebite-backend/internal/config"
	"github.com/safebite/safebite-backend/internal/handlers"
	"github.com/safebite/safebite-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	scanHandler *handlers.ScanHandler,
	allergenHandler *handlers.AllergenHandler,
	productHandler *handlers.ProductHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	emergencyHandler *handlers.EmergencyHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api/v1")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", handlers.Health)

	// Auth is public, with a stricter 10 req/min limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/resend-otp", authHandler.ResendOTP)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/users/me", middleware.JWTProtected(cfg), authHandler.GetProfile)
	api.Put("/users/me", middleware.JWTProtected(cfg), authHandler.UpdateProfile)

	// Allergens
	api.Get("/allergens", middleware.JWTProtected(cfg), allergenHandler.Catalog)
	api.Get("/users/me/allergens", middleware.JWTProtected(cfg), allergenHandler.Mine)
	api.Put("/users/me/allergens", middleware.JWTProtected(cfg), allergenHandler.Replace)

	// Products (resolve only, no scan recorded)
	api.Get("/products/barcode/:barcode", middleware.JWTProtected(cfg), productHandler.GetByBarcode)
	api.Get("/products/:productId", middleware.JWTProtected(cfg), productHandler.GetByID)

	// Scans
	scans := api.Group("/scans", middleware.JWTProtected(cfg))
	scans.Get("/limit", scanHandler.GetLimit)
	scans.Post("/limit/reset", scanHandler.ResetLimit)
	scans.Post("/barcode/:barcode", scanHandler.ScanBarcode)
	scans.Post("/image", scanHandler.ScanImage)
	scans.Post("/upload", scanHandler.ScanUpload)
	scans.Put("/:scanId/save", scanHandler.ToggleSave)
	scans.Get("/history", scanHandler.History)
	scans.Post("/list", scanHandler.SetListPreference)

	// Subscriptions
	api.Get("/subscriptions/plans", middleware.JWTProtected(cfg), subscriptionHandler.Plans)
	api.Post("/subscriptions", middleware.JWTProtected(cfg), subscriptionHandler.Subscribe)
	api.Get("/subscriptions/current", middleware.JWTProtected(cfg), subscriptionHandler.Current)
	api.Delete("/subscriptions/current", middleware.JWTProtected(cfg), subscriptionHandler.Cancel)

	// Emergency contact
	api.Get("/users/me/emergency-contact", middleware.JWTProtected(cfg), emergencyHandler.Get)
	api.Put("/users/me/emergency-contact", middleware.JWTProtected(cfg), emergencyHandler.Upsert)
	api.Delete("/users/me/emergency-contact", middleware.JWTProtected(cfg), emergencyHandler.Delete)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/users", adminHandler.ListUsers)
	admin.Delete("/users/:userId", adminHandler.DeleteUser)
	admin.Put("/users/:userId/role", adminHandler.UpdateRole)
	admin.Get("/tier-plans", adminHandler.ListTierPlans)
	admin.Post("/tier-plans", adminHandler.CreateTierPlan)
	admin.Put("/tier-plans/:planId", adminHandler.UpdateTierPlan)
	admin.Get("/logs", adminHandler.ListLogs)
}
