// @title           Rachmat Marketplace API
// @version         1.0.0
// @description     Backend API for the Rachmat embroidery pattern marketplace. Designers upload pattern files, clients purchase them, admins review orders, and purchased files are delivered to the client's linked Telegram chat.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"
	"time"

	"rachmat-backend/internal/config"
	"rachmat-backend/internal/database"
	"rachmat-backend/internal/delivery"
	"rachmat-backend/internal/handlers"
	"rachmat-backend/internal/middleware"
	"rachmat-backend/internal/services"
	"rachmat-backend/internal/storage"
	"rachmat-backend/internal/telegram"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set. Database operations will be unavailable.")
	}

	// Initialize Telegram client
	telegramClient := telegram.NewClient(cfg.TelegramAPIBaseURL, cfg.TelegramBotToken)

	// Initialize file store
	store := storage.New(cfg.StorageRoot)

	// Create database client
	var dbClient *database.Client
	if cfg.DatabaseURL != "" {
		dbClient, err = database.NewClient(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database client: %v", err)
			log.Println("Database operations will be limited. Please configure DATABASE_URL properly.")
		} else {
			defer dbClient.Close()

			// Run migrations
			migrator := database.NewMigrator(dbClient.DB())
			if err := migrator.Run(); err != nil {
				log.Printf("Warning: Migration failed: %v", err)
			} else {
				log.Println("Migrations completed successfully")
			}
		}
	}

	// Delivery workflow
	validator := delivery.NewValidator(store)
	dispatcher := delivery.NewDispatcher(telegramClient, store, cfg.DeliveryMaxRetries, 2*time.Second)

	var completionService *services.CompletionService
	if dbClient != nil {
		completionService = services.NewCompletionService(dbClient, validator, dispatcher, cfg.DesignerCommissionRate)
	} else {
		log.Println("Warning: Completion service not available without a database.")
	}

	// Initialize handlers (dbClient might be nil, handlers handle this)
	ordersHandler := handlers.NewOrdersHandler(dbClient, completionService)
	patternsHandler := handlers.NewPatternsHandler(dbClient, store)
	designersHandler := handlers.NewDesignersHandler(dbClient)
	clientsHandler := handlers.NewClientsHandler(dbClient)

	// Setup router
	router := gin.Default()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Client routes
	api.POST("/orders", ordersHandler.CreateOrder)
	api.DELETE("/clients/me/telegram", clientsHandler.UnlinkTelegram)

	// Designer routes
	api.POST("/patterns", patternsHandler.CreatePattern)
	api.POST("/patterns/:pattern_id/files", patternsHandler.UploadPatternFile)
	api.GET("/designers/me/patterns", patternsHandler.ListMyPatterns)
	api.GET("/designers/me/earnings", designersHandler.GetMyEarnings)

	// Admin routes (order review and payouts)
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("/orders", ordersHandler.ListOrders)
	admin.GET("/orders/:order_id", ordersHandler.GetOrder)
	admin.PUT("/orders/:order_id/status", ordersHandler.UpdateStatus)
	admin.GET("/orders/:order_id/delivery-check", ordersHandler.DeliveryCheck)
	admin.POST("/designers/:designer_id/payouts", designersHandler.RecordPayout)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
