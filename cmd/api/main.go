package main

import (
	"fmt"
	"log"

	"fleet-tracking-api/config"
	"fleet-tracking-api/handlers"
	"fleet-tracking-api/middleware"
	"fleet-tracking-api/models"
	"fleet-tracking-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Bus{},
		&models.Route{},
		&models.BusLocation{},
		&models.PredictionRecord{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis cache + pub/sub
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, running without cache: %v", err)
	}
	defer cache.Close()

	authService := services.NewAuthService(cfg.JWT)
	predictionService := services.NewPredictionService(db, cache, cfg.Prediction)

	authHandler := handlers.NewAuthHandler(db, authService)
	busHandler := handlers.NewBusHandler(db, cache)
	routeHandler := handlers.NewRouteHandler(db, cache)
	locationHandler := handlers.NewLocationHandler(db, cache)
	predictionHandler := handlers.NewPredictionHandler(db, cache, predictionService)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Fleet Tracking API is running",
		})
	})

	router.GET("/ws/live", handlers.LiveWebSocket(cache, authService))

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(authService))

	authed.PUT("/users/:id/role", middleware.RequireRole(models.RoleAdmin), authHandler.UpdateRole)

	authed.GET("/buses", busHandler.List)
	authed.GET("/buses/:id", busHandler.Get)
	authed.POST("/buses", middleware.RequireRole(models.RoleAdmin), busHandler.Create)
	authed.PUT("/buses/:id", middleware.RequireRole(models.RoleAdmin), busHandler.Update)
	authed.DELETE("/buses/:id", middleware.RequireRole(models.RoleAdmin), busHandler.Delete)

	authed.GET("/routes", routeHandler.List)
	authed.GET("/routes/:id", routeHandler.Get)
	authed.POST("/routes", middleware.RequireRole(models.RoleAdmin), routeHandler.Create)
	authed.PUT("/routes/:id", middleware.RequireRole(models.RoleAdmin), routeHandler.Update)
	authed.DELETE("/routes/:id", middleware.RequireRole(models.RoleAdmin), routeHandler.Delete)

	authed.POST("/locations", middleware.RequireRole(models.RoleDriver, models.RoleAdmin), locationHandler.Report)
	authed.GET("/locations/:busId/latest", locationHandler.Latest)
	authed.GET("/locations/:busId", locationHandler.History)

	authed.POST("/predictions", middleware.RequireRole(models.RoleDriver, models.RoleAdmin), predictionHandler.Generate)
	authed.PUT("/predictions/:id/actual", middleware.RequireRole(models.RoleDriver, models.RoleAdmin), predictionHandler.ReportActual)
	authed.GET("/predictions", predictionHandler.List)
	authed.GET("/predictions/next", predictionHandler.NextArrivals)
	authed.GET("/analytics/accuracy", predictionHandler.Accuracy)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
