package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ltnetwork/ltnetwork-api/config"
	"github.com/ltnetwork/ltnetwork-api/controllers"
	"github.com/ltnetwork/ltnetwork-api/middleware"
	"github.com/ltnetwork/ltnetwork-api/models"
	"github.com/ltnetwork/ltnetwork-api/services"
)

func main() {
	log.Println("Starting LT Network marketplace API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.Account{}, &models.Booking{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Dashboard counter cache; runs without Redis when REDIS_ADDR is unset
	services.InitStatsService(cfg.RedisAddr, cfg.StatsCacheTTL)

	// Booking photo storage is optional; the API runs without it
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		services.InitPhotoService(s3Service)
	} else {
		log.Println("AWS_S3_BUCKET not set, booking photo uploads disabled")
	}

	// Initialize Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	registerRoutes(router, cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// registerRoutes wires the API v1 surface
func registerRoutes(router *gin.Engine, cfg *config.Config) {
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Technician search is public: anyone can browse the directory
		v1.GET("/technicians", controllers.SearchTechnicians)
	}

	authed := v1.Group("")
	authed.Use(middleware.EnsureValidToken(cfg))
	{
		authed.POST("/accounts", controllers.EnsureAccount)
		authed.GET("/accounts/me", controllers.GetMyAccount)
		authed.PUT("/accounts/me", controllers.UpdateMyAccount)

		authed.POST("/bookings", controllers.CreateBooking)
		authed.GET("/bookings", controllers.ListMyBookings)
		authed.GET("/bookings/assigned", controllers.ListAssignedBookings)
		authed.POST("/bookings/:id/accept", controllers.AcceptBooking)
		authed.POST("/bookings/:id/decline", controllers.DeclineBooking)
		authed.POST("/bookings/:id/complete", controllers.CompleteBooking)
		authed.POST("/bookings/:id/cancel", controllers.CancelBooking)
		authed.POST("/bookings/:id/photo", controllers.UploadBookingPhoto)
		authed.GET("/bookings/:id/photo-url", controllers.GetBookingPhotoURL)

		admin := authed.Group("/admin")
		{
			admin.GET("/accounts", controllers.ListAccounts)
			admin.PUT("/accounts/:id/role", controllers.UpdateAccountRole)
			admin.DELETE("/accounts/:id", controllers.DeleteAccount)
			admin.GET("/bookings", controllers.ListAllBookings)
			admin.PUT("/bookings/:id/assign", controllers.AssignBookingTechnician)
			admin.DELETE("/bookings/:id", controllers.DeleteBooking)
			admin.GET("/stats", controllers.GetDashboardStats)
		}
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "LT Network API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
