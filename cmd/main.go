package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"affiliate-platform/internal/auth"
	"affiliate-platform/internal/config"
	"affiliate-platform/internal/database"
	"affiliate-platform/internal/fraud"
	"affiliate-platform/internal/handlers"
	"affiliate-platform/internal/notify"
	"affiliate-platform/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Rate limiter: shared Redis window when configured, process-local
	// otherwise.
	var limiter fraud.RateLimiter
	if cfg.Redis.Addr != "" {
		redisLimiter, err := fraud.NewRedisLimiter(cfg.Redis.Addr)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
		log.Printf("Using Redis rate limiter at %s", cfg.Redis.Addr)
	} else {
		limiter = fraud.NewWindowLimiter()
		log.Println("Using in-memory rate limiter")
	}

	// Notifications: SMTP when configured, log fallback otherwise.
	var notifier notify.Sender
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		log.Printf("Using SMTP notifications via %s", cfg.SMTP.Host)
	} else {
		notifier = notify.LogSender{}
		log.Println("SMTP not configured, logging notifications")
	}

	// Initialize services shared across handlers
	commissionService := services.NewCommissionService(db, notifier)
	reversalService := services.NewReversalService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db)
	trackingHandler := handlers.NewTrackingHandler(db, commissionService, limiter, cfg.App.CookieSecret)
	webhookHandler := handlers.NewWebhookHandler(commissionService, reversalService, cfg.App.WebhookSecret)
	linkHandler := handlers.NewLinkHandler(db, cfg.App.BaseURL)
	payoutHandler := handlers.NewPayoutHandler(db, notifier)
	analyticsHandler := handlers.NewAnalyticsHandler(db)
	adminHandler := handlers.NewAdminHandler(db, commissionService, notifier)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware for the dashboard frontend
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Public redirect endpoint
	router.GET("/r/:slug", trackingHandler.Redirect)

	// Public conversion pixel. The pixel is embedded on merchant pages, so
	// it gets its own wide-open CORS policy.
	pixel := router.Group("/api/track")
	pixel.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))
	{
		pixel.POST("/conversion", trackingHandler.TrackConversion)
	}

	// Payment provider webhooks (signature-checked, not JWT)
	router.POST("/api/webhooks/payment", webhookHandler.HandlePaymentEvent)

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Link endpoints
		api.POST("/links", linkHandler.CreateLink)
		api.GET("/links", linkHandler.GetLinks)
		api.PUT("/links/:id/status", linkHandler.UpdateLinkStatus)

		// Ledger endpoints
		api.GET("/commissions", adminHandler.GetCommissions)
		api.GET("/balance", payoutHandler.GetBalance)
		api.GET("/payouts", payoutHandler.GetPayouts)
		api.POST("/payouts", payoutHandler.RequestPayout)

		// Reporting endpoints
		api.GET("/analytics", analyticsHandler.GetAnalytics)
		api.GET("/leaderboard", analyticsHandler.GetLeaderboard)
		api.GET("/funnel", analyticsHandler.GetFunnel)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.RequireAdmin())
	{
		admin.GET("/stats", adminHandler.GetPlatformStats)
		admin.GET("/logs", adminHandler.GetAuditLogs)
		admin.GET("/fraud", adminHandler.GetFraudReport)

		// User management
		admin.GET("/users", adminHandler.GetAffiliates)
		admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
		admin.PUT("/users/:id/commission-rate", adminHandler.UpdateCommissionRate)

		// Ledger management
		admin.GET("/commissions", adminHandler.GetCommissions)
		admin.POST("/commissions/:id/approve", adminHandler.ApproveCommission)
		admin.POST("/commissions/:id/reject", adminHandler.RejectCommission)
		admin.PUT("/payouts/:id/status", adminHandler.UpdatePayoutStatus)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
