package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"plangate/internal/caching"
	"plangate/internal/handlers"
	"plangate/internal/jobs/background"
	"plangate/internal/middleware"
	"plangate/internal/repositories"
	"plangate/internal/services"
	"plangate/pkg/database"

	"github.com/labstack/echo/v4"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDBStr := os.Getenv("REDIS_DB")
	redisDB := 0 // Default DB
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	// Initialize receipt storage
	receiptSvc, err := services.NewReceiptService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize receipt storage: %v", err)
	}

	// Create repositories
	planRepo := repositories.NewPlanRepository(pool)
	orgRepo := repositories.NewOrganizationRepository(pool)
	memberRepo := repositories.NewMemberRepository(pool)
	subscriptionRepo := repositories.NewSubscriptionRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	upgradeRepo := repositories.NewUpgradeRequestRepository(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	notifier := services.NewNotificationService(redisAddr, redisPassword, redisDB)
	planSvc := services.NewPlanService(planRepo, cacheSvc)
	orgSvc := services.NewOrganizationService(orgRepo, memberRepo, planRepo, pool, cacheSvc)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, planRepo, paymentRepo, pool, notifier)
	paymentSvc := services.NewPaymentService(paymentRepo, subscriptionRepo, pool)
	upgradeSvc := services.NewUpgradeService(upgradeRepo, subscriptionRepo, planRepo, paymentRepo, orgRepo, memberRepo, pool, cacheSvc, notifier)

	accessSvc := services.NewAccessService(services.AccessConfig{
		AlwaysAllowedModules: []string{"health", "auth"},
		BillingModules:       []string{"billing", "settings"},
		BillingRedirect:      "/billing/upgrade",
		SupportContact:       "support@plangate.io",
	})

	// Middleware
	accessMiddleware := middleware.NewAccessMiddleware(accessSvc, subscriptionSvc, orgSvc, cacheSvc)

	// Create handlers
	healthHandlers := handlers.NewHealthHandlers(pool)
	planHandlers := handlers.NewPlanHandlers(planSvc)
	orgHandlers := handlers.NewOrganizationHandlers(orgSvc, subscriptionSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	upgradeHandlers := handlers.NewUpgradeHandlers(upgradeSvc)
	paymentHandlers := handlers.NewPaymentHandlers(paymentSvc, receiptSvc)

	// Background jobs
	scheduler := background.NewJobScheduler(subscriptionSvc, upgradeSvc, paymentSvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() { _ = scheduler.Stop() }()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.Health)
	e.GET("/health/ready", healthHandlers.Ready)
	e.GET("/health/detailed", healthHandlers.Detailed)

	// API routes
	v1 := e.Group("/v1")

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))
	protected.Use(middleware.LoadMember(memberRepo))

	// Plan catalog: reads for everyone, writes for platform operators
	protected.GET("/plans", planHandlers.ListPlans)
	protected.GET("/plans/:id", planHandlers.GetPlan)
	operatorPlans := protected.Group("/plans", middleware.RequireOperator())
	operatorPlans.POST("", planHandlers.CreatePlan)
	operatorPlans.PUT("/:id", planHandlers.UpdatePlan)
	operatorPlans.DELETE("/:id", planHandlers.DeactivatePlan)

	// Organization and membership routes
	protected.POST("/organizations", orgHandlers.CreateOrganization)
	protected.GET("/organizations", orgHandlers.ListOrganizations, middleware.RequireOperator())
	protected.GET("/organizations/:id", orgHandlers.GetOrganization)
	protected.GET("/organizations/:id/quota", orgHandlers.GetQuota)
	protected.GET("/organizations/:id/members", orgHandlers.ListMembers)
	protected.POST("/organizations/:id/members", orgHandlers.CreateMember, accessMiddleware.Require("members"))
	protected.POST("/organizations/:id/members/:member_id/activate", orgHandlers.ReactivateMember, accessMiddleware.Require("members"))
	protected.POST("/organizations/:id/members/:member_id/deactivate", orgHandlers.DeactivateMember)
	protected.POST("/members/:member_id/transfer", orgHandlers.TransferMember, middleware.RequireOperator())

	// Subscription routes
	protected.GET("/subscription", subscriptionHandlers.GetCurrent)
	protected.POST("/subscription/refresh", subscriptionHandlers.Refresh)
	protected.GET("/subscriptions/transitions", subscriptionHandlers.DryRun, middleware.RequireOperator())
	protected.POST("/subscriptions/sweep", subscriptionHandlers.Sweep, middleware.RequireOperator())

	// Upgrade workflow
	protected.POST("/upgrades", upgradeHandlers.Submit, accessMiddleware.Require("billing"))
	protected.GET("/upgrades", upgradeHandlers.List)
	protected.GET("/upgrades/pending", upgradeHandlers.ListPending, middleware.RequireOperator())
	protected.GET("/upgrades/:id", upgradeHandlers.Get)
	protected.POST("/upgrades/:id/approve", upgradeHandlers.Approve, middleware.RequireOperator())
	protected.POST("/upgrades/:id/complete", upgradeHandlers.Complete, middleware.RequireOperator())
	protected.POST("/upgrades/:id/reject", upgradeHandlers.Reject, middleware.RequireOperator())
	protected.POST("/upgrades/:id/cancel", upgradeHandlers.Cancel)

	// Payment ledger (operator surfaces)
	operatorPayments := protected.Group("/payments", middleware.RequireOperator())
	operatorPayments.POST("", paymentHandlers.RecordManual)
	operatorPayments.POST("/receipts", paymentHandlers.UploadReceipt)
	operatorPayments.GET("/receipts/url", paymentHandlers.GetReceiptURL)
	operatorPayments.GET("/duplicates", paymentHandlers.ListDuplicates)
	operatorPayments.POST("/reconcile", paymentHandlers.ReconcileDuplicates)
	protected.GET("/subscriptions/:id/payments", paymentHandlers.ListBySubscription)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Plangate server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
