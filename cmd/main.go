package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"reply-scout/internal/approval"
	"reply-scout/internal/auth"
	"reply-scout/internal/bridge"
	"reply-scout/internal/config"
	"reply-scout/internal/database"
	"reply-scout/internal/handlers"
	"reply-scout/internal/limiter"
	"reply-scout/internal/ranker"
	"reply-scout/internal/scan"
	"reply-scout/internal/social"
	"reply-scout/internal/worker"
	"reply-scout/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Load database configuration
	dbConfig := database.LoadConfig()

	// Connect to database
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Collaborators: a bridge service when configured, log/no-op otherwise
	var (
		scanner     social.Scanner
		generator   social.Generator
		notifier    social.Notifier
		poster      social.Poster
		crossPoster social.CrossPoster
	)
	if bridgeURL := os.Getenv("BRIDGE_URL"); bridgeURL != "" {
		client := bridge.NewClient(bridgeURL, os.Getenv("BRIDGE_SECRET"))
		scanner, generator, notifier, poster, crossPoster = client, client, client, client, client
		log.Printf("Using bridge at %s", bridgeURL)
	} else {
		noop := bridge.NewNoop()
		scanner, generator, notifier, poster, crossPoster = noop, noop, noop, noop, nil
		log.Println("BRIDGE_URL not set; running with log-only collaborators")
	}

	// Core services
	gate := limiter.New(database.DB)
	rk := ranker.New(cfg.TopicKeywords)
	workflow := approval.New(database.DB, gate, poster, crossPoster, notifier)
	orchestrator := scan.New(scanner, generator, gate, rk, workflow, scan.Options{
		MinRelevance: cfg.MinRelevance,
		RankWindow:   cfg.RankWindow,
		TickCap:      cfg.TickCap,
	})

	// Initialize and start background workers
	cleanupWorker := workers.NewCleanupWorker(gate, workflow, workers.DefaultSweepInterval)
	workerService := worker.NewWorkerService(orchestrator, cleanupWorker, cfg)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	// Setup graceful shutdown
	setupGracefulShutdown(workerService)

	// Setup HTTP server
	setupServer(cfg, gate, workflow, orchestrator, notifier, workerService)
}

func setupGracefulShutdown(workerService *worker.WorkerService) {
	// Setup signal handling for graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		// Stop background workers
		workerService.Stop()

		// Close database connection
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(cfg *config.Config, gate *limiter.Gate, workflow *approval.Workflow, orchestrator *scan.Orchestrator, notifier social.Notifier, workerService *worker.WorkerService) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	r := gin.Default()

	// Operator token verification for the decision webhook
	var verifier auth.TokenVerifier
	if cfg.WebhookSecret != "" {
		verifier = auth.NewJWTManager(cfg.WebhookSecret)
	} else {
		log.Println("WEBHOOK_SECRET not set; webhook auth is mocked (development only)")
		verifier = auth.NewMockVerifier("operator")
	}

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(workflow, notifier, verifier)
	candidatesHandler := handlers.NewCandidatesHandler(workflow)
	statusHandler := handlers.NewStatusHandler(gate, workerService)
	adminHandler := handlers.NewAdminHandler(orchestrator, cfg.AdminPassword)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", statusHandler.HealthCheck)

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// Inbound decision events from the chat transport
	r.POST("/webhook/decision", webhookHandler.HandleDecision)

	// API routes
	api := r.Group("/api")
	{
		candidates := api.Group("/candidates")
		{
			candidates.GET("", candidatesHandler.ListCandidates)
			candidates.GET("/:id", candidatesHandler.GetCandidate)
		}

		api.GET("/scan/status", statusHandler.ScanStatus)
	}

	// Admin routes (password protected)
	admin := r.Group("/admin", adminHandler.AdminAuth())
	{
		admin.POST("/scan/:platform", adminHandler.TriggerScan)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
