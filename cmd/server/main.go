package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"calmi-backend/internal/config"
	"calmi-backend/internal/database"
	"calmi-backend/internal/handlers"
	"calmi-backend/internal/middleware"
	"calmi-backend/internal/repository"
	"calmi-backend/internal/router"
	"calmi-backend/internal/services"
	"calmi-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Calmi Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")
	if cfg.ActiveAPIKey() == "" {
		log.Printf("! No %s API key configured; /api/ai-chat needs an X-HF-Key header", cfg.UpstreamProvider)
	}
	if cfg.PaystackSecretKey == "" {
		log.Println("! PAYSTACK_SECRET_KEY not set; payment routes will report a configuration error")
	}

	// ──── Step 2: Donation Ledger (optional) ────
	var donationRepo *repository.DonationRepo
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		donationRepo = repository.NewDonationRepo(pool)
	} else {
		log.Println("- DATABASE_URL not set; donations will only be logged")
	}

	// ──── Step 3: Payment Event Queue (optional) ────
	var queue *redis.Client
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer client.Close()
		queue = client
		log.Println("✓ Redis connected")
	} else {
		log.Println("- REDIS_URL not set; webhook events are processed inline")
	}

	// ──── Step 4: Text Generation Upstream ────
	var generator services.Generator
	switch cfg.UpstreamProvider {
	case config.ProviderGemini:
		generator = services.NewGeminiGenerator()
	default:
		generator = services.NewHuggingFaceGenerator(cfg.HuggingFaceBaseURL, cfg.UpstreamTimeout)
	}
	upstream := services.NewUpstreamCaller(generator, cfg.UpstreamTimeout, cfg.UpstreamRetryDelay)
	log.Printf("✓ Upstream provider: %s (default model %s)", cfg.UpstreamProvider, cfg.DefaultModel())

	// ──── Initialize Services ────
	replyService := services.NewReplyService(upstream, services.NewFallbackGenerator(nil), cfg.ActiveAPIKey(), cfg.DefaultModel())
	paystackClient := services.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.UpstreamTimeout)

	// A nil *DonationRepo inside the interface would not compare equal to nil.
	var donationService *services.DonationService
	if donationRepo != nil {
		donationService = services.NewDonationService(paystackClient, donationRepo, queue)
	} else {
		donationService = services.NewDonationService(paystackClient, nil, queue)
	}

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(replyService)
	configHandler := handlers.NewConfigHandler(cfg)
	var paystackHandler *handlers.PaystackHandler
	if donationRepo != nil {
		paystackHandler = handlers.NewPaystackHandler(donationService, donationRepo)
	} else {
		paystackHandler = handlers.NewPaystackHandler(donationService, nil)
	}

	// ──── Step 5: Start Payment Worker Pool ────
	var workerPool *worker.Pool
	if queue != nil {
		workerPool = worker.NewPool(queue, donationService, cfg.WorkerCount)
		workerPool.Start()
		log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)
	}

	// ──── Step 6: Start HTTP Server ────
	chatLimiter := middleware.NewRateLimiter(cfg.ChatRateLimitPerMinute, time.Minute)
	r := router.New(chatHandler, paystackHandler, configHandler, chatLimiter, cfg.FrontendURL)

	// WriteTimeout leaves room for two upstream attempts plus the retry delay.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.UpstreamTimeout + cfg.UpstreamRetryDelay + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		if workerPool != nil {
			workerPool.Stop()
		}
		chatLimiter.Stop()
	}()

	log.Printf("✓ Calmi Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-stopped
	log.Println("✓ Shutdown complete")
}
