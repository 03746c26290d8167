package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/archive"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/config"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/hub"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/registry"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/retry"
	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/runner"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("=== Fortuna Game Simulator v0 ===")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Context for game runners and websocket clients
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	// Connect to the results archive
	policy := retry.NewRetryPolicy(cfg.Archive.RetryMaxAttempts, cfg.Archive.RetryInitialDelay)
	store, err := archive.NewStore(cfg.Archive.DSN, policy)
	if err != nil {
		fmt.Printf("❌ Failed to connect to archive: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	schemaCtx, schemaCancel := context.WithTimeout(ctx, 10*time.Second)
	err = store.EnsureSchema(schemaCtx)
	schemaCancel()
	if err != nil {
		fmt.Printf("❌ Failed to prepare archive schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to archive DB")

	// Create hub
	h := hub.NewHub()
	go h.Run(ctx)

	// Sports and game orchestration
	reg := registry.New(cfg.Simulation.Sports...)
	for _, module := range reg.EnabledSports() {
		fmt.Printf("✓ Registered sport: %s (%s)\n", module.GetDisplayName(), module.GetSportKey())
	}

	redisCache := cache.NewRedisWriter(redisClient)
	orch := runner.NewOrchestrator(ctx, reg, runner.Sinks{
		Cache:     redisCache,
		Publisher: publisher.NewStreamPublisher(redisClient),
		Hub:       h,
		Archive:   store,
	}, runner.Options{
		PlayInterval:       cfg.Simulation.PlayInterval,
		MaxConcurrentGames: cfg.Simulation.MaxConcurrentGames,
	})

	// Initialize handlers
	handler := handlers.NewHandler(ctx, h, reg, orch, store)
	gamesHandler := handlers.NewGamesHandler(orch, redisCache, store, cfg.Simulation.Sports[0])

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", handler.HandleMetrics)
	r.Get("/ws", handler.HandleWebSocket)

	// API v1, timed out separately so websocket connections are not cut
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/teams", handler.GetTeams)

		// Live games
		r.Post("/games", gamesHandler.StartGame)
		r.Get("/games", gamesHandler.GetActiveGames)
		r.Get("/games/{game_id}", gamesHandler.GetGame)
		r.Delete("/games/{game_id}", gamesHandler.StopGame)
		r.Get("/games/{game_id}/boxscore", gamesHandler.GetBoxScore)
		r.Get("/games/{game_id}/plays", gamesHandler.GetPlays)

		// Archived results
		r.Get("/results", gamesHandler.GetResults)
		r.Get("/results/{game_id}", gamesHandler.GetResult)
	})

	// Start server
	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Game Simulator listening on %s\n", cfg.Server.Addr)
		fmt.Println("  Endpoints:")
		fmt.Println("    GET    /health")
		fmt.Println("    GET    /metrics")
		fmt.Println("    GET    /ws")
		fmt.Println("    GET    /api/v1/teams")
		fmt.Println("    POST   /api/v1/games")
		fmt.Println("    GET    /api/v1/games")
		fmt.Println("    GET    /api/v1/games/{game_id}")
		fmt.Println("    DELETE /api/v1/games/{game_id}")
		fmt.Println("    GET    /api/v1/games/{game_id}/boxscore")
		fmt.Println("    GET    /api/v1/games/{game_id}/plays")
		fmt.Println("    GET    /api/v1/results")
		fmt.Println("    GET    /api/v1/results/{game_id}")

		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)

		// Give outstanding requests a deadline for completion
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	// Stop live games; each runner records its stopped state before returning
	cancel()
	orch.Wait()

	fmt.Println("✓ Shutdown complete")
}
