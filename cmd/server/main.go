package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"quickshop-support/internal/chat"
	"quickshop-support/internal/config"
	"quickshop-support/internal/database"
	"quickshop-support/internal/handlers"
	"quickshop-support/internal/logger"
	"quickshop-support/internal/metrics"
	"quickshop-support/internal/reply"
	"quickshop-support/internal/repository"
	"quickshop-support/internal/router"
	"quickshop-support/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().Str("env", cfg.Env).Msg("Starting QuickShop support backend")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// ──── Step 2: Metrics Registry ────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// ──── Step 3: Initialize Store ────
	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store = repository.NewMemoryStore()
		log.Warn().Msg("Using in-memory store; conversations are lost on restart")
	default:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("PostgreSQL connection failed")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		if err := database.RunMigrations(pool, database.Migrations(), log); err != nil {
			log.Fatal().Err(err).Msg("Database migration failed")
		}
		log.Info().Msg("Database migrations applied")

		store = repository.NewPostgresStore(pool)
	}

	// ──── Step 4: Initialize Redis Clients (optional) ────
	var (
		wsHub    *websocket.Hub
		coordOpt []chat.Option
	)
	coordOpt = append(coordOpt, chat.WithMetrics(m))
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClients.Close()
		log.Info().Msg("Redis connected")

		store = repository.NewCachedStore(store, redisClients.Cache, log)
		coordOpt = append(coordOpt, chat.WithNotifier(websocket.NewPublisher(redisClients.Cache)))

		wsHub = websocket.NewHub(redisClients.PubSub, cfg.CORSOrigin, log)
		defer wsHub.Close()
		log.Info().Msg("WebSocket hub started")
	} else {
		log.Info().Msg("REDIS_URL not set; history cache and live updates disabled")
	}

	// ──── Step 5: Initialize Reply Generator ────
	generator, err := reply.New(ctx, reply.Config{
		Provider:       cfg.LLMProvider,
		GeminiAPIKey:   cfg.GeminiAPIKey,
		GeminiModel:    cfg.GeminiModel,
		ConcurrentReqs: cfg.GeminiConcurrentReqs,
		MockDelay:      cfg.MockDelay,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Reply generator initialization failed")
	}
	if c, ok := generator.(io.Closer); ok {
		defer c.Close()
	}
	log.Info().Str("provider", generator.Name()).Msg("Reply generator ready")

	// ──── Step 6: Wire Coordinator and Handlers ────
	coordinator := chat.NewCoordinator(store, generator, log, coordOpt...)
	chatHandler := handlers.NewChatHandler(coordinator, log)
	healthHandler := handlers.NewHealthHandler(cfg.Env)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(chatHandler, healthHandler, wsHub, reg, m, log, cfg.CORSOrigin)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// A turn may wait up to 30s on the provider.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
		close(idle)
	}()

	log.Info().
		Str("api", fmt.Sprintf("http://localhost:%s/api", cfg.Port)).
		Str("health", fmt.Sprintf("http://localhost:%s/api/health", cfg.Port)).
		Msg("QuickShop support backend ready")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
	<-idle
}
