package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/clinic-assistant/internal/api"
	"github.com/Rrens/clinic-assistant/internal/api/handler"
	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/Rrens/clinic-assistant/internal/llm/gemini"
	"github.com/Rrens/clinic-assistant/internal/logging"
	"github.com/Rrens/clinic-assistant/internal/repository"
	"github.com/Rrens/clinic-assistant/internal/repository/redis"
	"github.com/Rrens/clinic-assistant/internal/security"
	"github.com/Rrens/clinic-assistant/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logging.Setup(cfg.Logging, cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("env", cfg.Env).
		Msg("Starting clinic assistant API server")

	ctx := context.Background()

	// Storage is optional; without it the assistant still answers
	var (
		conversations domain.ConversationRepository
		operationLogs domain.OperationLogRepository
		storagePinger service.Pinger
	)
	store, err := repository.Open(ctx, cfg.Storage)
	switch {
	case err != nil:
		log.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("Storage unavailable, running without persistence")
	case store == nil:
		log.Warn().Msg("Storage disabled, conversations will not be persisted")
	default:
		defer store.Close()
		conversations, operationLogs, storagePinger = store, store, store
		log.Info().Str("driver", cfg.Storage.Driver).Msg("Storage connected")
	}

	// Rate limiting is optional as well
	var (
		rateLimiter  *redis.RateLimiter
		deps         api.Dependencies
		healthLimits service.Pinger
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("Redis unavailable, rate limiting disabled")
		} else {
			defer redisClient.Close()
			rateLimiter = redis.NewRateLimiter(redisClient, cfg.Redis.RateLimit.RequestsPerMinute, cfg.Redis.RateLimit.Burst)
			deps.RateLimiter = rateLimiter
			healthLimits = rateLimiter
		}
	}

	backend, err := gemini.NewBackend(ctx, cfg.LLM.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	defer backend.Close()
	if !backend.IsConfigured() {
		log.Warn().Msg("GEMINI_API_KEY is empty, chat requests will fail with a configuration error")
	}

	generator := llm.NewClient(backend,
		llm.WithMaxRetries(cfg.Chat.MaxRetries),
		llm.WithBaseDelay(cfg.Chat.RetryBaseDelay),
	)

	anonymizer, err := security.NewIPAnonymizer(cfg.Privacy.HashIPAddresses, cfg.Privacy.IPHashKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid privacy configuration")
	}

	recorder := service.NewRecorder(conversations, operationLogs, service.RecorderConfig{
		Retries:      cfg.Chat.PersistRetries,
		RetryDelay:   cfg.Chat.PersistRetryDelay,
		WriteTimeout: cfg.Chat.WriteTimeout,
	})
	chatService := service.NewChatService(security.NewRedFlagClassifier(cfg.Chat.RedFlags...), generator, recorder, service.ChatConfig{
		Timeout:    cfg.Chat.RequestTimeout,
		MaxHistory: cfg.Chat.MaxHistory,
	})
	healthService := service.NewHealthService(generator, storagePinger, healthLimits)

	deps.Chat = handler.NewChatHandler(chatService, recorder, anonymizer, handler.ChatHandlerConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Production:   cfg.IsProduction(),
	})
	deps.Health = handler.NewHealthHandler(healthService)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let detached persistence writes finish before the store closes
	recorder.Wait()

	log.Info().Msg("Server stopped")
}
