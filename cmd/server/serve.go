package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"textdesk-backend/internal/config"
	"textdesk-backend/internal/database"
	"textdesk-backend/internal/handlers"
	"textdesk-backend/internal/i18n"
	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/prompts"
	"textdesk-backend/internal/repository"
	"textdesk-backend/internal/router"
	"textdesk-backend/internal/services"
	"textdesk-backend/internal/websocket"
)

// sweepInterval is how often idle client workspaces are looked for.
const sweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("Starting TextDesk backend")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	// ──── Step 2: Localization and Prompt Catalog ────
	catalog, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("load localization catalogs: %w", err)
	}
	if err := catalog.SetPreferred(cfg.DefaultLanguage); err != nil {
		logger.Warn("DEFAULT_LANGUAGE ignored", zap.String("language", cfg.DefaultLanguage), zap.Error(err))
	}
	templates, err := prompts.NewDefault(catalog)
	if err != nil {
		return fmt.Errorf("prompt catalog is invalid: %w", err)
	}
	logger.Info("Catalogs loaded",
		zap.Strings("languages", catalog.Languages()),
		zap.Int("templates", len(templates.Templates())),
	)

	// ──── Step 3: PostgreSQL ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}
	defer pool.Close()

	if _, err := database.RunMigrations(ctx, pool, cfg.MigrationsPath, logger); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("PostgreSQL connected, migrations applied")

	// ──── Step 4: Redis ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	defer redisClients.Close()
	logger.Info("Redis connected")

	// ──── Step 5: Gemini ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		float32(cfg.GeminiTemperature),
		cfg.GeminiConcurrentReqs,
		logger.Named("gemini"),
	)
	if err != nil {
		return fmt.Errorf("gemini client initialization failed: %w", err)
	}
	defer geminiService.Close()
	logger.Info("Gemini client initialized", zap.String("model", cfg.GeminiModel))

	// ──── Step 6: Services ────
	caps := services.ResolveCapabilities(cfg.SpeechTranscriptionEnabled, geminiService, services.NewFileExtractService())
	logger.Info("Capabilities resolved",
		zap.Bool("speech", caps.Speech.IsAvailable()),
		zap.Bool("document_import", caps.DocumentImport.IsAvailable()),
	)

	events := services.NewRedisPublisher(redisClients.Publish, logger.Named("events"))
	registry := services.NewSessionRegistry(geminiService, templates, catalog, events, cfg.SessionIdleTTL, logger.Named("sessions"))
	registry.Start(sweepInterval)
	defer registry.Stop()

	prefRepo := repository.NewPreferenceRepo(pool)
	clientAuth := middleware.NewClientAuth(cfg.ClientTokenSecret)

	clientLimiter := middleware.NewRateLimiter(10, time.Minute)
	modelLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	clientLimiter.StartCleanup()
	modelLimiter.StartCleanup()
	defer clientLimiter.Stop()
	defer modelLimiter.Stop()

	wsHub := websocket.NewHub(redisClients.PubSub, clientAuth, cfg.FrontendURL, logger.Named("ws"))
	defer wsHub.Shutdown()

	// ──── Step 7: HTTP Server ────
	r := router.New(router.Dependencies{
		ClientAuth:    clientAuth,
		ClientLimiter: clientLimiter,
		ModelLimiter:  modelLimiter,
		Clients:       handlers.NewClientHandler(clientAuth, logger),
		I18n:          handlers.NewI18nHandler(catalog),
		Capabilities:  handlers.NewCapabilityHandler(caps),
		Templates:     handlers.NewTemplateHandler(templates, catalog, prefRepo),
		Chat:          handlers.NewChatHandler(registry, catalog, prefRepo),
		Transform:     handlers.NewTransformHandler(registry, caps, catalog, prefRepo, logger),
		Speech:        handlers.NewSpeechHandler(caps, catalog, prefRepo, logger),
		Preferences:   handlers.NewPreferenceHandler(prefRepo, registry, catalog, logger),
		Hub:           wsHub,
		FrontendURL:   cfg.FrontendURL,
	})

	// Chat and transform requests wait for the model, so writes get a
	// generous timeout.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("TextDesk backend ready",
			zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)),
			zap.String("ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	return nil
}
