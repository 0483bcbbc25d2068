package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chat-ops/chat-relay/internal/chat"
	"github.com/chat-ops/chat-relay/internal/config"
	"github.com/chat-ops/chat-relay/internal/dispatch"
	redisinfra "github.com/chat-ops/chat-relay/internal/infrastructure/redis"
	"github.com/chat-ops/chat-relay/internal/logger"
	"github.com/chat-ops/chat-relay/internal/security"
	"github.com/chat-ops/chat-relay/internal/service"
	"github.com/chat-ops/chat-relay/internal/transport/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}

	logger.Init()
	log := logger.Log.With().
		Str("service", "chat-relay").
		Str("env", cfg.AppEnv).
		Logger()

	// Root ctx with signal cancellation
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Chat platform client (built once, read-only afterwards) ----
	chatClient := chat.NewHTTPClient(cfg.ChatAPIBaseURL, cfg.ChatAPIToken, cfg.RequestTimeout)

	// ---- Engine dispatcher ----
	dispatcher := dispatch.New(cfg.EngineWebhookURL, cfg.MaxRetries, cfg.RetryDelay, cfg.RequestTimeout)
	if dispatcher.Enabled() {
		log.Info().Str("engine_url", cfg.EngineWebhookURL).Msg("engine dispatch enabled")
	} else {
		log.Info().Msg("no engine configured, running local echo fallback")
	}

	// ---- Pending store + sweeper (optional) ----
	var pending service.PendingStore
	if cfg.RedisAddr != "" {
		store := redisinfra.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		defer cancel()
		if err := store.Client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing)")
		} else {
			log.Info().Msg("redis connected")
		}
		pending = store

		sweeper := service.NewSweeper(chatClient, store, cfg.FallbackText, cfg.SweepAfter, cfg.SweepInterval)
		sweeper.Start(rootCtx)
		log.Info().
			Dur("after", cfg.SweepAfter).
			Dur("interval", cfg.SweepInterval).
			Msg("stale placeholder sweeper started")
	}

	// ---- Application service ----
	svc := service.NewRelayService(chatClient, dispatcher, pending, cfg.CallbackURL(), cfg.PlaceholderText, cfg.FallbackText)
	h := rest.NewHandler(svc)

	// ---- Inbound verification (optional) ----
	var verifier security.BearerVerifier
	if cfg.VerifySecret != "" {
		verifier = security.NewHS256Verifier(cfg.VerifySecret, cfg.VerifyIssuer, cfg.VerifyAudience)
		log.Info().Msg("inbound token verification enabled")
	}

	// ---- Router ----
	httpHandler := rest.NewRouter(rest.RouterDeps{
		Handler:          h,
		Verifier:         verifier,
		RateLimitEnabled: cfg.RLEnabled,
		RateLimit:        cfg.RLLimit,
		RateLimitWindow:  cfg.RLWindow,
	})

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	// Graceful shutdown: stop retry waits and drain in-flight dispatches.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	dispatcher.Shutdown()
	log.Info().Msg("shutdown complete")
}
