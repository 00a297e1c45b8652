// server is the suggestion backend binary: it wires the stores, the
// completion client and the suggestion pipeline behind the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"habitquest/internal/ai"
	"habitquest/internal/api"
	"habitquest/internal/config"
	"habitquest/internal/logging"
	"habitquest/internal/retry"
	"habitquest/internal/storage"
	"habitquest/internal/suggest"
)

func main() {
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level))

	users, err := buildUserStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize user store: %v", err)
	}
	defer func() {
		_ = users.Close()
	}()

	catalog, err := storage.NewSQLiteCatalogStore(cfg.Store.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer func() {
		_ = catalog.Close()
	}()

	client, err := ai.NewOpenAIClient(cfg.Completion)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}

	aggregator := suggest.NewAggregator(users, catalog, logger)
	requester := suggest.NewRequester(client, cfg.Completion.Temperature,
		cfg.Completion.MaxTokens, cfg.Suggest.MaxAttempts, logger)
	fallback := suggest.NewFallbackEngine()
	rerolls := suggest.NewRerollLedger(users, cfg.Suggest.RerollReward, logger)
	service := suggest.NewService(aggregator, requester, fallback, rerolls, users, catalog, logger)

	router := api.NewRouter(service, users, catalog, logger)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      router.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", listenAddr, "store", cfg.Store.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// buildUserStore selects the configured user store and wraps it with the
// transient-failure retry decorator.
func buildUserStore(cfg *config.Config) (storage.UserStore, error) {
	var store storage.UserStore
	switch cfg.Store.Provider {
	case "redis":
		redisStore, err := storage.NewRedisUserStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case "memory":
		store = storage.NewMemoryUserStore()
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Store.RetryAttempts
	return storage.NewRetryableUserStore(store, retryCfg), nil
}
