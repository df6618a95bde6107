package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_service/internal/account"
	"account_service/internal/config"
	deleteAccount "account_service/internal/http_server/handlers/delete_account"
	"account_service/internal/http_server/handlers/profile"
	resetAvailable "account_service/internal/http_server/handlers/reset_available"
	resetConfirm "account_service/internal/http_server/handlers/reset_confirm"
	resetRequest "account_service/internal/http_server/handlers/reset_request"
	statusReport "account_service/internal/http_server/handlers/status_report"
	updateAccount "account_service/internal/http_server/handlers/update_account"
	"account_service/internal/middleware/authn"
	rateLimit "account_service/internal/middleware/ratelimit"
	"account_service/internal/rabbitmq"
	"account_service/internal/reset"
	"account_service/internal/status"
	"account_service/internal/status/checks"
	"account_service/internal/storage/postgres"
	redisrepo "account_service/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting account service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	kv, err := redisrepo.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer kv.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	accountService := account.New(log, storage, storage, kv)
	resetService := reset.New(log, storage, storage, kv, msgBroker, cfg.HTTPServer.BaseURL, cfg.Tokens.ResetTokenTTL)

	registry := status.NewRegistry()
	registry.Register("scheduled_tasks", checks.NewTaskChecker())

	router := setupRouter(log, accountService, resetService, kv, storage, registry)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	accountService *account.Account,
	resetService *reset.Reset,
	kv *redisrepo.RedisRepo,
	storage *postgres.PostgresRepo,
	registry *status.Registry,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/account", func(r chi.Router) {
		r.Use(authn.New(log, kv))

		r.Get("/", profile.New(log, accountService))
		r.Patch("/", updateAccount.New(log, validate, accountService))
		r.Delete("/", deleteAccount.New(log, accountService))
	})

	r.Route("/reset", func(r chi.Router) {
		r.With(rateLimit.ResetRequest()).Post("/",
			resetRequest.New(log, validate, resetService),
		)
		r.Get("/{token}",
			resetAvailable.New(log, resetService),
		)
		r.With(rateLimit.ResetConfirm()).Post("/{token}",
			resetConfirm.New(log, validate, resetService),
		)
	})

	r.Get("/status",
		statusReport.New(log, storage, registry),
	)

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
