package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/api"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/auth"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/usecase"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/conf"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/data"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/observability"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/server"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	repos, cleanup, err := data.NewRepositories(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	if err := bootstrapStaff(cfg.Auth, repos.Staff, logger); err != nil {
		logger.Fatal("failed to bootstrap staff account", zap.Error(err))
	}

	entities := usecase.NewEntityUsecase(repos.Listings, repos.Tasks, repos.Realtors, repos.Intake, logger)
	intake := usecase.NewIntakeUsecase(repos.Classifier, repos.Intake, entities, repos.Notifier, logger)
	intakeService := service.NewIntakeService(cfg.Queue, intake, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	app := server.NewApp(server.RouteConfig{
		Webhook:   server.NewWebhookHandler(cfg.Slack, intakeService, logger),
		Intake:    api.NewIntakeHandler(repos.Intake, intakeService),
		Entities:  api.NewEntityHandler(repos.Listings, repos.Tasks),
		Directory: api.NewDirectoryHandler(repos.Realtors, repos.Staff, tokens),
		Tokens:    tokens,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	if err := intakeService.Shutdown(ctx); err != nil {
		logger.Warn("queue drain incomplete", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// bootstrapStaff seeds the first staff account on a fresh database so the
// REST API is reachable before anyone can log in to create accounts.
func bootstrapStaff(cfg conf.AuthConfig, staff repo.StaffRepo, logger *zap.Logger) error {
	if cfg.BootstrapEmail == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := staff.GetStaffByEmail(ctx, cfg.BootstrapEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	member := &domain.StaffMember{
		Name:  cfg.BootstrapName,
		Email: cfg.BootstrapEmail,
		Role:  "admin",
	}
	if _, err := staff.InsertStaff(ctx, member); err != nil {
		return err
	}
	logger.Info("seeded bootstrap staff account", zap.String("email", cfg.BootstrapEmail))
	return nil
}
