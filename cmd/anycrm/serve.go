package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/anycrm/internal/agent"
	"github.com/octobees/anycrm/internal/config"
	"github.com/octobees/anycrm/internal/database"
	"github.com/octobees/anycrm/internal/handler"
	middlewarepkg "github.com/octobees/anycrm/internal/middleware"
	"github.com/octobees/anycrm/internal/notify"
	"github.com/octobees/anycrm/internal/repository"
	"github.com/octobees/anycrm/internal/router"
	"github.com/octobees/anycrm/internal/service"
	"github.com/octobees/anycrm/internal/web"
)

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.SetDefault(logger)

	store, err := openSettings(cfg, cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}

	if migrate {
		version, err := database.Migrate(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("database migrated", "version", version)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := database.Connect(connectCtx, cfg.DatabaseURL, poolOptions(cfg))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	accountsRepo := repository.NewPGXAccountsRepository(pool)
	contactsRepo := repository.NewPGXContactsRepository(pool)

	normalizer := service.NewNormalizer(cfg.DefaultPhoneRegion)
	accountsService := service.NewAccountsService(accountsRepo, contactsRepo, normalizer)
	contactsService := service.NewContactsService(contactsRepo, normalizer)
	registry := notify.NewRegistry(logger)
	enrichmentService := service.NewEnrichmentService(accountsRepo, store, agent.NewClient(nil, cfg.AgentTimeout), registry, logger)

	renderer, err := web.LoadRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(middlewarepkg.Metrics(router.MetricsPath))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, store, router.Handlers{
		Accounts:      handler.NewAccountsHandler(accountsService),
		Contacts:      handler.NewContactsHandler(contactsService),
		Enrich:        handler.NewEnrichHandler(enrichmentService),
		Notifications: handler.NewNotificationsHandler(registry, logger),
		Web:           web.NewHandlers(accountsService, contactsService, store, logger),
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "settings", cfg.SettingsPath)
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	return nil
}
