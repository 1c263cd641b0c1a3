package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/cuba-rates/internal/api/http"
	"github.com/i474232898/cuba-rates/internal/config"
	"github.com/i474232898/cuba-rates/internal/exchange"
	"github.com/i474232898/cuba-rates/internal/exchange/providers"
	"github.com/i474232898/cuba-rates/internal/logging"
	"github.com/i474232898/cuba-rates/internal/province"
	"github.com/i474232898/cuba-rates/internal/scheduler"
	"github.com/i474232898/cuba-rates/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logging.New("cuba-rates", cfg.LogProduction)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logr.Sync()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory quote cache with configured retention.
	quoteStore := store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheTTL)

	source := providers.NewElToqueProvider(httpClient, cfg.ElToqueToken, cfg.ElToqueBaseURL)

	extractor := province.NewVisionExtractor(province.VisionConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.OpenAIMaxTokens,
		ImageURL:  cfg.ProvinceImageURL,
		ImagePath: cfg.ProvinceImagePath,
	}, nil)

	estimator, err := province.NewEstimator(cfg.ProvinceStrategy, extractor, logr.Named("province"))
	if err != nil {
		logr.Fatal("failed to build province estimator", zap.Error(err))
	}

	// Core service orchestrating source, cache and estimator.
	service := exchange.NewService(source, quoteStore, estimator, exchange.ServiceConfig{
		CacheTTL:      cfg.CacheTTL,
		FetchTimeout:  cfg.HTTPTimeout,
		SameDayWindow: cfg.SameDayWindow,
	}, logr.Named("exchange"))

	// Scheduler that keeps the latest quote warm.
	sched := scheduler.New(cfg.RefreshInterval, service, logr.Named("scheduler"))
	if err := sched.Start(); err != nil {
		logr.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "cuba-rates",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "cuba-rates",
			"strategy": estimator.Name(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, extractor)

	go func() {
		logr.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Warn("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", zap.Error(err))
	}
}
