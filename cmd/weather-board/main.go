package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-board/internal/api/http"
	"github.com/i474232898/weather-board/internal/config"
	"github.com/i474232898/weather-board/internal/logger"
	"github.com/i474232898/weather-board/internal/publisher"
	"github.com/i474232898/weather-board/internal/scheduler"
	"github.com/i474232898/weather-board/internal/store"
	"github.com/i474232898/weather-board/internal/weather"
	"github.com/i474232898/weather-board/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("app", cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.OpenMeteo.HTTPTimeout,
	}

	provider := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoOptions{
		BaseURL:    cfg.OpenMeteo.BaseURL,
		Timezone:   cfg.OpenMeteo.Timezone,
		MaxRetries: cfg.OpenMeteo.MaxRetries,
	})

	// Observable state shared by the fetcher, the API and the MQTT mirror.
	states := store.NewMemoryStore()
	service := weather.NewService(states, provider, cfg.Locations, appLog)

	if cfg.MQTT.Broker != "" {
		mirror := publisher.NewMQTTPublisher(cfg.MQTT, appLog)
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := mirror.Connect(connectCtx)
		cancel()
		if err != nil {
			appLog.WithError(err).Warnf("mqtt mirror disabled")
			mirror.Close()
		} else {
			defer mirror.Close()
			go mirror.Run(ctx, states)
		}
	}

	// The process itself is the consumer: attached for its whole lifetime.
	sched := scheduler.New(service, cfg.RefreshInterval(), cfg.CycleTimeout, appLog)
	if err := sched.Attach(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Detach()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": cfg.App.Name,
		})
	})

	httpapi.RegisterRoutes(app, states)

	go func() {
		appLog.Infof("listening on :%s", cfg.App.Port)
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			appLog.WithError(err).Errorf("fiber server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.WithError(err).Errorf("error during shutdown")
	}
}
