package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/inventory-invoicing/pkg/config"
	"github.com/matheusmosca/inventory-invoicing/pkg/database"
	"github.com/matheusmosca/inventory-invoicing/pkg/httpserver"
	"github.com/matheusmosca/inventory-invoicing/pkg/telemetry"
	"github.com/matheusmosca/inventory-invoicing/services/products"
)

func main() {
	cfg := config.Load(config.Defaults{
		ServiceName:  "products-service",
		Port:         "8080",
		DatabaseName: "products",
	})
	telemetry.InitLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	shutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.Telemetry)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize telemetry")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logrus.WithError(err).Error("Error shutting down telemetry")
		}
	}()

	pool, err := database.Open(ctx, cfg.Database, products.Migrations())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer pool.Close()

	tracer := otel.Tracer(cfg.ServiceName)

	repository := products.NewRepository(pool)
	suggestions := products.NewChatCompletionGateway(cfg.Suggestion)
	useCase := products.NewProductUseCase(repository, suggestions, tracer)
	handler := products.NewProductHandler(useCase, tracer)

	r := httpserver.NewEngine(cfg.ServiceName)
	products.RegisterRoutes(r, handler)

	logrus.WithField("port", cfg.HTTP.Port).Info("🚀 Products service starting")
	if err := httpserver.Run(ctx, r, cfg.HTTP); err != nil {
		logrus.WithError(err).Fatal("Failed to start server")
	}
	logrus.Info("👋 Products service stopped")
}
