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
	"github.com/matheusmosca/inventory-invoicing/services/invoices"
)

func main() {
	cfg := config.Load(config.Defaults{
		ServiceName:  "invoices-service",
		Port:         "8081",
		DatabaseName: "invoices",
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

	pool, err := database.Open(ctx, cfg.Database, invoices.Migrations())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer pool.Close()

	tracer := otel.Tracer(cfg.ServiceName)

	repository := invoices.NewRepository(pool)
	stock := invoices.NewHTTPStockClient(cfg.ProductsServiceURL, cfg.ProductsClientTimeout)
	useCase := invoices.NewInvoiceUseCase(repository, stock, tracer)
	handler := invoices.NewInvoiceHandler(useCase, tracer)

	r := httpserver.NewEngine(cfg.ServiceName)
	invoices.RegisterRoutes(r, handler)

	logrus.WithFields(logrus.Fields{
		"port":         cfg.HTTP.Port,
		"products_url": cfg.ProductsServiceURL,
	}).Info("🚀 Invoices service starting")
	if err := httpserver.Run(ctx, r, cfg.HTTP); err != nil {
		logrus.WithError(err).Fatal("Failed to start server")
	}
	logrus.Info("👋 Invoices service stopped")
}
