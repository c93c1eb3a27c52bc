package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/matheusmosca/inventory-invoicing/pkg/config"
	"github.com/matheusmosca/inventory-invoicing/pkg/database"
	"github.com/matheusmosca/inventory-invoicing/pkg/telemetry"
	"github.com/matheusmosca/inventory-invoicing/services/invoices"
	"github.com/matheusmosca/inventory-invoicing/services/products"
)

func main() {
	service := flag.String("service", "", "Service name: products or invoices")
	action := flag.String("action", "up", "Migration action: up, down, or version")
	steps := flag.Int("steps", 0, "Number of migrations to roll back (for down); 0 rolls back all")
	flag.Parse()

	var (
		migrations database.Migrations
		defaults   config.Defaults
	)
	switch *service {
	case "products":
		migrations = products.Migrations()
		defaults = config.Defaults{ServiceName: "products-migrate", DatabaseName: "products"}
	case "invoices":
		migrations = invoices.Migrations()
		defaults = config.Defaults{ServiceName: "invoices-migrate", DatabaseName: "invoices"}
	default:
		logrus.Fatal("Please specify -service flag (products or invoices)")
	}

	cfg := config.Load(defaults)
	telemetry.InitLogger(cfg.ServiceName, cfg.LogLevel)

	mg, err := database.NewMigrator(cfg.Database.DSN(), migrations)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create migrator")
	}
	defer mg.Close()

	log := logrus.WithFields(logrus.Fields{
		"service":  *service,
		"database": cfg.Database.Name,
		"action":   *action,
	})

	switch *action {
	case "up":
		if err := mg.Up(); err != nil {
			log.WithError(err).Fatal("Migration up failed")
		}
		log.Info("✅ Migrations applied successfully")

	case "down":
		if err := mg.Down(*steps); err != nil {
			log.WithError(err).Fatal("Migration down failed")
		}
		log.WithField("steps", *steps).Info("✅ Migrations rolled back successfully")

	case "version":
		version, dirty, err := mg.Version()
		if err != nil {
			log.WithError(err).Fatal("Failed to get version")
		}
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current migration version")

	default:
		log.Fatalf("Unknown action: %s (use up, down, or version)", *action)
	}
}
