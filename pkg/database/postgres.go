package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/matheusmosca/inventory-invoicing/pkg/config"
)

const connectAttempts = 30

// NewPool cria o pool de conexões e espera o banco ficar disponível
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < connectAttempts; i++ {
		if err := pool.Ping(ctx); err == nil {
			logrus.WithField("database", cfg.Name).Info("✅ Connected to database with connection pool")
			return pool, nil
		}
		logrus.Infof("⏳ Waiting for database... (%d/%d)", i+1, connectAttempts)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after %d attempts", connectAttempts)
}

// Open espera o banco pelo NewPool e só então aplica as migrações, quando habilitadas
func Open(ctx context.Context, cfg config.DatabaseConfig, migrations Migrations) (*pgxpool.Pool, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := MigrateUp(cfg.DSN(), migrations); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}
