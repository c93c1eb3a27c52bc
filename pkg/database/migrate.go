package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Migrations descreve o conjunto de migrações embutido em cada serviço.
// Table separa o controle de versão quando os dois serviços dividem o mesmo banco.
type Migrations struct {
	FS    fs.FS
	Dir   string
	Table string
}

// Migrator envolve o migrate.Migrate junto com a conexão database/sql que ele usa
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator abre uma conexão lib/pq dedicada às migrações
func NewMigrator(dsn string, migrations Migrations) (*Migrator, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{
		MigrationsTable: migrations.Table,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrate driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, migrations.Dir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open migrations source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{m: m}, nil
}

func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down desfaz `steps` migrações; steps <= 0 desfaz todas
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(-steps)
	} else {
		err = mg.m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (mg *Migrator) Close() {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil || dbErr != nil {
		logrus.WithFields(logrus.Fields{
			"source_error":   srcErr,
			"database_error": dbErr,
		}).Warn("failed to close migrator")
	}
}

// MigrateUp é o atalho usado na inicialização dos serviços
func MigrateUp(dsn string, migrations Migrations) error {
	mg, err := NewMigrator(dsn, migrations)
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		return err
	}

	version, dirty, err := mg.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"table":   migrations.Table,
		"version": version,
		"dirty":   dirty,
	}).Info("✅ Migrations applied")
	return nil
}
