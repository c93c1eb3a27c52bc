package products

import (
	"embed"

	"github.com/matheusmosca/inventory-invoicing/pkg/database"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations devolve o schema do serviço de produtos
func Migrations() database.Migrations {
	return database.Migrations{
		FS:    migrationFiles,
		Dir:   "migrations",
		Table: "schema_migrations_products",
	}
}
