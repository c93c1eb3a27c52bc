package products

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
	"github.com/matheusmosca/inventory-invoicing/pkg/database"
)

func TestNewRepository(t *testing.T) {
	// Arrange
	var db *pgxpool.Pool

	// Act
	repo := NewRepository(db)

	// Assert
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgresRepository{}, repo)
}

// newIntegrationRepository usa TEST_DATABASE_URL; sem ela o teste é ignorado
func newIntegrationRepository(t *testing.T) (Repository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.MigrateUp(dsn, Migrations()))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), "TRUNCATE stock_movements, products RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return NewRepository(pool), pool
}

func TestPostgresRepository_DebitStock(t *testing.T) {
	repo, _ := newIntegrationRepository(t)
	ctx := context.Background()

	product, err := NewProduct("X1", "Parafuso", 10)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, product))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	locked, err := repo.GetByCodeForUpdate(ctx, tx, "X1")
	require.NoError(t, err)
	balance, err := repo.DebitStock(ctx, tx, locked.ID, 4, "invoice-1-item-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 6, balance)

	stored, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Balance)

	movements, err := repo.ListMovements(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "invoice-1-item-1", movements[0].Reference)

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	previous, err := repo.FindDebitByReference(ctx, tx, "invoice-1-item-1")
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, product.ID, previous.ProductID)
	assert.Equal(t, 4, previous.Quantity)

	missing, err := repo.FindDebitByReference(ctx, tx, "invoice-9-item-9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostgresRepository_DebitStockRejectsReusedReference(t *testing.T) {
	repo, _ := newIntegrationRepository(t)
	ctx := context.Background()

	first, _ := NewProduct("X1", "Parafuso", 10)
	second, _ := NewProduct("X2", "Porca", 10)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	_, err = repo.DebitStock(ctx, tx, first.ID, 1, "invoice-1-item-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = repo.DebitStock(ctx, tx, second.ID, 1, "invoice-1-item-1")
	assert.True(t, apperrors.IsConflict(err))
}

func TestPostgresRepository_BalanceNeverNegative(t *testing.T) {
	repo, _ := newIntegrationRepository(t)
	ctx := context.Background()

	product, err := NewProduct("X1", "Parafuso", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, product))

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = repo.DebitStock(ctx, tx, product.ID, 2, "")
	assert.True(t, apperrors.IsBusinessRule(err))
}

func TestPostgresRepository_UniqueCode(t *testing.T) {
	repo, pool := newIntegrationRepository(t)
	ctx := context.Background()

	first, _ := NewProduct("X1", "Primeiro", 1)
	require.NoError(t, repo.Create(ctx, first))

	second, _ := NewProduct("X1", "Segundo", 1)
	assert.True(t, apperrors.IsConflict(repo.Create(ctx, second)))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE code = 'X1'`).Scan(&count))
	assert.Equal(t, 1, count)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Primeiro", stored.Description)
}

func TestPostgresRepository_UpdateVersionCheck(t *testing.T) {
	repo, _ := newIntegrationRepository(t)
	ctx := context.Background()

	product, _ := NewProduct("X1", "Parafuso", 1)
	require.NoError(t, repo.Create(ctx, product))
	staleVersion := product.Version

	product.Description = "Parafuso sextavado"
	updated, err := repo.Update(ctx, product, staleVersion)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.Update(ctx, product, staleVersion)
	require.NoError(t, err)
	assert.False(t, updated)

	deleted, err := repo.Delete(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, product.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
