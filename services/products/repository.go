package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
	"github.com/matheusmosca/inventory-invoicing/pkg/database"
)

// Repository define a interface para operações de banco de dados de produtos
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// CodeInUse verifica se o código pertence a outro produto (excludeID = 0 verifica todos)
	CodeInUse(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, product *Product) error
	// Update substitui a linha inteira; devolve false quando nenhuma linha casou
	Update(ctx context.Context, product *Product, expectedVersion int) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListMovements(ctx context.Context, productID int64) ([]StockMovement, error)

	BeginTx(ctx context.Context) (Tx, error)
	GetByCodeForUpdate(ctx context.Context, tx Tx, code string) (*Product, error)
	// FindDebitByReference devolve o abatimento já gravado com essa referência, ou nil
	FindDebitByReference(ctx context.Context, tx Tx, reference string) (*StockMovement, error)
	DebitStock(ctx context.Context, tx Tx, productID int64, quantity int, reference string) (int, error)
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{
		db: db,
	}
}

const productColumns = `id, code, description, balance, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.Balance, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("product %d not found", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) CodeInUse(ctx context.Context, code string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE code = $1 AND id <> $2)",
		code, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) Create(ctx context.Context, product *Product) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (code, description, balance)
		VALUES ($1, $2, $3)
		RETURNING id, version, created_at, updated_at
	`, product.Code, product.Description, product.Balance).
		Scan(&product.ID, &product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Conflict("a product with code %s already exists", product.Code)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, product *Product, expectedVersion int) (bool, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET code = $2,
		    description = $3,
		    balance = $4,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND ($5::int = 0 OR version = $5::int)
		RETURNING version, created_at, updated_at
	`, product.ID, product.Code, product.Description, product.Balance, expectedVersion).
		Scan(&product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return false, nil
		}
		if database.IsUniqueViolation(err) {
			return false, apperrors.Conflict("another product with code %s already exists", product.Code)
		}
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, quantity, movement_type, COALESCE(reference, ''), created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]StockMovement, 0)
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Quantity, &m.MovementType, &m.Reference, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// BeginTx inicia uma nova transação
func (r *PostgresRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}

// GetByCodeForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresRepository) GetByCodeForUpdate(ctx context.Context, tx Tx, code string) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx

	p, err := scanProduct(pgTx.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE code = $1
		FOR UPDATE
	`, code))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("product %s not found", code)
		}
		return nil, fmt.Errorf("failed to get product for update: %w", err)
	}
	return p, nil
}

// FindDebitByReference busca o abatimento já processado com essa referência
func (r *PostgresRepository) FindDebitByReference(ctx context.Context, tx Tx, reference string) (*StockMovement, error) {
	pgTx := tx.(*PostgresTx).tx

	var m StockMovement
	err := pgTx.QueryRow(ctx, `
		SELECT id, product_id, quantity, movement_type, reference, created_at
		FROM stock_movements
		WHERE reference = $1 AND movement_type = $2
	`, reference, MovementTypeDebit).Scan(&m.ID, &m.ProductID, &m.Quantity, &m.MovementType, &m.Reference, &m.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check stock movement: %w", err)
	}
	return &m, nil
}

// DebitStock diminui o saldo e registra o movimento
func (r *PostgresRepository) DebitStock(ctx context.Context, tx Tx, productID int64, quantity int, reference string) (int, error) {
	pgTx := tx.(*PostgresTx).tx

	// 1. Atualiza o saldo do produto
	var newBalance int
	err := pgTx.QueryRow(ctx, `
		UPDATE products
		SET balance = balance - $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`, productID, quantity).Scan(&newBalance)
	if err != nil {
		if database.IsCheckViolation(err) {
			return 0, apperrors.BusinessRule("insufficient balance")
		}
		return 0, fmt.Errorf("failed to debit stock: %w", err)
	}

	// 2. Insere o registro de movimentação
	var ref any
	if reference != "" {
		ref = reference
	}
	_, err = pgTx.Exec(ctx, `
		INSERT INTO stock_movements (id, product_id, quantity, movement_type, reference)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), productID, quantity, MovementTypeDebit, ref)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, apperrors.Conflict("reference %s was already used by another debit", reference)
		}
		return 0, fmt.Errorf("failed to insert movement record: %w", err)
	}

	return newBalance, nil
}
