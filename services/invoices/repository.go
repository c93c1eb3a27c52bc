package invoices

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
	"github.com/matheusmosca/inventory-invoicing/pkg/database"
)

// Repository define a interface para operações de banco de dados de notas fiscais
type Repository interface {
	List(ctx context.Context) ([]Invoice, error)
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	// Create grava a nota, depois define sequential_number = id, tudo na mesma transação
	Create(ctx context.Context, invoice *Invoice) error
	// CloseIfUnchanged faz a transição Open -> Closed somente se a nota ainda
	// estiver aberta e na versão informada; false quando nenhuma linha mudou
	CloseIfUnchanged(ctx context.Context, id int64, expectedVersion int) (bool, error)

	BeginTx(ctx context.Context) (Tx, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id int64) (*Invoice, error)
	ReplaceItems(ctx context.Context, tx Tx, invoiceID int64, items []InvoiceItem) ([]InvoiceItem, error)
	Delete(ctx context.Context, tx Tx, id int64) error
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

func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
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

func (r *PostgresRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}

// querier é satisfeito tanto pelo pool quanto por pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const invoiceColumns = `id, sequential_number, status, version, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	if err := row.Scan(&inv.ID, &inv.SequentialNumber, &inv.Status, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.Items = make([]InvoiceItem, 0)
	return &inv, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]Invoice, 0)
	index := make(map[int64]int)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		index[inv.ID] = len(invoices)
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	items, err := loadItems(ctx, r.db, `
		SELECT id, invoice_id, product_code, quantity
		FROM invoice_items
		ORDER BY invoice_id, position
	`)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if i, ok := index[item.InvoiceID]; ok {
			invoices[i].Items = append(invoices[i].Items, item)
		}
	}
	return invoices, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	return getInvoice(ctx, r.db, id, false)
}

// GetByIDForUpdate obtém a nota com lock pessimista (FOR UPDATE)
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, tx Tx, id int64) (*Invoice, error) {
	return getInvoice(ctx, tx.(*PostgresTx).tx, id, true)
}

func getInvoice(ctx context.Context, q querier, id int64, forUpdate bool) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	inv, err := scanInvoice(q.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("invoice %d not found", id)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := loadItems(ctx, q, `
		SELECT id, invoice_id, product_code, quantity
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func loadItems(ctx context.Context, q querier, query string, args ...any) ([]InvoiceItem, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	items := make([]InvoiceItem, 0)
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ProductCode, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, invoice *Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Insere a nota para obter o id
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (status)
		VALUES ($1)
		RETURNING id, version, created_at, updated_at
	`, string(invoice.Status)).Scan(&invoice.ID, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	// 2. A numeração sequencial é o próprio id
	_, err = tx.Exec(ctx, `UPDATE invoices SET sequential_number = id WHERE id = $1`, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to assign sequential number: %w", err)
	}
	invoice.SequentialNumber = invoice.ID

	// 3. Insere os itens
	items, err := insertItems(ctx, tx, invoice.ID, invoice.Items)
	if err != nil {
		return err
	}
	invoice.Items = items

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}
	return nil
}

// ReplaceItems apaga todos os itens, insere o novo conjunto e incrementa a versão
func (r *PostgresRepository) ReplaceItems(ctx context.Context, tx Tx, invoiceID int64, items []InvoiceItem) ([]InvoiceItem, error) {
	pgTx := tx.(*PostgresTx).tx

	if _, err := pgTx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to delete invoice items: %w", err)
	}
	if _, err := pgTx.Exec(ctx, `UPDATE invoices SET updated_at = NOW(), version = version + 1 WHERE id = $1`, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to touch invoice: %w", err)
	}
	return insertItems(ctx, pgTx, invoiceID, items)
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []InvoiceItem) ([]InvoiceItem, error) {
	saved := make([]InvoiceItem, 0, len(items))
	for pos, item := range items {
		item.InvoiceID = invoiceID
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, product_code, quantity, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, invoiceID, item.ProductCode, item.Quantity, pos).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice item: %w", err)
		}
		saved = append(saved, item)
	}
	return saved, nil
}

// Delete remove a nota; os itens caem por ON DELETE CASCADE
func (r *PostgresRepository) Delete(ctx context.Context, tx Tx, id int64) error {
	pgTx := tx.(*PostgresTx).tx

	tag, err := pgTx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("invoice %d not found", id)
	}
	return nil
}

func (r *PostgresRepository) CloseIfUnchanged(ctx context.Context, id int64, expectedVersion int) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND version = $4
	`, id, string(InvoiceStatusClosed), string(InvoiceStatusOpen), expectedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to close invoice: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
