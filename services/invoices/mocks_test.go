package invoices

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// memRepository guarda as notas em memória para testes que não precisam de banco real
type memRepository struct {
	mu       sync.Mutex
	nextID   int64
	nextItem int64
	invoices map[int64]*Invoice
}

func newMemRepository() *memRepository {
	return &memRepository{invoices: make(map[int64]*Invoice)}
}

type memTx struct{}

func (memTx) Commit() error   { return nil }
func (memTx) Rollback() error { return nil }

func cloneInvoice(inv *Invoice) *Invoice {
	out := *inv
	out.Items = append([]InvoiceItem(nil), inv.Items...)
	return &out
}

func (r *memRepository) List(ctx context.Context) ([]Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Invoice, 0, len(r.invoices))
	for id := int64(1); id <= r.nextID; id++ {
		if inv, ok := r.invoices[id]; ok {
			out = append(out, *cloneInvoice(inv))
		}
	}
	return out, nil
}

func (r *memRepository) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.NotFound("invoice %d not found", id)
	}
	return cloneInvoice(inv), nil
}

func (r *memRepository) Create(ctx context.Context, invoice *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	invoice.ID = r.nextID
	invoice.SequentialNumber = invoice.ID
	invoice.Version = 1
	invoice.Items = r.assignItems(invoice.ID, invoice.Items)
	r.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *memRepository) assignItems(invoiceID int64, items []InvoiceItem) []InvoiceItem {
	out := make([]InvoiceItem, 0, len(items))
	for _, item := range items {
		r.nextItem++
		item.ID = r.nextItem
		item.InvoiceID = invoiceID
		out = append(out, item)
	}
	return out
}

func (r *memRepository) CloseIfUnchanged(ctx context.Context, id int64, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok || inv.Status != InvoiceStatusOpen || inv.Version != expectedVersion {
		return false, nil
	}
	inv.Status = InvoiceStatusClosed
	inv.Version++
	inv.UpdatedAt = time.Now()
	return true, nil
}

// close fecha a nota na versão corrente, simulando outra impressão concluída
func (r *memRepository) close(id int64) {
	r.mu.Lock()
	version := r.invoices[id].Version
	r.mu.Unlock()
	_, _ = r.CloseIfUnchanged(context.Background(), id, version)
}

func (r *memRepository) BeginTx(ctx context.Context) (Tx, error) {
	return memTx{}, nil
}

func (r *memRepository) GetByIDForUpdate(ctx context.Context, tx Tx, id int64) (*Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *memRepository) ReplaceItems(ctx context.Context, tx Tx, invoiceID int64, items []InvoiceItem) ([]InvoiceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperrors.NotFound("invoice %d not found", invoiceID)
	}
	inv.Items = r.assignItems(invoiceID, items)
	inv.Version++
	inv.UpdatedAt = time.Now()
	return append([]InvoiceItem(nil), inv.Items...), nil
}

func (r *memRepository) Delete(ctx context.Context, tx Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.invoices[id]; !ok {
		return apperrors.NotFound("invoice %d not found", id)
	}
	delete(r.invoices, id)
	return nil
}

// MockStockClient simula o serviço de produtos
type MockStockClient struct {
	mock.Mock
}

func (m *MockStockClient) DebitStock(ctx context.Context, req DebitStockRequest) (*DebitStockResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DebitStockResponse), args.Error(1)
}

// MockUseCase é usado pelos testes de handler
type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) List(ctx context.Context) ([]Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Invoice), args.Error(1)
}

func (m *MockUseCase) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invoice), args.Error(1)
}

func (m *MockUseCase) Create(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invoice), args.Error(1)
}

func (m *MockUseCase) Update(ctx context.Context, id int64, input InvoiceInput) (*Invoice, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invoice), args.Error(1)
}

func (m *MockUseCase) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUseCase) Print(ctx context.Context, id int64) (*PrintResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PrintResult), args.Error(1)
}
