package products

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// memRepository guarda produtos e movimentos em memória para testes sem banco real.
// O lock global faz o papel do SELECT FOR UPDATE.
type memRepository struct {
	mu        sync.Mutex
	nextID    int64
	products  map[int64]*Product
	movements []StockMovement
}

func newMemRepository() *memRepository {
	return &memRepository{products: make(map[int64]*Product)}
}

type memTx struct{}

func (memTx) Commit() error   { return nil }
func (memTx) Rollback() error { return nil }

func (r *memRepository) List(ctx context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Product, 0, len(r.products))
	for id := int64(1); id <= r.nextID; id++ {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperrors.NotFound("product %d not found", id)
	}
	out := *p
	return &out, nil
}

func (r *memRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	return ok, nil
}

func (r *memRepository) CodeInUse(ctx context.Context, code string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.codeInUse(code, excludeID), nil
}

func (r *memRepository) codeInUse(code string, excludeID int64) bool {
	for id, p := range r.products {
		if id != excludeID && p.Code == code {
			return true
		}
	}
	return false
}

func (r *memRepository) Create(ctx context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// mesma regra da constraint products_code_key
	if r.codeInUse(product.Code, 0) {
		return apperrors.Conflict("a product with code %s already exists", product.Code)
	}
	r.nextID++
	product.ID = r.nextID
	product.Version = 1
	stored := *product
	r.products[product.ID] = &stored
	return nil
}

func (r *memRepository) Update(ctx context.Context, product *Product, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[product.ID]
	if !ok || (expectedVersion != 0 && current.Version != expectedVersion) {
		return false, nil
	}
	product.Version = current.Version + 1
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now()
	stored := *product
	r.products[product.ID] = &stored
	return true, nil
}

func (r *memRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *memRepository) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]StockMovement, 0)
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memRepository) BeginTx(ctx context.Context) (Tx, error) {
	return memTx{}, nil
}

func (r *memRepository) GetByCodeForUpdate(ctx context.Context, tx Tx, code string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Code == code {
			out := *p
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("product %s not found", code)
}

func (r *memRepository) FindDebitByReference(ctx context.Context, tx Tx, reference string) (*StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.movements {
		if m.Reference == reference && m.MovementType == MovementTypeDebit {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memRepository) DebitStock(ctx context.Context, tx Tx, productID int64, quantity int, reference string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return 0, apperrors.NotFound("product %d not found", productID)
	}
	if p.Balance < quantity {
		return 0, apperrors.BusinessRule("insufficient balance")
	}
	p.Balance -= quantity
	p.Version++
	r.movements = append(r.movements, StockMovement{
		ID:           uuid.NewString(),
		ProductID:    productID,
		Quantity:     quantity,
		MovementType: MovementTypeDebit,
		Reference:    reference,
		CreatedAt:    time.Now(),
	})
	return p.Balance, nil
}

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CodeInUse(ctx context.Context, code string, excludeID int64) (bool, error) {
	args := m.Called(ctx, code, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, product *Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockRepository) Update(ctx context.Context, product *Product, expectedVersion int) (bool, error) {
	args := m.Called(ctx, product, expectedVersion)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StockMovement), args.Error(1)
}

func (m *MockRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

func (m *MockRepository) GetByCodeForUpdate(ctx context.Context, tx Tx, code string) (*Product, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) FindDebitByReference(ctx context.Context, tx Tx, reference string) (*StockMovement, error) {
	args := m.Called(ctx, tx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StockMovement), args.Error(1)
}

func (m *MockRepository) DebitStock(ctx context.Context, tx Tx, productID int64, quantity int, reference string) (int, error) {
	args := m.Called(ctx, tx, productID, quantity, reference)
	return args.Int(0), args.Error(1)
}

// MockTx simula uma transação
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

type MockSuggestionGateway struct {
	mock.Mock
}

func (m *MockSuggestionGateway) Suggest(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockUseCase é usado pelos testes de handler
type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) List(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockUseCase) GetByID(ctx context.Context, id int64) (*Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockUseCase) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockUseCase) Update(ctx context.Context, id int64, input UpdateProductInput) (*Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockUseCase) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUseCase) DebitStock(ctx context.Context, input DebitStockInput) (*DebitStockResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DebitStockResult), args.Error(1)
}

func (m *MockUseCase) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StockMovement), args.Error(1)
}

func (m *MockUseCase) SuggestDescription(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
