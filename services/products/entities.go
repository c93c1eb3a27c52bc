package products

import (
	"strings"
	"time"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// Product representa um produto do estoque
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	Balance     int       `json:"balance" db:"balance"`
	Version     int       `json:"version" db:"version"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product já validada
func NewProduct(code, description string, balance int) (*Product, error) {
	p := &Product{
		Code:        strings.TrimSpace(code),
		Description: strings.TrimSpace(description),
		Balance:     balance,
		Version:     1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate garante os invariantes do produto
func (p *Product) Validate() error {
	if p.Code == "" {
		return apperrors.Validation("code is required")
	}
	if p.Description == "" {
		return apperrors.Validation("description is required")
	}
	if p.Balance < 0 {
		return apperrors.Validation("balance cannot be negative")
	}
	return nil
}

// Debit abate a quantidade do saldo, nunca deixando-o negativo
func (p *Product) Debit(quantity int) error {
	if quantity < 1 {
		return apperrors.Validation("quantity must be at least 1")
	}
	if p.Balance < quantity {
		return apperrors.BusinessRule("insufficient balance for product %s: available %d, requested %d", p.Code, p.Balance, quantity)
	}
	p.Balance -= quantity
	return nil
}

// StockMovement representa uma movimentação de estoque
type StockMovement struct {
	ID           string    `json:"id" db:"id"`
	ProductID    int64     `json:"productId" db:"product_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	MovementType string    `json:"movementType" db:"movement_type"`
	Reference    string    `json:"reference,omitempty" db:"reference"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

const MovementTypeDebit = "debit"

// CreateProductInput é o payload de criação
type CreateProductInput struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description" binding:"required"`
	Balance     int    `json:"balance"`
}

// UpdateProductInput é a substituição completa da linha.
// Version > 0 ativa a checagem otimista contra a versão lida pelo cliente.
type UpdateProductInput struct {
	ID          int64  `json:"id"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description" binding:"required"`
	Balance     int    `json:"balance"`
	Version     int    `json:"version"`
}

// DebitStockInput é o contrato usado pelo serviço de faturamento
type DebitStockInput struct {
	ProductCode string `json:"productCode" binding:"required"`
	Quantity    int    `json:"quantity"`
	// Reference torna o abatimento idempotente quando informado
	Reference string `json:"reference,omitempty"`
}

type DebitStockResult struct {
	Message    string `json:"message"`
	NewBalance int    `json:"newBalance"`
	Replayed   bool   `json:"replayed,omitempty"`
}

type SuggestDescriptionInput struct {
	Prompt string `json:"prompt"`
}

type SuggestDescriptionResult struct {
	SuggestedDescription string `json:"suggestedDescription"`
}
