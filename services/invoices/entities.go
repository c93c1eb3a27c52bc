package invoices

import (
	"strings"
	"time"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// InvoiceStatus representa o estado de uma nota fiscal
type InvoiceStatus string

const (
	InvoiceStatusOpen   InvoiceStatus = "Open"
	InvoiceStatusClosed InvoiceStatus = "Closed"
)

// Invoice representa uma nota fiscal e seus itens
type Invoice struct {
	ID               int64         `json:"id" db:"id"`
	SequentialNumber int64         `json:"sequentialNumber" db:"sequential_number"`
	Status           InvoiceStatus `json:"status" db:"status"`
	Items            []InvoiceItem `json:"items"`
	// Version muda a cada substituição de itens; o fechamento exige a versão lida
	Version          int           `json:"version" db:"version"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`
}

// InvoiceItem é uma linha da nota: o produto é referenciado apenas pelo código
type InvoiceItem struct {
	ID          int64  `json:"id" db:"id"`
	InvoiceID   int64  `json:"invoiceId" db:"invoice_id"`
	ProductCode string `json:"productCode" db:"product_code"`
	Quantity    int    `json:"quantity" db:"quantity"`
}

// NewInvoice cria uma nota aberta com os itens informados
func NewInvoice(items []ItemInput) (*Invoice, error) {
	lines, err := buildItems(items)
	if err != nil {
		return nil, err
	}
	return &Invoice{
		Status:    InvoiceStatusOpen,
		Items:     lines,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusOpen
}

// EnsureOpen rejeita qualquer alteração em nota fechada
func (i *Invoice) EnsureOpen(action string) error {
	if !i.IsOpen() {
		return apperrors.BusinessRule("invoice %d is already closed and cannot be %s", i.ID, action)
	}
	return nil
}

// ItemInput é a linha recebida na criação ou atualização
type ItemInput struct {
	ProductCode string `json:"productCode"`
	Quantity    int    `json:"quantity"`
}

// InvoiceInput é o payload de criação e atualização
type InvoiceInput struct {
	Items []ItemInput `json:"items"`
}

// PrintResult é a resposta de sucesso da impressão
type PrintResult struct {
	Message string   `json:"message"`
	Invoice *Invoice `json:"invoice"`
}

func buildItems(items []ItemInput) ([]InvoiceItem, error) {
	if len(items) == 0 {
		return nil, apperrors.Validation("invoice must have at least one item")
	}

	lines := make([]InvoiceItem, 0, len(items))
	for idx, item := range items {
		code := strings.TrimSpace(item.ProductCode)
		if code == "" {
			return nil, apperrors.Validation("item %d: productCode is required", idx+1)
		}
		if item.Quantity < 1 {
			return nil, apperrors.Validation("item %d: quantity must be at least 1", idx+1)
		}
		lines = append(lines, InvoiceItem{ProductCode: code, Quantity: item.Quantity})
	}
	return lines, nil
}
