package products

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// ProductUseCase contém a lógica de negócio do estoque
type ProductUseCase struct {
	repository  Repository
	suggestions SuggestionGateway
	tracer      trace.Tracer
	debits      metric.Int64Counter
}

// NewProductUseCase cria uma nova instância de ProductUseCase
func NewProductUseCase(
	repository Repository,
	suggestions SuggestionGateway,
	tracer trace.Tracer,
) *ProductUseCase {
	debits, err := otel.Meter("products-service").Int64Counter(
		"stock_debits_total",
		metric.WithDescription("Stock debit attempts by outcome"),
	)
	if err != nil {
		logrus.WithError(err).Warn("failed to create stock_debits_total counter")
	}

	return &ProductUseCase{
		repository:  repository,
		suggestions: suggestions,
		tracer:      tracer,
		debits:      debits,
	}
}

func (uc *ProductUseCase) List(ctx context.Context) ([]Product, error) {
	products, err := uc.repository.List(ctx)
	if err != nil {
		return nil, internal("failed to list products", err)
	}
	return products, nil
}

func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*Product, error) {
	product, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, internal("failed to get product", err)
	}
	return product, nil
}

// Create cadastra um novo produto; o código deve ser único
func (uc *ProductUseCase) Create(ctx context.Context, input CreateProductInput) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "products.create")
	defer span.End()

	product, err := NewProduct(input.Code, input.Description, input.Balance)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product_code", product.Code))

	inUse, err := uc.repository.CodeInUse(ctx, product.Code, 0)
	if err != nil {
		return nil, internal("failed to check product code", err)
	}
	if inUse {
		return nil, apperrors.Conflict("a product with code %s already exists", product.Code)
	}

	if err := uc.repository.Create(ctx, product); err != nil {
		return nil, internal("failed to create product", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id":   product.ID,
		"product_code": product.Code,
	}).Info("✅ [CREATE PRODUCT] Success")
	return product, nil
}

// Update substitui todos os campos do produto
func (uc *ProductUseCase) Update(ctx context.Context, id int64, input UpdateProductInput) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "products.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", id))

	if input.ID != id {
		return nil, apperrors.Validation("product id in the URL does not match the id in the body")
	}

	product := &Product{
		ID:          id,
		Code:        strings.TrimSpace(input.Code),
		Description: strings.TrimSpace(input.Description),
		Balance:     input.Balance,
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	inUse, err := uc.repository.CodeInUse(ctx, product.Code, id)
	if err != nil {
		return nil, internal("failed to check product code", err)
	}
	if inUse {
		return nil, apperrors.Conflict("another product with code %s already exists", product.Code)
	}

	updated, err := uc.repository.Update(ctx, product, input.Version)
	if err != nil {
		return nil, internal("failed to update product", err)
	}
	if !updated {
		// nenhuma linha casou: ou foi apagada, ou a versão mudou desde a leitura
		exists, err := uc.repository.Exists(ctx, id)
		if err != nil {
			return nil, internal("failed to check product existence", err)
		}
		if !exists {
			return nil, apperrors.NotFound("product %d not found", id)
		}
		logrus.WithFields(logrus.Fields{
			"product_id":       id,
			"expected_version": input.Version,
		}).Error("❌ [UPDATE PRODUCT] concurrent modification")
		return nil, apperrors.Internal("product was modified concurrently", errors.New("version mismatch"))
	}

	logrus.WithField("product_id", id).Info("✅ [UPDATE PRODUCT] Success")
	return product, nil
}

// Delete remove o produto sem checar notas fiscais que o referenciam
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	deleted, err := uc.repository.Delete(ctx, id)
	if err != nil {
		return internal("failed to delete product", err)
	}
	if !deleted {
		return apperrors.NotFound("product %d not found", id)
	}

	logrus.WithField("product_id", id).Info("🗑️ [DELETE PRODUCT] Success")
	return nil
}

// DebitStock abate o saldo usando Lock Pessimista
func (uc *ProductUseCase) DebitStock(ctx context.Context, input DebitStockInput) (*DebitStockResult, error) {
	ctx, span := uc.tracer.Start(ctx, "products.debit_stock")
	defer span.End()

	code := strings.TrimSpace(input.ProductCode)
	span.SetAttributes(
		attribute.String("product_code", code),
		attribute.Int("quantity", input.Quantity),
		attribute.String("reference", input.Reference),
	)

	log := logrus.WithFields(logrus.Fields{
		"product_code": code,
		"quantity":     input.Quantity,
		"reference":    input.Reference,
	})
	log.Info("➡️ [DEBIT STOCK] Request received")

	if code == "" {
		return nil, apperrors.Validation("productCode is required")
	}
	if input.Quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	// 1. Inicia a transação
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// 2. Obtém o produto com LOCK PESSIMISTA (SELECT FOR UPDATE)
	product, err := uc.repository.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		uc.recordDebit(ctx, outcomeOf(err))
		log.WithError(err).Info("❌ [DEBIT STOCK] Failed to load product")
		return nil, internal("failed to load product", err)
	}

	// 3. Verificar idempotência dentro da transação
	if input.Reference != "" {
		previous, err := uc.repository.FindDebitByReference(ctx, tx, input.Reference)
		if err != nil {
			return nil, internal("failed to check idempotency", err)
		}
		if previous != nil {
			// a referência só vale como repetição do mesmo abatimento
			if previous.ProductID != product.ID || previous.Quantity != input.Quantity {
				uc.recordDebit(ctx, "conflict")
				log.WithField("previous_product_id", previous.ProductID).Warn("⚠️ [IDEMPOTENCY] Reference reused for a different debit")
				return nil, apperrors.Conflict("reference %s was already used by another debit", input.Reference)
			}
			log.Info("ℹ️ [IDEMPOTENCY] Debit already processed for this reference")
			uc.recordDebit(ctx, "replayed")
			return &DebitStockResult{
				Message:    "Stock already debited for this reference.",
				NewBalance: product.Balance,
				Replayed:   true,
			}, nil
		}
	}

	// 4. Regra de Negócio: verifica saldo
	if err := product.Debit(input.Quantity); err != nil {
		uc.recordDebit(ctx, outcomeOf(err))
		log.WithField("balance", product.Balance).Info("❌ [DEBIT STOCK] Insufficient balance")
		return nil, err
	}

	// 5. Executa a atualização do saldo e cria o registro de movimento
	newBalance, err := uc.repository.DebitStock(ctx, tx, product.ID, input.Quantity, input.Reference)
	if err != nil {
		uc.recordDebit(ctx, outcomeOf(err))
		return nil, internal("failed to debit stock", err)
	}

	// 6. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, internal("failed to commit stock debit", err)
	}

	uc.recordDebit(ctx, "success")
	log.WithField("new_balance", newBalance).Info("✅ [DEBIT STOCK] Success")
	return &DebitStockResult{
		Message:    "Stock debited successfully.",
		NewBalance: newBalance,
	}, nil
}

func (uc *ProductUseCase) ListMovements(ctx context.Context, productID int64) ([]StockMovement, error) {
	exists, err := uc.repository.Exists(ctx, productID)
	if err != nil {
		return nil, internal("failed to check product existence", err)
	}
	if !exists {
		return nil, apperrors.NotFound("product %d not found", productID)
	}

	movements, err := uc.repository.ListMovements(ctx, productID)
	if err != nil {
		return nil, internal("failed to list stock movements", err)
	}
	return movements, nil
}

// SuggestDescription delega ao gateway uma única chamada, sem retry
func (uc *ProductUseCase) SuggestDescription(ctx context.Context, prompt string) (string, error) {
	ctx, span := uc.tracer.Start(ctx, "products.suggest_description")
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperrors.Validation("prompt is required")
	}

	suggestion, err := uc.suggestions.Suggest(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return suggestion, nil
}

func (uc *ProductUseCase) recordDebit(ctx context.Context, outcome string) {
	if uc.debits == nil {
		return
	}
	uc.debits.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func outcomeOf(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return "not_found"
	case apperrors.KindBusinessRule:
		return "insufficient_balance"
	default:
		return "error"
	}
}

// internal preserva erros já classificados e envolve o resto como Internal
func internal(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(message, err)
}
