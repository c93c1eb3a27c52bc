package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// InvoiceUseCase contém a lógica de negócio de faturamento
type InvoiceUseCase struct {
	repository Repository
	stock      StockClient
	tracer     trace.Tracer
	prints     metric.Int64Counter
}

// NewInvoiceUseCase cria uma nova instância de InvoiceUseCase
func NewInvoiceUseCase(repository Repository, stock StockClient, tracer trace.Tracer) *InvoiceUseCase {
	prints, err := otel.Meter("invoices-service").Int64Counter(
		"invoice_prints_total",
		metric.WithDescription("Invoice print attempts by outcome"),
	)
	if err != nil {
		logrus.WithError(err).Warn("failed to create invoice_prints_total counter")
	}

	return &InvoiceUseCase{
		repository: repository,
		stock:      stock,
		tracer:     tracer,
		prints:     prints,
	}
}

func (uc *InvoiceUseCase) List(ctx context.Context) ([]Invoice, error) {
	invoices, err := uc.repository.List(ctx)
	if err != nil {
		return nil, internal("failed to list invoices", err)
	}
	return invoices, nil
}

func (uc *InvoiceUseCase) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	invoice, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		return nil, internal("failed to get invoice", err)
	}
	return invoice, nil
}

// Create grava uma nota aberta; a numeração sequencial vem do próprio id
func (uc *InvoiceUseCase) Create(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	ctx, span := uc.tracer.Start(ctx, "invoices.create")
	defer span.End()

	invoice, err := NewInvoice(input.Items)
	if err != nil {
		return nil, err
	}

	if err := uc.repository.Create(ctx, invoice); err != nil {
		return nil, internal("failed to create invoice", err)
	}

	span.SetAttributes(attribute.Int64("invoice_id", invoice.ID))
	logrus.WithFields(logrus.Fields{
		"invoice_id": invoice.ID,
		"items":      len(invoice.Items),
	}).Info("✅ [CREATE INVOICE] Success")
	return invoice, nil
}

// Update substitui todo o conjunto de itens de uma nota aberta
func (uc *InvoiceUseCase) Update(ctx context.Context, id int64, input InvoiceInput) (*Invoice, error) {
	ctx, span := uc.tracer.Start(ctx, "invoices.update")
	defer span.End()
	span.SetAttributes(attribute.Int64("invoice_id", id))

	items, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	invoice, err := uc.repository.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, internal("failed to load invoice", err)
	}
	if err := invoice.EnsureOpen("updated"); err != nil {
		return nil, err
	}

	saved, err := uc.repository.ReplaceItems(ctx, tx, id, items)
	if err != nil {
		return nil, internal("failed to replace invoice items", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, internal("failed to commit invoice update", err)
	}

	invoice.Items = saved
	invoice.Version++
	invoice.UpdatedAt = time.Now()
	logrus.WithField("invoice_id", id).Info("✅ [UPDATE INVOICE] Success")
	return invoice, nil
}

// Delete remove uma nota aberta junto com seus itens
func (uc *InvoiceUseCase) Delete(ctx context.Context, id int64) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return internal("failed to begin transaction", err)
	}
	defer tx.Rollback()

	invoice, err := uc.repository.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return internal("failed to load invoice", err)
	}
	if err := invoice.EnsureOpen("deleted"); err != nil {
		return err
	}

	if err := uc.repository.Delete(ctx, tx, id); err != nil {
		return internal("failed to delete invoice", err)
	}
	if err := tx.Commit(); err != nil {
		return internal("failed to commit invoice deletion", err)
	}

	logrus.WithField("invoice_id", id).Info("🗑️ [DELETE INVOICE] Success")
	return nil
}

// Print abate o estoque de cada item, em ordem, e fecha a nota.
// A primeira falha interrompe o processo: os itens já abatidos não são
// estornados e a nota continua aberta.
func (uc *InvoiceUseCase) Print(ctx context.Context, id int64) (*PrintResult, error) {
	ctx, span := uc.tracer.Start(ctx, "invoices.print")
	defer span.End()
	span.SetAttributes(attribute.Int64("invoice_id", id))

	log := logrus.WithField("invoice_id", id)
	log.Info("➡️ [PRINT] Request received")

	invoice, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		uc.recordPrint(ctx, "error")
		return nil, internal("failed to load invoice", err)
	}
	if err := invoice.EnsureOpen("printed"); err != nil {
		uc.recordPrint(ctx, "already_closed")
		return nil, err
	}

	for _, item := range invoice.Items {
		_, err := uc.stock.DebitStock(ctx, DebitStockRequest{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			Reference:   debitReference(invoice.ID, item.ID),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock debit failed")
			log.WithError(err).WithField("product_code", item.ProductCode).Error("❌ [PRINT] Stock debit failed, aborting")
			uc.recordPrint(ctx, "debit_failed")
			return nil, itemFailure(item.ProductCode, err)
		}
		log.WithField("product_code", item.ProductCode).Info("✅ [PRINT] Item debited")
	}

	// Open -> Closed condicionado à versão lida: itens trocados ou nota
	// removida durante os abatimentos impedem o fechamento
	closed, err := uc.repository.CloseIfUnchanged(ctx, id, invoice.Version)
	if err != nil {
		uc.recordPrint(ctx, "error")
		return nil, internal("failed to close invoice", err)
	}
	if !closed {
		return nil, uc.closeRejected(ctx, id)
	}

	invoice.Status = InvoiceStatusClosed
	invoice.Version++
	invoice.UpdatedAt = time.Now()

	uc.recordPrint(ctx, "success")
	log.Info("✅ [PRINT] Invoice closed")
	return &PrintResult{
		Message: "Invoice printed (closed) successfully.",
		Invoice: invoice,
	}, nil
}

// closeRejected relê a nota para explicar por que o fechamento não ocorreu
func (uc *InvoiceUseCase) closeRejected(ctx context.Context, id int64) error {
	current, err := uc.repository.GetByID(ctx, id)
	if err != nil {
		uc.recordPrint(ctx, "error")
		return internal("failed to reload invoice", err)
	}
	if !current.IsOpen() {
		uc.recordPrint(ctx, "already_closed")
		return apperrors.BusinessRule("invoice %d is already closed and cannot be printed", id)
	}

	uc.recordPrint(ctx, "conflict")
	logrus.WithFields(logrus.Fields{
		"invoice_id": id,
		"version":    current.Version,
	}).Warn("⚠️ [PRINT] Invoice changed while printing, not closed")
	return apperrors.Conflict("invoice %d was modified while printing; print it again", id)
}

func (uc *InvoiceUseCase) recordPrint(ctx context.Context, outcome string) {
	if uc.prints == nil {
		return
	}
	uc.prints.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// debitReference identifica o abatimento de um item para que uma nova
// impressão, depois de uma falha parcial, não abata o mesmo item duas vezes
func debitReference(invoiceID, itemID int64) string {
	return fmt.Sprintf("invoice-%d-item-%d", invoiceID, itemID)
}

// itemFailure mantém o status e o corpo devolvidos pelo serviço de produtos
func itemFailure(productCode string, err error) error {
	message := fmt.Sprintf("Failed to process item %s. Operation cancelled.", productCode)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return apperrors.Upstream(message, 0, "", err)
	}
	if appErr.Kind == apperrors.KindUpstream {
		return apperrors.Upstream(message, appErr.StatusCode, appErr.Detail, err)
	}
	return &apperrors.AppError{Kind: appErr.Kind, Message: message, Err: err}
}

func internal(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal(message, err)
}
