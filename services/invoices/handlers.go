package invoices

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
	"github.com/matheusmosca/inventory-invoicing/pkg/httpserver"
)

// UseCase é o contrato consumido pelos handlers HTTP
type UseCase interface {
	List(ctx context.Context) ([]Invoice, error)
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	Create(ctx context.Context, input InvoiceInput) (*Invoice, error)
	Update(ctx context.Context, id int64, input InvoiceInput) (*Invoice, error)
	Delete(ctx context.Context, id int64) error
	Print(ctx context.Context, id int64) (*PrintResult, error)
}

// InvoiceHandler contém os handlers HTTP de notas fiscais
type InvoiceHandler struct {
	useCase UseCase
	tracer  trace.Tracer
}

func NewInvoiceHandler(useCase UseCase, tracer trace.Tracer) *InvoiceHandler {
	return &InvoiceHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

func (h *InvoiceHandler) List(c *gin.Context) {
	invoices, err := h.useCase.List(c.Request.Context())
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	invoice, err := h.useCase.GetByID(c.Request.Context(), id)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	var req InvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.RespondError(c, httpserver.BindError(err))
		return
	}

	invoice, err := h.useCase.Create(c.Request.Context(), req)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	c.Header("Location", "/invoices/"+strconv.FormatInt(invoice.ID, 10))
	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	var req InvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.RespondError(c, httpserver.BindError(err))
		return
	}

	invoice, err := h.useCase.Update(c.Request.Context(), id, req)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	if err := h.useCase.Delete(c.Request.Context(), id); err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Print bloqueia a requisição até todos os abatimentos terminarem
func (h *InvoiceHandler) Print(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "invoices.handler.print")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		span.RecordError(err)
		httpserver.RespondError(c, err)
		return
	}
	span.SetAttributes(attribute.Int64("invoice_id", id))

	result, err := h.useCase.Print(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "print failed")
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.Validation("invalid invoice id %q", c.Param("id"))
	}
	return id, nil
}
