package products

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
	"github.com/matheusmosca/inventory-invoicing/pkg/httpserver"
)

// UseCase é o contrato consumido pelos handlers HTTP
type UseCase interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, input CreateProductInput) (*Product, error)
	Update(ctx context.Context, id int64, input UpdateProductInput) (*Product, error)
	Delete(ctx context.Context, id int64) error
	DebitStock(ctx context.Context, input DebitStockInput) (*DebitStockResult, error)
	ListMovements(ctx context.Context, productID int64) ([]StockMovement, error)
	SuggestDescription(ctx context.Context, prompt string) (string, error)
}

// ProductHandler contém os handlers HTTP de produtos
type ProductHandler struct {
	useCase UseCase
	tracer  trace.Tracer
}

// NewProductHandler cria uma nova instância de ProductHandler
func NewProductHandler(useCase UseCase, tracer trace.Tracer) *ProductHandler {
	return &ProductHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.useCase.List(c.Request.Context())
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	product, err := h.useCase.GetByID(c.Request.Context(), id)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.RespondError(c, httpserver.BindError(err))
		return
	}

	product, err := h.useCase.Create(c.Request.Context(), req)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	c.Header("Location", "/products/"+strconv.FormatInt(product.ID, 10))
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	var req UpdateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.RespondError(c, httpserver.BindError(err))
		return
	}

	if _, err := h.useCase.Update(c.Request.Context(), id, req); err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Delete(c *gin.Context) {
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

// DebitStock é o endpoint chamado pelo serviço de faturamento na impressão
func (h *ProductHandler) DebitStock(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "products.handler.debit_stock")
	defer span.End()

	var req DebitStockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		httpserver.RespondError(c, httpserver.BindError(err))
		return
	}

	span.SetAttributes(
		attribute.String("product_code", req.ProductCode),
		attribute.Int("quantity", req.Quantity),
		attribute.String("reference", req.Reference),
	)

	result, err := h.useCase.DebitStock(ctx, req)
	if err != nil {
		span.RecordError(err)
		httpserver.RespondError(c, err)
		return
	}
	span.SetAttributes(attribute.Bool("replayed", result.Replayed))
	c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) ListMovements(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}

	movements, err := h.useCase.ListMovements(c.Request.Context(), id)
	if err != nil {
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func (h *ProductHandler) SuggestDescription(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "products.handler.suggest_description")
	defer span.End()

	var req SuggestDescriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		httpserver.RespondError(c, httpserver.BindError(err))
		return
	}

	suggestion, err := h.useCase.SuggestDescription(ctx, req.Prompt)
	if err != nil {
		span.RecordError(err)
		httpserver.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuggestDescriptionResult{SuggestedDescription: suggestion})
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.Validation("invalid product id %q", c.Param("id"))
	}
	return id, nil
}
