package invoices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// StockClient abate saldo no serviço de produtos
type StockClient interface {
	DebitStock(ctx context.Context, req DebitStockRequest) (*DebitStockResponse, error)
}

// DebitStockRequest é o contrato de PUT /products/debit-stock
type DebitStockRequest struct {
	ProductCode string `json:"productCode"`
	Quantity    int    `json:"quantity"`
	Reference   string `json:"reference,omitempty"`
}

type DebitStockResponse struct {
	Message    string `json:"message"`
	NewBalance int    `json:"newBalance"`
	Replayed   bool   `json:"replayed,omitempty"`
}

// HTTPStockClient chama o serviço de produtos via HTTP
type HTTPStockClient struct {
	client  *resty.Client
	baseURL string
}

func NewHTTPStockClient(baseURL string, timeout time.Duration) *HTTPStockClient {
	return &HTTPStockClient{
		client:  resty.New().SetTimeout(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// DebitStock faz uma única chamada, sem retry. Falhas voltam como erro Upstream
// com o status e o corpo recebidos; status 0 indica serviço inacessível.
// Uma resposta 2xx que não decodifica volta como erro Parse.
func (c *HTTPStockClient) DebitStock(ctx context.Context, req DebitStockRequest) (*DebitStockResponse, error) {
	headers := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	r := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)
	for key := range headers {
		r.SetHeader(key, headers.Get(key))
	}

	resp, err := r.Put(c.baseURL + "/products/debit-stock")
	if err != nil {
		logrus.WithError(err).WithField("product_code", req.ProductCode).Error("❌ [STOCK CLIENT] products service unreachable")
		return nil, apperrors.Upstream("products service is unreachable", 0, "", err)
	}

	if !resp.IsSuccess() {
		return nil, apperrors.Upstream(
			fmt.Sprintf("products service returned status %d", resp.StatusCode()),
			resp.StatusCode(), resp.String(), nil,
		)
	}

	// o abatimento já foi aplicado; um corpo ilegível não é falha de conexão
	var out DebitStockResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		logrus.WithError(err).WithField("product_code", req.ProductCode).Error("❌ [STOCK CLIENT] malformed debit response")
		return nil, apperrors.Parse("products service returned a malformed debit response", err)
	}
	return &out, nil
}
