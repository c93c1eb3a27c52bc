package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewEngine_HealthCheck(t *testing.T) {
	r := NewEngine("products-service")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"products-service"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestNewEngine_MetricsExposed(t *testing.T) {
	r := NewEngine("invoices-service")

	// gera ao menos uma observação
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRequestID_PropagatesIncomingHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantError    string
		wantUpstream string
	}{
		{
			name:       "validation",
			err:        apperrors.Validation("code is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "code is required",
		},
		{
			name:       "conflict",
			err:        apperrors.Conflict("a product with this code already exists"),
			wantStatus: http.StatusConflict,
			wantError:  "a product with this code already exists",
		},
		{
			name:         "upstream keeps status and body",
			err:          apperrors.Upstream("Failed to process item X1. Operation cancelled.", http.StatusBadRequest, `{"error":"insufficient balance"}`, nil),
			wantStatus:   http.StatusBadRequest,
			wantError:    "Failed to process item X1. Operation cancelled.",
			wantUpstream: `{"error":"insufficient balance"}`,
		},
		{
			name:       "internal hides cause",
			err:        apperrors.Internal("failed to list products", errors.New("pq: connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
		{
			name:       "unclassified error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/fail", func(c *gin.Context) { RespondError(c, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			require.Equal(t, tt.wantStatus, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, tt.wantUpstream, body.UpstreamError)
		})
	}
}
