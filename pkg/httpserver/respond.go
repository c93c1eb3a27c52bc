package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/inventory-invoicing/pkg/apperrors"
)

// ErrorResponse é o corpo devolvido em qualquer falha
type ErrorResponse struct {
	Error         string `json:"error"`
	UpstreamError string `json:"upstreamError,omitempty"`
}

// RespondError classifica o erro, registra no log e no span e escreve a resposta JSON
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal server error"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus()
		body.UpstreamError = appErr.Detail
		// erros internos não expõem detalhes de banco ao cliente
		if appErr.Kind != apperrors.KindInternal {
			body.Error = appErr.Message
		}
	}

	span := trace.SpanFromContext(c.Request.Context())
	span.RecordError(err)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, err.Error())
	}

	entry := logrus.WithFields(logrus.Fields{
		"request_id": GetRequestID(c),
		"route":      c.FullPath(),
		"status":     status,
		"kind":       apperrors.KindOf(err).String(),
	}).WithError(err)

	if status >= http.StatusInternalServerError {
		entry.Error("❌ request failed")
	} else {
		entry.Info("ℹ️ request rejected")
	}

	c.AbortWithStatusJSON(status, body)
}

// BindError converte falhas de binding do gin em erro de validação
func BindError(err error) error {
	return apperrors.Validation("invalid request body: %s", err.Error())
}
