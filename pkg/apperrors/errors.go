package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifica o erro para que a camada HTTP escolha o status correto
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindBusinessRule
	KindUpstream
	KindConfiguration
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindUpstream:
		return "upstream"
	case KindConfiguration:
		return "configuration"
	case KindParse:
		return "parse"
	default:
		return "internal"
	}
}

// AppError é o erro de domínio compartilhado pelos dois serviços
type AppError struct {
	Kind    Kind
	Message string
	Err     error
	// StatusCode e Detail só são preenchidos para erros Upstream
	StatusCode int
	Detail     string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus traduz o Kind para o status HTTP devolvido ao cliente
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		if e.StatusCode >= 400 && e.StatusCode <= 599 {
			return e.StatusCode
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *AppError {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func BusinessRule(format string, args ...any) *AppError {
	return &AppError{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

func Configuration(format string, args ...any) *AppError {
	return &AppError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Upstream carrega o status e o corpo devolvidos pela dependência remota.
// statusCode == 0 indica falha de transporte (serviço inacessível).
func Upstream(message string, statusCode int, body string, err error) *AppError {
	return &AppError{
		Kind:       KindUpstream,
		Message:    message,
		Err:        err,
		StatusCode: statusCode,
		Detail:     body,
	}
}

func Parse(message string, err error) *AppError {
	return &AppError{Kind: KindParse, Message: message, Err: err}
}

func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf devolve o Kind do primeiro AppError da cadeia, ou KindInternal
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return Is(err, KindNotFound)
}

func IsConflict(err error) bool {
	return Is(err, KindConflict)
}

func IsBusinessRule(err error) bool {
	return Is(err, KindBusinessRule)
}
