// Package http exposes the ledger as a JSON API.
//
// Every response body is a tagged result: {"status":"success","data":...}
// or {"status":"error","kind":...,"message":...}.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error kinds beyond the core taxonomy.
const (
	KindUnauthorized = "unauthorized"
	KindRateLimited  = "rate_limited"
	KindBadRequest   = "validation"
)

// Result is the envelope written for every API response.
type Result struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResponseBuilder provides a fluent API for writing tagged JSON results.
type ResponseBuilder struct {
	statusCode int
	result     Result
	headers    map[string]string
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		result:     Result{Status: StatusSuccess},
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.result.Data = data
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Fail turns the response into an error result.
func (b *ResponseBuilder) Fail(kind, message string) *ResponseBuilder {
	b.result = Result{Status: StatusError, Kind: kind, Message: message}
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.result)
}

func OK(data any) *ResponseBuilder {
	return NewResponse().Data(data)
}

func Created(data any) *ResponseBuilder {
	return NewResponse().Status(http.StatusCreated).Data(data)
}

func ErrorResponse(statusCode int, kind, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Fail(kind, message)
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, KindBadRequest, message)
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, KindUnauthorized, message)
}

func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, KindRateLimited, "too many attempts, try again later")
}

// FromError maps the core error taxonomy to a result. Store errors keep
// their detail out of the response.
func FromError(err error) *ResponseBuilder {
	switch {
	case errors.Is(err, core.ErrValidation):
		return ErrorResponse(http.StatusBadRequest, core.Kind(err), validationMessage(err))
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, core.Kind(err), err.Error())
	default:
		return ErrorResponse(http.StatusInternalServerError, "store", "internal error")
	}
}

// validationMessage strips wrapping context so clients see the rule that failed.
func validationMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil || next == core.ErrValidation {
			return err.Error()
		}
		err = next
	}
}
