package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetwatch/internal/core"
	"budgetwatch/internal/scheduler"
	"budgetwatch/internal/services"
)

// JSONResponseBuilder assembles a JSON response with a fluent API.
type JSONResponseBuilder struct {
	status  int
	headers map[string]string
	body    any
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewJSONResponse starts a 200 response with no body.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{status: http.StatusOK, headers: map[string]string{}}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.status = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Error sets a machine readable code and a human readable message as body.
func (b *JSONResponseBuilder) Error(code, message string) *JSONResponseBuilder {
	b.body = errorBody{Error: code, Message: message}
	return b
}

// Send writes headers, status and the encoded body.
func (b *JSONResponseBuilder) Send(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse maps a service error onto a status code and error body.
func ErrorResponse(err error) *JSONResponseBuilder {
	status, code := classifyError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return NewJSONResponse().Status(status).Error(code, msg)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrDuplicateName), errors.Is(err, core.ErrCategoryInUse):
		return http.StatusConflict, "conflict"
	case errors.Is(err, scheduler.ErrSchedulerClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	case errors.Is(err, core.ErrDataAccess):
		return http.StatusInternalServerError, "data_access"
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrFutureDate),
		errors.Is(err, core.ErrDescriptionLong),
		errors.Is(err, core.ErrInvalidPayment),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, services.ErrEmptyQuery),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, errBadRequest):
		return http.StatusUnprocessableEntity, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
