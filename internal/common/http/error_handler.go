package http

import (
	"errors"
	"net/http"
	"strconv"

	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	"github.com/devnla/backend-express/internal/common/httpmetrics"
	"github.com/devnla/backend-express/internal/common/logger"
	"github.com/devnla/backend-express/internal/observability/metrics"
)

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

// HandleError writes err as an error envelope. Errors that are not domain
// errors are reported as INTERNAL_ERROR and never leak their text.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	traceID := TraceIDFromContext(ctx)

	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		domainErr = commonerrors.ErrInternalError.WithCause(err)
	}
	status := domainErr.HTTPStatus()

	fields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"path":       r.URL.Path,
		"action":     "request_failed",
	}
	switch {
	case status >= http.StatusInternalServerError:
		h.log.WithFields(ctx, fields).Errorf("request failed: %v", err)
	case h.log.ShouldLog(logger.DEBUG):
		h.log.WithFields(ctx, fields).Debugf("request failed: %v", err)
	}

	metrics.DomainErrorsTotal.WithLabelValues(string(domainErr.Category()), domainErr.Code(), strconv.Itoa(status)).Inc()
	metrics.HTTPErrorsTotal.WithLabelValues(strconv.Itoa(status), httpmetrics.RouteLabel(r.URL.Path), r.Method).Inc()

	WriteErrorEnvelope(w, status, domainErr.Code(), domainErr.Message(), validationDetails(domainErr), traceID)
}

// validationDetails exposes the cause of a validation failure; causes of
// other categories may carry store or driver text and stay server side.
func validationDetails(err commonerrors.DomainError) map[string]any {
	if err.Category() != commonerrors.CategoryValidation {
		return nil
	}
	cause := errors.Unwrap(err)
	if cause == nil {
		return nil
	}
	return map[string]any{"reason": cause.Error()}
}

func HandleError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	NewErrorHandler(log).HandleError(w, r, err)
}
