package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	"github.com/devnla/backend-express/internal/common/logger"
)

func newTestLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "test", "critical")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestHandleError_DomainError(t *testing.T) {
	conflict := commonerrors.NewDomainError("USER_ALREADY_EXISTS", commonerrors.CategoryConflict, http.StatusConflict, "User already exists")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	HandleError(rec, req, fmt.Errorf("register: %w", conflict), newTestLogger())

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "USER_ALREADY_EXISTS", env.Code)
	require.Equal(t, "User already exists", env.Message)
	require.Empty(t, env.Details)
}

func TestHandleError_HidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	HandleError(rec, req, errors.New("dial tcp 10.0.0.5:5432: connection refused"), newTestLogger())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.5")
	require.Equal(t, "INTERNAL_ERROR", decodeEnvelope(t, rec).Code)
}

func TestHandleError_ValidationCarriesReason(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	HandleError(rec, req, commonerrors.ErrValidation.WithCause(errors.New("password exceeds 72 bytes")), newTestLogger())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "password exceeds 72 bytes", env.Details["reason"])
}

func TestBuildBaseHandler_RecoversPanics(t *testing.T) {
	h := BuildBaseHandler(newTestLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	traceID := rec.Header().Get(traceIDHeader)
	require.NotEmpty(t, traceID)
	require.Equal(t, traceID, decodeEnvelope(t, rec).TraceID)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestBuildBaseHandler_ReusesIncomingTraceID(t *testing.T) {
	var seen string
	h := BuildBaseHandler(newTestLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(traceIDHeader, "abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "abc123", seen)
	require.Equal(t, "abc123", rec.Header().Get(traceIDHeader))
}

func TestBuildBaseHandler_ContinuesIncomingTraceparent(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	var (
		seen    string
		spanCtx trace.SpanContext
	)
	h := BuildBaseHandler(newTestLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
		spanCtx = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.True(t, spanCtx.IsValid())
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spanCtx.TraceID().String())
	require.NotEqual(t, "00f067aa0ba902b7", spanCtx.SpanID().String())
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", seen)
	require.Equal(t, seen, rec.Header().Get(traceIDHeader))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		payload string
		limit   int64
		wantErr error
	}{
		{name: "valid with unknown field", payload: `{"email":"a@b.c","extra":1}`},
		{name: "malformed", payload: `{"email":`, wantErr: ErrInvalidJSON},
		{name: "trailing data", payload: `{"email":"a@b.c"}{}`, wantErr: ErrInvalidJSON},
		{name: "over limit", payload: `{"email":"` + strings.Repeat("a", 64) + `"}`, limit: 16, wantErr: ErrRequestTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			req.ContentLength = -1
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, tt.limit)
			}

			var got body
			err := DecodeJSON(req, &got)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "a@b.c", got.Email)
		})
	}
}

func TestMaxRequestSizeMiddleware_RejectsDeclaredLength(t *testing.T) {
	called := false
	h := MaxRequestSizeMiddleware(8)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(strings.Repeat("x", 32)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, CodeRequestTooLarge, decodeEnvelope(t, rec).Code)
}

func TestRequireMethod(t *testing.T) {
	h := RequireMethod(http.MethodPost)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPut, "/api/auth/login", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestValidator_ReportsJSONFieldNames(t *testing.T) {
	type req struct {
		Email     string `json:"email" validate:"required,email"`
		FirstName string `json:"firstName" validate:"required,max=3"`
	}

	details := NewValidator().Struct(req{Email: "nope", FirstName: "Augusta"})
	require.Equal(t, "must be a valid email address", details["email"])
	require.Equal(t, "must be at most 3 characters", details["firstName"])

	require.Nil(t, NewValidator().Struct(req{Email: "a@b.c", FirstName: "Ada"}))
}

func TestValidator_MaxBytesCountsEncodedLength(t *testing.T) {
	type req struct {
		Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	}

	v := NewValidator()

	multibyte := strings.Repeat("я", 40)
	details := v.Struct(req{Password: multibyte})
	require.Equal(t, "must be at most 72 bytes", details["password"])

	require.Nil(t, v.Struct(req{Password: strings.Repeat("я", 36)}))
	require.Nil(t, v.Struct(req{Password: strings.Repeat("a", 72)}))
	require.NotNil(t, v.Struct(req{Password: strings.Repeat("a", 73)}))
}
