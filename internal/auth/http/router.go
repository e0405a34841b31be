package http

import (
	"context"
	"net/http"

	"github.com/devnla/backend-express/internal/auth/service"
	"github.com/devnla/backend-express/internal/common/config"
	"github.com/devnla/backend-express/internal/common/constants"
	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	commonhttp "github.com/devnla/backend-express/internal/common/http"
	"github.com/devnla/backend-express/internal/common/jwtverify"
	"github.com/devnla/backend-express/internal/common/logger"
	userdomain "github.com/devnla/backend-express/internal/user/domain"
)

type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (userdomain.View, error)
	VerifyToken(token string) (jwtverify.Claims, error)
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,maxbytes=72"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Handler struct {
	auth      AuthService
	log       *logger.Logger
	validator *commonhttp.Validator
	errors    *commonhttp.ErrorHandler
}

// NewHandler mounts the auth API. store backs /health and may be nil.
func NewHandler(auth AuthService, cfg config.AuthConfig, store commonhttp.Pinger, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:      auth,
		log:       log,
		validator: commonhttp.NewValidator(),
		errors:    commonhttp.NewErrorHandler(log),
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = constants.DefaultAuthRequestTimeout
	}
	post := func(fn http.HandlerFunc) http.HandlerFunc {
		return commonhttp.RequireMethod(http.MethodPost)(commonhttp.WithTimeout(timeout)(fn))
	}
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		return commonhttp.RequireMethod(http.MethodGet)(commonhttp.WithTimeout(timeout)(fn))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, store, constants.HealthCheckTimeout))
	mux.HandleFunc("/api/auth/register", post(h.register))
	mux.HandleFunc("/api/auth/login", post(h.login))
	mux.Handle("/api/users/profile", jwtverify.Middleware(auth, log)(get(h.profile)))
	mux.HandleFunc("/", h.notFound)
	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{"action": "register_invalid_json"}).Warnf("register failed: %v", err)
		commonhttp.WriteDecodeError(w, r, err)
		return
	}
	if details := h.validator.Struct(req); details != nil {
		commonhttp.WriteValidationError(w, r, details)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusCreated, "User registered successfully", result)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{"action": "login_invalid_json"}).Warnf("login failed: %v", err)
		commonhttp.WriteDecodeError(w, r, err)
		return
	}
	if details := h.validator.Struct(req); details != nil {
		commonhttp.WriteValidationError(w, r, details)
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, "Login successful", result)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errors.HandleError(w, r, commonerrors.ErrMissingAuthorization)
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, "", user)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeNotFound, "route not found", nil, commonhttp.TraceIDFromContext(r.Context()))
}
