package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/devnla/backend-express/internal/auth/service/mapper"
	"github.com/devnla/backend-express/internal/common/constants"
	commoncrypto "github.com/devnla/backend-express/internal/common/crypto"
	commonerrors "github.com/devnla/backend-express/internal/common/errors"
	"github.com/devnla/backend-express/internal/common/jwtverify"
	"github.com/devnla/backend-express/internal/common/logger"
	"github.com/devnla/backend-express/internal/common/resilience"
	userdomain "github.com/devnla/backend-express/internal/user/domain"
	userrepo "github.com/devnla/backend-express/internal/user/repository"
)

const tracerName = "github.com/devnla/backend-express/internal/auth/service"

type TokenManager interface {
	Configured() bool
	Issue(claims jwtverify.Claims) (string, error)
	Verify(token string) (jwtverify.Claims, error)
}

type AuthServiceDeps struct {
	Repo    userrepo.Repository
	Hasher  commoncrypto.PasswordHasher
	Issuer  TokenManager
	Breaker *resilience.CircuitBreaker
	Log     *logger.Logger
}

type AuthService struct {
	repo    userrepo.Repository
	hasher  commoncrypto.PasswordHasher
	issuer  TokenManager
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
	tracer  trace.Tracer

	decoyOnce sync.Once
	decoyHash string
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	breaker := deps.Breaker
	if breaker == nil {
		breaker = NewStoreCircuitBreaker(
			constants.DefaultCircuitBreakerThreshold,
			constants.DefaultCircuitBreakerTimeout,
			constants.DefaultCircuitBreakerReset,
			deps.Log,
		)
	}
	return &AuthService{
		repo:    deps.Repo,
		hasher:  deps.Hasher,
		issuer:  deps.Issuer,
		breaker: breaker,
		log:     deps.Log,
		tracer:  otel.Tracer(tracerName),
	}
}

// NewStoreCircuitBreaker counts only store failures; not-found and duplicate
// answers leave the circuit closed.
func NewStoreCircuitBreaker(threshold int32, timeout, resetAfter time.Duration, log *logger.Logger) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  threshold,
		Timeout:    timeout,
		ResetAfter: resetAfter,
		Name:       "user_store",
		Logger:     log,
		IsFailure: func(err error) bool {
			return !userrepo.IsBusinessOutcome(err)
		},
	})
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token string          `json:"token"`
	User  userdomain.View `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (result AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()
	defer func() { recordRegistration(outcome(err)) }()

	input.Email = normalizeEmail(input.Email)

	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "register_attempt",
	}).Info("register attempt")

	if err := validateRegisterInput(input); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return AuthResult{}, err
	}

	if !s.issuer.Configured() {
		s.log.WithFields(ctx, logger.Fields{
			"action": "register_secret_missing",
		}).Critical("register failed: token signing secret is not configured")
		return AuthResult{}, ErrConfiguration
	}

	hashStart := time.Now()
	hash, err := s.hasher.Hash(input.Password)
	observePasswordHash("hash", hashStart)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return AuthResult{}, newInternalError(err)
	}

	_, err = s.findByEmail(ctx, input.Email)
	switch {
	case err == nil:
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "register_email_exists",
		}).Warn("register failed: already exists")
		return AuthResult{}, ErrDuplicateEmail
	case !errors.Is(err, userrepo.ErrUserNotFound):
		return AuthResult{}, s.storeFailure(ctx, "register_lookup_failed", err)
	}

	user, err := s.create(ctx, userdomain.CreateData{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "register_email_exists",
			}).Warn("register failed: unique constraint rejected email")
			return AuthResult{}, ErrDuplicateEmail
		}
		return AuthResult{}, s.storeFailure(ctx, "register_create_failed", err)
	}

	token, err := s.issueToken(ctx, user, "register")
	if err != nil {
		return AuthResult{}, err
	}

	span.SetAttributes(attribute.String("user.id", string(user.ID)))
	s.log.WithFields(ctx, logger.Fields{
		"email":   user.Email,
		"user_id": string(user.ID),
		"action":  "register_success",
	}).Info("register success")

	return AuthResult{Token: token, User: mapper.UserToView(user)}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (result AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer func() { endSpan(span, err) }()
	defer func() { recordLogin(outcome(err)) }()

	input.Email = normalizeEmail(input.Email)

	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.burnCompare(input.Password)
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "login_user_not_found",
			}).Warn("login failed: not found")
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, s.storeFailure(ctx, "login_fetch_failed", err)
	}

	hashStart := time.Now()
	ok, err := s.hasher.Compare(user.PasswordHash, input.Password)
	observePasswordHash("compare", hashStart)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_hash_compare_failed",
		}).Errorf("login failed: stored hash unusable: %v", err)
		return AuthResult{}, newInternalError(err)
	}
	if !ok {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_invalid_password",
		}).Warn("login failed: invalid password")
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user, "login")
	if err != nil {
		return AuthResult{}, err
	}

	span.SetAttributes(attribute.String("user.id", string(user.ID)))
	s.log.WithFields(ctx, logger.Fields{
		"email":   user.Email,
		"user_id": string(user.ID),
		"action":  "login_success",
	}).Info("login success")

	return AuthResult{Token: token, User: mapper.UserToView(user)}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (view userdomain.View, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.GetUserByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer func() { endSpan(span, err) }()

	var user userdomain.User
	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		var findErr error
		user, findErr = s.repo.FindByID(ctx, userdomain.ID(id))
		return findErr
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": id,
				"action":  "get_user_not_found",
			}).Warn("get user failed: not found")
			return userdomain.View{}, ErrUserNotFound
		}
		return userdomain.View{}, s.storeFailure(ctx, "get_user_fetch_failed", err)
	}

	return mapper.UserToView(user), nil
}

func (s *AuthService) VerifyToken(token string) (jwtverify.Claims, error) {
	return s.issuer.Verify(token)
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (userdomain.User, error) {
	var user userdomain.User
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var findErr error
		user, findErr = s.repo.FindByEmail(ctx, email)
		return findErr
	})
	return user, err
}

func (s *AuthService) create(ctx context.Context, data userdomain.CreateData) (userdomain.User, error) {
	var user userdomain.User
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var createErr error
		user, createErr = s.repo.Create(ctx, data)
		return createErr
	})
	return user, err
}

func (s *AuthService) issueToken(ctx context.Context, user userdomain.User, op string) (string, error) {
	token, err := s.issuer.Issue(jwtverify.Claims{UserID: string(user.ID), Email: user.Email})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  op + "_token_issue_failed",
		}).Errorf("%s failed: token issue error: %v", op, err)
		if commonerrors.IsDomainError(err) {
			return "", err
		}
		return "", newInternalError(err)
	}
	return token, nil
}

func (s *AuthService) storeFailure(ctx context.Context, action string, err error) error {
	s.log.WithFields(ctx, logger.Fields{
		"action": action,
	}).Errorf("store operation failed: %v", err)
	return classifyStoreError(err)
}

// burnCompare spends one bcrypt comparison on an unknown email so response
// time does not reveal whether the account exists.
func (s *AuthService) burnCompare(password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password-for-unknown-accounts")
		if err == nil {
			s.decoyHash = hash
		}
	})
	if s.decoyHash != "" {
		_, _ = s.hasher.Compare(s.decoyHash, password)
	}
}

func outcome(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
