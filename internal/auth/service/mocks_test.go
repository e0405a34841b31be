package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/devnla/backend-express/internal/auth/service"
	"github.com/devnla/backend-express/internal/common/clock"
	"github.com/devnla/backend-express/internal/common/logger"
	userdomain "github.com/devnla/backend-express/internal/user/domain"
	userrepo "github.com/devnla/backend-express/internal/user/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type mockUserRepo struct {
	findByEmailFunc func(ctx context.Context, email string) (userdomain.User, error)
	findByIDFunc    func(ctx context.Context, id userdomain.ID) (userdomain.User, error)
	createFunc      func(ctx context.Context, data userdomain.CreateData) (userdomain.User, error)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return userdomain.User{}, userrepo.ErrUserNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, data userdomain.CreateData) (userdomain.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, data)
	}
	return userdomain.User{
		ID:           "user-123",
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		IsActive:     true,
	}, nil
}

// mockHasher stands in for bcrypt: hash(p) is "hashed:"+p.
type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash, password string) (bool, error)
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) (bool, error) {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	if !strings.HasPrefix(hash, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return hash == "hashed:"+password, nil
}

func newTestLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "test", "critical")
}

func setupAuthService(t *testing.T) (*service.AuthService, *mockUserRepo, *mockHasher, *clock.MockClock) {
	t.Helper()

	repo := &mockUserRepo{}
	hasher := &mockHasher{}
	clk := clock.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	log := newTestLogger()

	svc := service.NewAuthService(service.AuthServiceDeps{
		Repo:   repo,
		Hasher: hasher,
		Issuer: service.NewTokenIssuer(testSecret, 7*24*time.Hour, clk),
		Log:    log,
	})
	return svc, repo, hasher, clk
}
