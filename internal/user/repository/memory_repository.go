package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/devnla/backend-express/internal/common/clock"
	"github.com/devnla/backend-express/internal/common/crypto"
	"github.com/devnla/backend-express/internal/user/domain"
)

// MemoryRepository keeps users in process memory. It backs local runs and
// service tests, and enforces email uniqueness the same way the database
// indexes do.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[domain.ID]domain.User
	byEmail map[string]domain.ID
	ids     crypto.IDGenerator
	clock   clock.Clock
}

func NewMemoryRepository(ids crypto.IDGenerator, clk clock.Clock) *MemoryRepository {
	if ids == nil {
		ids = crypto.NewUUIDGenerator()
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &MemoryRepository{
		byID:    make(map[domain.ID]domain.User),
		byEmail: make(map[string]domain.ID),
		ids:     ids,
		clock:   clk,
	}
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryRepository) Create(ctx context.Context, data domain.CreateData) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	id, err := r.ids.NewID()
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[data.Email]; exists {
		return domain.User{}, ErrEmailAlreadyExists
	}

	now := r.clock.Now().UTC()
	user := domain.User{
		ID:           domain.ID(id),
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
