package repository

import (
	"context"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/devnla/backend-express/internal/common/crypto"
	"github.com/devnla/backend-express/internal/common/db"
	"github.com/devnla/backend-express/internal/common/logger"
	"github.com/devnla/backend-express/internal/user/domain"
)

const usersTable = "users"

const userColumns = `id::text, email, password_hash, first_name, last_name, is_active, created_at, updated_at`

// Querier is the subset of *pgxpool.Pool the adapter needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
}

type PgRepository struct {
	pool  Querier
	ids   crypto.IDGenerator
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgRepository(pool Querier, ids crypto.IDGenerator, log *logger.Logger) *PgRepository {
	return &PgRepository{
		pool:  pool,
		ids:   ids,
		log:   log,
		retry: db.DefaultRetryConfig,
	}
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "find user by email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	canonical, ok := crypto.CanonicalUUID(string(id))
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return r.findOne(ctx, "find user by id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, canonical)
}

func (r *PgRepository) Create(ctx context.Context, data domain.CreateData) (domain.User, error) {
	id, err := r.ids.NewID()
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		id,
		data.Email,
		data.PasswordHash,
		data.FirstName,
		data.LastName,
	)

	user, err := scanUser(row)
	if err = db.HandleQueryError(err, nil, ErrEmailAlreadyExists, "create user", usersTable, start); err != nil {
		return domain.User{}, storeError(err)
	}
	return user, nil
}

func (r *PgRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// findOne retries transient connection failures; inserts are never retried
// because a lost acknowledgement would surface as a duplicate on replay.
func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg string) (domain.User, error) {
	var user domain.User
	start := time.Now()

	err := db.RetryWithBackoff(ctx, r.log, r.retry, func(ctx context.Context) error {
		var scanErr error
		user, scanErr = scanUser(r.pool.QueryRow(ctx, query, arg))
		return scanErr
	})
	if err = db.HandleQueryError(err, ErrUserNotFound, nil, operation, usersTable, start); err != nil {
		return domain.User{}, storeError(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user domain.User
		id   string
	)
	err := row.Scan(
		&id,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	user.ID = domain.ID(id)
	return user, nil
}

func storeError(err error) error {
	if IsBusinessOutcome(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
