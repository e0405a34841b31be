package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/require"

	"github.com/devnla/backend-express/internal/common/db"
	"github.com/devnla/backend-express/internal/user/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	queryRow func(sql string, args []interface{}) pgx.Row
	pingErr  error
	calls    int
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	q.calls++
	return q.queryRow(sql, args)
}

func (q *fakeQuerier) Ping(context.Context) error {
	return q.pingErr
}

type staticIDs struct{ id string }

func (g staticIDs) NewID() (string, error) { return g.id, nil }

const testUUID = "3f2b8c1e-6a4d-4e8f-9b7a-1c2d3e4f5a6b"

func userRow(id, email string, at time.Time) fakeRow {
	return fakeRow{values: []any{id, email, "hash", "Ada", "Lovelace", true, at, at}}
}

func newTestPgRepository(q *fakeQuerier) *PgRepository {
	repo := NewPgRepository(q, staticIDs{id: testUUID}, nil)
	repo.retry = db.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return repo
}

func TestPgRepository_Create(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{queryRow: func(sql string, args []interface{}) pgx.Row {
		require.True(t, strings.HasPrefix(strings.TrimSpace(sql), "INSERT INTO users"))
		require.Equal(t, []interface{}{testUUID, "ada@example.com", "hash", "Ada", "Lovelace"}, args)
		return userRow(testUUID, "ada@example.com", at)
	}}

	user, err := newTestPgRepository(q).Create(context.Background(), domain.CreateData{
		Email:        "ada@example.com",
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
	})

	require.NoError(t, err)
	require.Equal(t, domain.ID(testUUID), user.ID)
	require.True(t, user.IsActive)
	require.Equal(t, at, user.CreatedAt)
}

func TestPgRepository_CreateDuplicateEmail(t *testing.T) {
	q := &fakeQuerier{queryRow: func(string, []interface{}) pgx.Row {
		return fakeRow{err: &pgconn.PgError{Code: "23505"}}
	}}

	_, err := newTestPgRepository(q).Create(context.Background(), domain.CreateData{Email: "ada@example.com"})

	require.ErrorIs(t, err, ErrEmailAlreadyExists)
	require.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestPgRepository_CreateIsNotRetried(t *testing.T) {
	q := &fakeQuerier{queryRow: func(string, []interface{}) pgx.Row {
		return fakeRow{err: &pgconn.PgError{Code: "08006"}}
	}}

	_, err := newTestPgRepository(q).Create(context.Background(), domain.CreateData{Email: "ada@example.com"})

	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Equal(t, 1, q.calls)
}

func TestPgRepository_FindByEmail(t *testing.T) {
	at := time.Now().UTC()
	q := &fakeQuerier{queryRow: func(sql string, args []interface{}) pgx.Row {
		require.Contains(t, sql, "WHERE email = $1")
		require.Equal(t, []interface{}{"ada@example.com"}, args)
		return userRow(testUUID, "ada@example.com", at)
	}}

	user, err := newTestPgRepository(q).FindByEmail(context.Background(), "ada@example.com")

	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, "hash", user.PasswordHash)
}

func TestPgRepository_FindByEmailNotFound(t *testing.T) {
	q := &fakeQuerier{queryRow: func(string, []interface{}) pgx.Row {
		return fakeRow{err: pgx.ErrNoRows}
	}}

	_, err := newTestPgRepository(q).FindByEmail(context.Background(), "nobody@example.com")

	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, 1, q.calls)
}

func TestPgRepository_FindByIDRejectsMalformedID(t *testing.T) {
	q := &fakeQuerier{queryRow: func(string, []interface{}) pgx.Row {
		t.Fatal("query must not run for a malformed id")
		return nil
	}}

	_, err := newTestPgRepository(q).FindByID(context.Background(), "507f1f77bcf86cd799439011")

	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestPgRepository_FindByIDNonCanonicalForms(t *testing.T) {
	for _, id := range []domain.ID{"urn:uuid:" + testUUID, "{" + testUUID + "}", domain.ID(strings.ReplaceAll(testUUID, "-", ""))} {
		t.Run(string(id), func(t *testing.T) {
			q := &fakeQuerier{queryRow: func(string, []interface{}) pgx.Row {
				t.Fatal("query must not run for a non-canonical id")
				return nil
			}}

			_, err := newTestPgRepository(q).FindByID(context.Background(), id)

			require.ErrorIs(t, err, ErrUserNotFound)
			require.True(t, IsBusinessOutcome(err))
		})
	}
}

func TestPgRepository_FindByIDBindsCanonicalForm(t *testing.T) {
	at := time.Now().UTC()
	q := &fakeQuerier{queryRow: func(sql string, args []interface{}) pgx.Row {
		require.Equal(t, []interface{}{testUUID}, args)
		return userRow(testUUID, "ada@example.com", at)
	}}

	user, err := newTestPgRepository(q).FindByID(context.Background(), domain.ID(strings.ToUpper(testUUID)))

	require.NoError(t, err)
	require.Equal(t, domain.ID(testUUID), user.ID)
}

func TestPgRepository_FindByIDRetriesTransientFailure(t *testing.T) {
	at := time.Now().UTC()
	q := &fakeQuerier{}
	q.queryRow = func(string, []interface{}) pgx.Row {
		if q.calls == 1 {
			return fakeRow{err: &pgconn.PgError{Code: "08006"}}
		}
		return userRow(testUUID, "ada@example.com", at)
	}

	user, err := newTestPgRepository(q).FindByID(context.Background(), testUUID)

	require.NoError(t, err)
	require.Equal(t, domain.ID(testUUID), user.ID)
	require.Equal(t, 2, q.calls)
}

func TestPgRepository_FindByIDStoreFailure(t *testing.T) {
	q := &fakeQuerier{queryRow: func(string, []interface{}) pgx.Row {
		return fakeRow{err: errors.New("connection reset")}
	}}

	_, err := newTestPgRepository(q).FindByID(context.Background(), testUUID)

	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.False(t, IsBusinessOutcome(err))
}

func TestPgRepository_Ping(t *testing.T) {
	require.NoError(t, newTestPgRepository(&fakeQuerier{}).Ping(context.Background()))

	err := newTestPgRepository(&fakeQuerier{pingErr: errors.New("down")}).Ping(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
