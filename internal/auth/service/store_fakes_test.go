package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/devnla/backend-express/internal/common/clock"
	userdomain "github.com/devnla/backend-express/internal/user/domain"
)

// documentStore keeps marshalled user documents and enforces the unique
// email index the way a mongod would.
type documentStore struct {
	mu   sync.Mutex
	docs []bson.Raw
}

func (s *documentStore) InsertOne(_ context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	raw, err := bson.Marshal(document)
	if err != nil {
		return nil, err
	}
	doc := bson.Raw(raw)
	email, _ := doc.Lookup("email").StringValueOK()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if other, _ := existing.Lookup("email").StringValueOK(); other == email {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
		}
	}
	s.docs = append(s.docs, doc)
	id, _ := doc.Lookup("_id").ObjectIDOK()
	return &mongo.InsertOneResult{InsertedID: id}, nil
}

func (s *documentStore) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	f, ok := filter.(bson.D)
	if !ok || len(f) != 1 {
		return mongo.NewSingleResultFromDocument(bson.D{}, fmt.Errorf("unsupported filter %v", filter), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		value := doc.Lookup(f[0].Key)
		var match bool
		switch want := f[0].Value.(type) {
		case string:
			got, ok := value.StringValueOK()
			match = ok && got == want
		case bson.ObjectID:
			got, ok := value.ObjectIDOK()
			match = ok && got == want
		}
		if match {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

// tableStore answers the three statements the relational adapter issues and
// rejects a second row with the same email with a unique violation.
type tableStore struct {
	mu    sync.Mutex
	rows  []userdomain.User
	clock clock.Clock
}

func (s *tableStore) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasPrefix(strings.TrimSpace(sql), "INSERT INTO users"):
		email := args[1].(string)
		for _, row := range s.rows {
			if row.Email == email {
				return tableRow{err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}}
			}
		}
		now := s.clock.Now()
		user := userdomain.User{
			ID:           userdomain.ID(args[0].(string)),
			Email:        email,
			PasswordHash: args[2].(string),
			FirstName:    args[3].(string),
			LastName:     args[4].(string),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.rows = append(s.rows, user)
		return tableRow{user: user}
	case strings.Contains(sql, "WHERE email = $1"):
		return s.lookup(func(u userdomain.User) bool { return u.Email == args[0].(string) })
	case strings.Contains(sql, "WHERE id = $1"):
		return s.lookup(func(u userdomain.User) bool { return string(u.ID) == args[0].(string) })
	}
	return tableRow{err: fmt.Errorf("unexpected statement %q", sql)}
}

func (s *tableStore) lookup(match func(userdomain.User) bool) pgx.Row {
	for _, row := range s.rows {
		if match(row) {
			return tableRow{user: row}
		}
	}
	return tableRow{err: pgx.ErrNoRows}
}

func (s *tableStore) Ping(context.Context) error { return nil }

type tableRow struct {
	user userdomain.User
	err  error
}

func (r tableRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 8 {
		return fmt.Errorf("scan: expected 8 destinations, got %d", len(dest))
	}
	*dest[0].(*string) = string(r.user.ID)
	*dest[1].(*string) = r.user.Email
	*dest[2].(*string) = r.user.PasswordHash
	*dest[3].(*string) = r.user.FirstName
	*dest[4].(*string) = r.user.LastName
	*dest[5].(*bool) = r.user.IsActive
	*dest[6].(*time.Time) = r.user.CreatedAt
	*dest[7].(*time.Time) = r.user.UpdatedAt
	return nil
}
