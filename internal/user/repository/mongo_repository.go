package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/devnla/backend-express/internal/common/clock"
	"github.com/devnla/backend-express/internal/common/constants"
	"github.com/devnla/backend-express/internal/observability/metrics"
	"github.com/devnla/backend-express/internal/user/domain"
)

// Collection is the subset of *mongo.Collection the adapter needs.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	FirstName string        `bson:"firstName"`
	LastName  string        `bson:"lastName"`
	IsActive  bool          `bson:"isActive"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d userDocument) toDomain() domain.User {
	return domain.User{
		ID:           domain.ID(d.ID.Hex()),
		Email:        d.Email,
		PasswordHash: d.Password,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type MongoRepository struct {
	users  Collection
	pinger Pinger
	clock  clock.Clock
}

func NewMongoRepository(users Collection, pinger Pinger, clk clock.Clock) *MongoRepository {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &MongoRepository{users: users, pinger: pinger, clock: clk}
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, "find user by email", bson.D{{Key: "email", Value: email}})
}

func (r *MongoRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	oid, err := bson.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.User{}, ErrUserNotFound
	}
	return r.findOne(ctx, "find user by id", bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoRepository) Create(ctx context.Context, data domain.CreateData) (domain.User, error) {
	start := time.Now()
	defer observeMongo("create user", start)

	// BSON dates carry millisecond precision; truncate so the returned user
	// matches what a later read yields.
	now := r.clock.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        bson.NewObjectID(),
		Email:     data.Email,
		Password:  data.PasswordHash,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, ErrEmailAlreadyExists
		}
		metrics.MongoOperationErrors.WithLabelValues("create user", constants.UsersCollection).Inc()
		return domain.User{}, fmt.Errorf("%w: failed to create user: %w", ErrStoreUnavailable, err)
	}

	return doc.toDomain(), nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	if r.pinger == nil {
		return nil
	}
	if err := r.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, operation string, filter bson.D) (domain.User, error) {
	start := time.Now()
	defer observeMongo(operation, start)

	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, ErrUserNotFound
		}
		metrics.MongoOperationErrors.WithLabelValues(operation, constants.UsersCollection).Inc()
		return domain.User{}, fmt.Errorf("%w: failed to %s: %w", ErrStoreUnavailable, operation, err)
	}
	return doc.toDomain(), nil
}

func observeMongo(operation string, start time.Time) {
	metrics.MongoOperationDurationSeconds.WithLabelValues(operation, constants.UsersCollection).Observe(time.Since(start).Seconds())
}
