package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/devnla/backend-express/internal/common/constants"
	"github.com/devnla/backend-express/internal/common/logger"
)

type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the deployment, verifies it with a primary ping and makes sure
// the users collection carries its unique email index.
func Connect(ctx context.Context, log *logger.Logger, uri, database string) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("backend-express").
		SetConnectTimeout(constants.MongoConnectTimeout).
		SetServerSelectionTimeout(constants.MongoServerSelectionTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, constants.MongoServerSelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	c := &Client{client: client, db: client.Database(database)}
	if err := c.EnsureUserIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Infof("mongo connection initialized: database=%s", database)
	return c, nil
}

func (c *Client) Users() *mongo.Collection {
	return c.db.Collection(constants.UsersCollection)
}

func (c *Client) EnsureUserIndexes(ctx context.Context) error {
	_, err := c.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Disconnect(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}
