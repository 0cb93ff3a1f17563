package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "placebadges"
)

// ErrDisabled is returned by Connect when no URI is configured.
var ErrDisabled = errors.New("mongo: no URI configured")

// Config holds the audit store connection settings.
type Config struct {
	URI      string
	Database string
	// Timeout bounds connection, server selection and the initial ping.
	Timeout time.Duration
}

// clientOptions builds the driver options for cfg. Audit writes are
// acknowledged by the primary only; losing one is logged, never retried.
func clientOptions(cfg Config) *options.ClientOptions {
	return options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout).
		SetRetryWrites(false).
		SetWriteConcern(writeconcern.W1())
}

// Connect opens the audit database. It returns ErrDisabled when cfg.URI is
// empty so callers can run without Mongo.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, ErrDisabled
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}
