// Package mongo provides the MongoDB Atlas adapter for chunk storage
// and vector-similarity search.
package mongo

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/logger"
)

// ConnectionConfig holds the settings needed to reach the document store.
type ConnectionConfig struct {
	// URI is the connection string (mongodb:// or mongodb+srv://).
	URI string

	// Database is the database name holding the chunk collections.
	Database string

	// InsecureSkipTLSVerify disables certificate validation. TLS itself
	// is always on; this toggle exists for deployments with self-signed
	// certificates and should stay false everywhere else.
	InsecureSkipTLSVerify bool
}

// Validate checks that the configuration is complete.
func (c ConnectionConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: document store URI is required", domain.ErrInvalidConfig)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database name is required", domain.ErrInvalidConfig)
	}
	return nil
}

// Connection is the single handle to the document store.
//
// The composition root creates exactly one Connection at startup, hands
// it to every component that needs the store, and closes it once at
// shutdown. No other component dials its own.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database

	closeOnce sync.Once
	closeErr  error
}

// Connect establishes the connection and verifies it with a ping.
// Configuration problems surface as domain.ErrInvalidConfig before
// anything is dialled.
func Connect(ctx context.Context, cfg ConnectionConfig) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.InsecureSkipTLSVerify {
		logger.Warn("TLS certificate validation is disabled")
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // deployment toggle
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to document store: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping document store: %w", err)
	}

	logger.Info("Connected to document store database %q", cfg.Database)
	return &Connection{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Database returns the database handle. Returns domain.ErrNotConnected
// when the connection was never established.
func (c *Connection) Database() (*mongo.Database, error) {
	if c == nil || c.db == nil {
		return nil, domain.ErrNotConnected
	}
	return c.db, nil
}

// Close releases the connection. It is idempotent: closing twice, or a
// nil connection, is a no-op.
func (c *Connection) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.client.Disconnect(ctx)
		if c.closeErr == nil {
			logger.Info("Closed document store connection")
		}
	})
	return c.closeErr
}
