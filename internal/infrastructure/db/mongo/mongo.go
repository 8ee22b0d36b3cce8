// Package mongo holds the user persistence layer of the flora-shop backend.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	connectTimeout = 10 * time.Second

	// Account reads and writes are small documents; a modest pool is plenty.
	defaultMaxPoolSize = 20
)

// Config carries the connection settings for the user database.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

// Conn bundles the client with the selected database so the caller can tear
// both down with a single Close.
type Conn struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Open connects to the user database and verifies it answers a ping before
// any handler depends on it.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	pool := cfg.MaxPoolSize
	if pool == 0 {
		pool = defaultMaxPoolSize
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(pool))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(dialCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Conn{Client: client, DB: client.Database(cfg.Database)}, nil
}

// Close disconnects the client, bounded by its own timeout so shutdown never
// hangs on a dead server.
func (c *Conn) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Client.Disconnect(closeCtx)
}
