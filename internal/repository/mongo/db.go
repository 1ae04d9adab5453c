package mongo

import (
	"alcyxob/gym-manager/internal/config"
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	appName        = "gym-manager"
)

// Open connects to cfg.URI, pings the primary and returns the gym database
// together with a func that disconnects the client.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Database, func(), error) {
	if cfg.Name == "" {
		return nil, nil, fmt.Errorf("mongo: database name is empty")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(connectTimeout).
		SetBSONOptions(&options.BSONOptions{UseLocalTimeZone: true})
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}

	closeFn := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), connectTimeout)
		defer dcancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("mongo: ping: %w", err)
	}

	log.Printf("INFO: Connected to MongoDB database %s", cfg.Name)
	return client.Database(cfg.Name), closeFn, nil
}
