package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSettings tunes the client behind MongoKV. Zero values take defaults
// sized for cart slots: single-document reads and upserts that have to fit
// inside a request.
type MongoSettings struct {
	AppName          string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
	MaxPoolSize      uint64
}

func (s MongoSettings) withDefaults() MongoSettings {
	if s.AppName == "" {
		s.AppName = "sweet-trails-storefront"
	}
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = 3 * time.Second
	}
	if s.OperationTimeout <= 0 {
		// restores give up after 2s, so a slower read is wasted work
		s.OperationTimeout = 2 * time.Second
	}
	if s.MaxPoolSize == 0 {
		s.MaxPoolSize = 20
	}
	return s
}

func mongoClientOptions(uri string, s MongoSettings) *options.ClientOptions {
	s = s.withDefaults()
	return options.Client().
		ApplyURI(uri).
		SetAppName(s.AppName).
		SetConnectTimeout(s.ConnectTimeout).
		SetServerSelectionTimeout(s.OperationTimeout).
		SetTimeout(s.OperationTimeout).
		SetMaxPoolSize(s.MaxPoolSize).
		SetRetryReads(true).
		SetRetryWrites(true)
}

// ConnectMongo opens a client, checks the primary answers and returns the
// cart database. The client is disconnected again if the check fails.
func ConnectMongo(ctx context.Context, uri, database string, s MongoSettings) (*mongo.Database, error) {
	if database == "" {
		return nil, fmt.Errorf("mongo storage: database name is empty")
	}

	client, err := mongo.Connect(ctx, mongoClientOptions(uri, s))
	if err != nil {
		return nil, fmt.Errorf("mongo storage: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo storage: primary unreachable: %w", err)
	}

	return client.Database(database), nil
}
