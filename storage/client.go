package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sheetsync/dataloader/appcontext"
)

const (
	appName                = "sheetsync-dataloader"
	serverSelectionTimeout = 10 * time.Second
)

// MongoClient is the part of *mongo.Client the loader and state store use.
type MongoClient interface {
	Disconnect(ctx context.Context) error
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

type mongoClientWrapper struct {
	*mongo.Client
}

// NewMongoClient wraps client as a MongoClient.
func NewMongoClient(client *mongo.Client) MongoClient {
	return &mongoClientWrapper{client}
}

// ConnectToMongoDBFunc is the connect function Setup calls; tests replace it.
var ConnectToMongoDBFunc = ConnectToMongoDB

// ConnectToMongoDB connects to uri and pings the primary before returning.
func ConnectToMongoDB(ctx context.Context, uri string) (MongoClient, error) {
	logger := appcontext.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "Attempting to connect to MongoDB")

	clientOptions := options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.InfoContext(ctx, "Successfully established connection to MongoDB")
	return NewMongoClient(client), nil
}
