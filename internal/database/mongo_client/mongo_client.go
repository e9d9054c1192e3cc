package mongo_client

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Connect opens a Mongo client and verifies it with a ping. Used when the
// durable message store runs on a document database instead of Postgres.
func Connect(url string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		zap.L().Error("mongo_connect", zap.Error(err))
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		zap.L().Error("mongo_ping", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
