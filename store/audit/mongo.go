package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/types"
)

// documentInserter is the subset of *mongo.Collection used by MongoSink.
type documentInserter interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// MongoSink inserts entries into a MongoDB collection.
type MongoSink struct {
	coll   documentInserter
	client *mongo.Client
}

// NewMongoSink wraps an existing collection.
func NewMongoSink(coll *mongo.Collection) *MongoSink {
	return &MongoSink{coll: coll}
}

// ConnectMongo opens a client and returns a sink that owns it.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig, collection string) (*MongoSink, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if collection == "" {
		collection = "audit_entries"
	}
	return &MongoSink{
		coll:   client.Database(cfg.Database).Collection(collection),
		client: client,
	}, nil
}

// Append implements Sink.
func (s *MongoSink) Append(ctx context.Context, e types.AuditEntry) error {
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert audit document: %w", err)
	}
	return nil
}

// Close disconnects the client when the sink owns it.
func (s *MongoSink) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
