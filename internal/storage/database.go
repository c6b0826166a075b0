package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tooldex/tooldex/internal/catalog"
	"github.com/tooldex/tooldex/internal/config"
)

// MongoSink mirrors the result set into a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	mu         sync.Mutex
	logger     *slog.Logger
}

// NewMongoSink connects and verifies the MongoDB backend.
func NewMongoSink(cfg config.MongoConfig, logger *slog.Logger) (*MongoSink, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    timeout,
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

// Write upserts every record keyed by its source URL, so repeated rewrites
// and resumed runs never produce duplicate documents.
func (s *MongoSink) Write(records []catalog.ToolRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	for _, rec := range records {
		_, err := s.collection.ReplaceOne(ctx,
			bson.M{"source_url": rec.SourceURL},
			rec,
			options.Replace().SetUpsert(true))
		if err != nil {
			return &Error{Backend: "mongodb", Op: "upsert", Err: err}
		}
	}

	s.logger.Debug("records mirrored to mongodb", "count", len(records))
	return nil
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
