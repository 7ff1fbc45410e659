package share

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures a MongoDB share store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// mongoShare is the stored document. The snapshot is kept as its JSON
// encoding, not a nested BSON document, so the share format stays identical
// across backends.
type mongoShare struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at,omitempty"`
}

// MongoStore is a MongoDB-backed share store for deployments where shares
// must outlive a cache.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "cloudcanvas"
	}
	if cfg.Collection == "" {
		cfg.Collection = "shares"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Share, error) {
	var doc mongoShare
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}

	var sh Share
	if err := json.Unmarshal(doc.Data, &sh); err != nil {
		return nil, fmt.Errorf("parse share: %w", err)
	}
	if sh.IsExpired() {
		return nil, nil
	}
	return &sh, nil
}

func (s *MongoStore) Set(ctx context.Context, sh *Share) error {
	data, err := json.Marshal(sh)
	if err != nil {
		return fmt.Errorf("marshal share: %w", err)
	}

	doc := mongoShare{
		ID:        sh.ID,
		Data:      data,
		CreatedAt: sh.CreatedAt,
		ExpiresAt: sh.ExpiresAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": sh.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

// Cleanup removes expired shares.
func (s *MongoStore) Cleanup(ctx context.Context) error {
	filter := bson.M{
		"expires_at": bson.M{"$gt": time.Time{}, "$lt": time.Now()},
	}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("mongo cleanup: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
