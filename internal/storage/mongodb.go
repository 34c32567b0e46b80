package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"slideforge/internal/core"
)

// MongoStore implements Store on a MongoDB database with two collections:
// artifacts and credit_accounts.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDB connects to MongoDB and verifies connectivity.
func NewMongoDB(ctx context.Context, url, dbName string) (*MongoStore, error) {
	if url == "" {
		return nil, fmt.Errorf("MongoDB URL is required")
	}
	if dbName == "" {
		dbName = "slideforge"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &MongoStore{
		client:   client,
		database: client.Database(dbName),
	}, nil
}

// SaveArtifact persists the artifact and metadata as one document.
func (s *MongoStore) SaveArtifact(ctx context.Context, artifact *core.GeneratedArtifact, meta ArtifactMeta) (string, error) {
	id := artifact.ID
	if id == "" {
		id = uuid.NewString()
	}

	doc := bson.M{
		"_id":          id,
		"title":        artifact.Title,
		"kind":         string(artifact.Kind),
		"style":        artifact.Style,
		"category":     meta.Category,
		"content":      artifact,
		"meta":         meta,
		"provider":     artifact.Provenance.Provider,
		"fallback":     artifact.Provenance.Fallback,
		"trend_source": meta.TrendSource,
		"created_at":   bson.NewDateTimeFromTime(artifact.Provenance.GeneratedAt),
	}
	if _, err := s.database.Collection("artifacts").InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert artifact: %w", err)
	}
	return id, nil
}

// ReadCreditBalance returns the principal's balance, zero when the account
// does not exist.
func (s *MongoStore) ReadCreditBalance(ctx context.Context, principal string) (int, error) {
	var out struct {
		Balance int `bson:"balance"`
	}
	err := s.database.Collection("credit_accounts").
		FindOne(ctx, bson.M{"_id": principal}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read credit balance: %w", err)
	}
	return out.Balance, nil
}

// ApplyCreditDelta adjusts a balance atomically via a conditional
// findOneAndUpdate; negative deltas only match documents with enough
// balance to absorb them.
func (s *MongoStore) ApplyCreditDelta(ctx context.Context, principal string, delta int) (bool, error) {
	coll := s.database.Collection("credit_accounts")

	if delta >= 0 {
		_, err := coll.UpdateOne(ctx,
			bson.M{"_id": principal},
			bson.M{"$inc": bson.M{"balance": delta}},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return false, fmt.Errorf("update credit balance: %w", err)
		}
		return true, nil
	}

	res := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": principal, "balance": bson.M{"$gte": -delta}},
		bson.M{"$inc": bson.M{"balance": delta}},
	)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("update credit balance: %w", err)
	}
	return true, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	if s.client != nil {
		return s.client.Disconnect(context.Background())
	}
	return nil
}
