package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stateDocument is one state key. The value is kept as JSON text so it round-trips unchanged.
type stateDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps state keys as documents in one collection.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{
		collection: db.Collection(collection),
	}
}

func (r *MongoStore) Load(ctx context.Context, key string) (json.RawMessage, error) {
	var doc stateDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return json.RawMessage(doc.Value), nil
}

func (r *MongoStore) Save(ctx context.Context, key string, value json.RawMessage) error {
	update := bson.M{
		"$set": bson.M{
			"value":      string(value),
			"updated_at": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": key}, update, opts); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
