package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StateCollection holds one document per (room scope, key)
const StateCollection = "room_state"

type stateDoc struct {
	ID        string    `bson:"_id"`
	Scope     string    `bson:"scope"`
	Key       string    `bson:"key"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// StateRepo is a MongoDB backed room state store
type StateRepo struct {
	collection *mongo.Collection
}

func NewStateRepo(db *mongo.Database) *StateRepo {
	return &StateRepo{
		collection: db.Collection(StateCollection),
	}
}

func docID(scope, key string) string {
	return scope + "/" + key
}

func (r *StateRepo) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var doc stateDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": docID(scope, key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo find %s/%s: %w", scope, key, err)
	}
	return doc.Value, nil
}

func (r *StateRepo) Put(ctx context.Context, scope, key string, value []byte) error {
	doc := stateDoc{
		ID:        docID(scope, key),
		Scope:     scope,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s/%s: %w", scope, key, err)
	}
	return nil
}

// EnsureIndexes creates the scope index used to list a room's keys
func (r *StateRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "scope", Value: 1}},
	})
	return err
}
