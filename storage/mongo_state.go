package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sheetsync/dataloader/state"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const stateCollection = "syncState"

type stateDocument struct {
	ID               string            `bson:"_id"`
	Bookmarks        map[string]string `bson:"bookmarks"`
	CurrentlySyncing string            `bson:"currently_syncing,omitempty"`
	UpdatedAt        time.Time         `bson:"updated_at"`
}

// MongoStateStore keeps the sync state as one document in the syncState
// collection.
type MongoStateStore struct {
	provider CollectionProvider
	key      string
}

// NewMongoStateStore creates a state store for key. The collection is
// resolved on each Load and Save.
func NewMongoStateStore(provider CollectionProvider, key string) *MongoStateStore {
	return &MongoStateStore{provider: provider, key: key}
}

func (s *MongoStateStore) Load(ctx context.Context) (state.SyncState, error) {
	var doc stateDocument
	err := s.provider.Collection(stateCollection).FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return state.SyncState{}, nil
	}
	if err != nil {
		return state.SyncState{}, fmt.Errorf("failed to load sync state %s: %w", s.key, err)
	}

	return state.SyncState{Bookmarks: doc.Bookmarks, CurrentlySyncing: doc.CurrentlySyncing}, nil
}

func (s *MongoStateStore) Save(ctx context.Context, st state.SyncState) error {
	doc := stateDocument{
		ID:               s.key,
		Bookmarks:        st.Bookmarks,
		CurrentlySyncing: st.CurrentlySyncing,
		UpdatedAt:        time.Now().UTC(),
	}

	_, err := s.provider.Collection(stateCollection).ReplaceOne(ctx, bson.M{"_id": s.key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save sync state %s: %w", s.key, err)
	}

	return nil
}
