package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sheetsync/dataloader/datalake/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RecordsCollectionPrefix = "stream_"
	syncTableName           = "dataSync"
)

var errNoKeyProperties = errors.New("stream has no key properties")

// MongoRepository implements the repository.Repository interface for MongoDB.
type MongoRepository struct {
	provider CollectionProvider
}

// NewMongoRepository creates a new MongoRepository.
func NewMongoRepository(provider CollectionProvider) *MongoRepository {
	return &MongoRepository{
		provider: provider,
	}
}

// CollectionName maps a stream name to its collection.
func CollectionName(stream string) string {
	replacer := strings.NewReplacer(" ", "_", ".", "_", "$", "_", "/", "_")
	return RecordsCollectionPrefix + strings.ToLower(replacer.Replace(strings.TrimSpace(stream)))
}

// RecordID joins the key property values of data into a document id.
func RecordID(keyProperties []string, data map[string]any) string {
	parts := make([]string, len(keyProperties))
	for i, key := range keyProperties {
		parts[i] = fmt.Sprint(data[key])
	}
	return strings.Join(parts, "|")
}

// UpsertRecords bulk upserts records into the stream's collection, matching
// existing documents on the key properties.
func (r *MongoRepository) UpsertRecords(ctx context.Context, stream string, keyProperties []string, records []model.Record) error {
	if len(records) == 0 {
		return nil // Nothing to upsert
	}
	if len(keyProperties) == 0 {
		return fmt.Errorf("%w, %s", errNoKeyProperties, stream)
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for _, doc := range records {
		filter := bson.M{"_id": RecordID(keyProperties, doc.Data)}
		update := bson.M{"$set": doc}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}

	collectionName := CollectionName(stream)
	collection := r.provider.Collection(collectionName)
	_, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to perform bulk write for collection %s: %w", collectionName, err)
	}

	return nil
}

// DeleteStale deletes documents of stream that were not written by runID.
func (r *MongoRepository) DeleteStale(ctx context.Context, stream, runID string) (int64, error) {
	collectionName := CollectionName(stream)
	collection := r.provider.Collection(collectionName)

	result, err := collection.DeleteMany(ctx, bson.M{"_sdc_run_id": bson.M{"$ne": runID}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale records from %s: %w", collectionName, err)
	}

	return result.DeletedCount, nil
}

// InsertSyncLog records a completed stream load in the dataSync collection.
func (r *MongoRepository) InsertSyncLog(ctx context.Context, log model.SyncLog) error {
	if log.CollectionName == "" {
		log.CollectionName = CollectionName(log.Stream)
	}
	if log.SyncTimestamp.IsZero() {
		log.SyncTimestamp = time.Now()
	}

	syncCollection := r.provider.Collection(syncTableName)
	_, err := syncCollection.InsertOne(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to insert into dataSync collection: %w", err)
	}

	return nil
}
