package model

import "time"

// SyncLog represents a record in the dataSync collection.
type SyncLog struct {
	CollectionName  string    `bson:"collection_name"`
	Stream          string    `bson:"stream"`
	RunID           string    `bson:"run_id"`
	Version         int64     `bson:"version"`
	SyncTimestamp   time.Time `bson:"sync_timestamp"`
	RecordsUploaded int64     `bson:"records_uploaded"`
	RecordsDeleted  int64     `bson:"records_deleted"`
}
