package model

import "time"

// Record is one stream record as mirrored into the datalake.
type Record struct {
	Stream      string         `bson:"_sdc_stream"`
	RunID       string         `bson:"_sdc_run_id"`
	ExtractedAt time.Time      `bson:"_sdc_extracted_at"`
	LoadedAt    time.Time      `bson:"_sdc_loaded_at"`
	Data        map[string]any `bson:"data"`
}
