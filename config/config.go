package config

import (
	"time"
)

// State backends.
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
	StateBackendMongo  = "mongo"
	StateBackendS3     = "s3"
)

// Config holds the application configuration.
type Config struct {
	SpreadsheetID   string   `json:"spreadsheet_id" validate:"required"`
	StartDate       string   `json:"start_date" validate:"required"`
	SelectedStreams []string `json:"selected_streams"`

	AccessToken   string `json:"access_token"`
	UserAgent     string `json:"user_agent"`
	SheetsBaseURL string `json:"sheets_base_url" validate:"omitempty,url"`
	DriveBaseURL  string `json:"drive_base_url" validate:"omitempty,url"`
	// RequestTimeoutSeconds bounds each HTTP request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds" validate:"gte=0"`
	MaxRetries            int `json:"max_retries" validate:"gte=0"`

	StateBackend string `json:"state_backend" validate:"oneof=file sqlite mongo s3"`
	StatePath    string `json:"state_path" validate:"required_if=StateBackend file,required_if=StateBackend sqlite"`
	StateKey     string `json:"state_key"`

	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`
	MirrorToMongo bool   `json:"mirror_to_mongo"`

	S3Bucket   string `json:"s3_bucket" validate:"required_if=StateBackend s3"`
	S3Region   string `json:"s3_region"`
	S3Endpoint string `json:"s3_endpoint"`

	// Schedule is a cron expression used by the schedule command.
	Schedule string `json:"schedule"`

	SyntheticDataDir  string `json:"synthetic_data_dir"`
	SyntheticDataRows int    `json:"synthetic_data_rows" validate:"gte=0"`

	Timeout time.Duration `json:"-"`
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Selected reports whether stream was selected. An empty selection selects
// every stream.
func (c *Config) Selected(stream string) bool {
	if len(c.SelectedStreams) == 0 {
		return true
	}
	for _, s := range c.SelectedStreams {
		if s == stream {
			return true
		}
	}
	return false
}

// UsesMongo reports whether a MongoDB connection is required.
func (c *Config) UsesMongo() bool {
	return c.MirrorToMongo || c.StateBackend == StateBackendMongo
}
