// Package output writes sync messages (schemas, records, state and version
// activations) to downstream consumers.
package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sheetsync/dataloader/state"
)

// ErrSinkWrite is returned when a message could not be delivered downstream.
var ErrSinkWrite = errors.New("error writing to output sink")

// SinkWriteError is a error wrapper.
func SinkWriteError(messageType, stream string, baseErr error) error {
	return fmt.Errorf("%w, %s %s: %w", ErrSinkWrite, messageType, stream, baseErr)
}

// Message types.
const (
	TypeSchema          = "SCHEMA"
	TypeRecord          = "RECORD"
	TypeState           = "STATE"
	TypeActivateVersion = "ACTIVATE_VERSION"
)

// Sink receives every message of a sync pass in order.
type Sink interface {
	WriteSchema(ctx context.Context, stream string, schema map[string]any, keyProperties []string) error
	WriteRecord(ctx context.Context, stream string, record map[string]any, extracted time.Time) error
	WriteState(ctx context.Context, s state.SyncState) error
	WriteActivateVersion(ctx context.Context, stream string, version int64) error
}

// Message is the wire form of one output line.
type Message struct {
	Type          string           `json:"type"`
	Stream        string           `json:"stream,omitempty"`
	Schema        map[string]any   `json:"schema,omitempty"`
	KeyProperties []string         `json:"key_properties,omitempty"`
	Record        map[string]any   `json:"record,omitempty"`
	TimeExtracted string           `json:"time_extracted,omitempty"`
	Version       int64            `json:"version,omitempty"`
	Value         *state.SyncState `json:"value,omitempty"`
}

// TimeExtractedLayout formats time_extracted.
const TimeExtractedLayout = "2006-01-02T15:04:05.000000Z"
