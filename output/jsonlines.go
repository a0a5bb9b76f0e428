package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"sheetsync/dataloader/appcontext"
	"sheetsync/dataloader/state"
)

// JSONLinesSink writes one JSON message per line, normally to stdout.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLinesSink{enc: enc}
}

func (s *JSONLinesSink) WriteSchema(ctx context.Context, stream string, schema map[string]any, keyProperties []string) error {
	return s.write(ctx, Message{Type: TypeSchema, Stream: stream, Schema: schema, KeyProperties: keyProperties})
}

func (s *JSONLinesSink) WriteRecord(ctx context.Context, stream string, record map[string]any, extracted time.Time) error {
	msg := Message{Type: TypeRecord, Stream: stream, Record: record}
	if !extracted.IsZero() {
		msg.TimeExtracted = extracted.UTC().Format(TimeExtractedLayout)
	}
	return s.write(ctx, msg)
}

func (s *JSONLinesSink) WriteState(ctx context.Context, st state.SyncState) error {
	return s.write(ctx, Message{Type: TypeState, Value: &st})
}

func (s *JSONLinesSink) WriteActivateVersion(ctx context.Context, stream string, version int64) error {
	return s.write(ctx, Message{Type: TypeActivateVersion, Stream: stream, Version: version})
}

func (s *JSONLinesSink) write(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(msg); err != nil {
		appcontext.LoggerFromContext(ctx).ErrorContext(ctx, "Failed to write message", "type", msg.Type, "stream", msg.Stream, "error", err)
		return SinkWriteError(msg.Type, msg.Stream, err)
	}

	return nil
}
