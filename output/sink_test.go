package output_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"sheetsync/dataloader/output"
	"sheetsync/dataloader/state"
)

func TestJSONLinesSink(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	sink := output.NewJSONLinesSink(&buf)

	extracted := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := sink.WriteSchema(ctx, "Orders", map[string]any{"type": "object"}, []string{"__sdc_row"}); err != nil {
		t.Fatal(err)
	}
	if err := sink.WriteRecord(ctx, "Orders", map[string]any{"id": int64(1), "url": "a&b"}, extracted); err != nil {
		t.Fatal(err)
	}
	if err := sink.WriteState(ctx, state.SyncState{CurrentlySyncing: "Orders"}); err != nil {
		t.Fatal(err)
	}
	if err := sink.WriteActivateVersion(ctx, "Orders", 1609459200000); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		`{"type":"SCHEMA","stream":"Orders","schema":{"type":"object"},"key_properties":["__sdc_row"]}`,
		`{"type":"RECORD","stream":"Orders","record":{"id":1,"url":"a&b"},"time_extracted":"2021-01-01T00:00:00.000000Z"}`,
		`{"type":"STATE","value":{"currently_syncing":"Orders"}}`,
		`{"type":"ACTIVATE_VERSION","stream":"Orders","version":1609459200000}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %s", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %s, got %s", i, want[i], lines[i])
		}
		if !json.Valid([]byte(lines[i])) {
			t.Errorf("Line %d is not valid JSON", i)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestJSONLinesSink_WriteError(t *testing.T) {
	sink := output.NewJSONLinesSink(failingWriter{})
	err := sink.WriteRecord(context.Background(), "Orders", map[string]any{"a": 1}, time.Time{})
	if !errors.Is(err, output.ErrSinkWrite) {
		t.Errorf("Expected ErrSinkWrite, got %v", err)
	}
}

func TestTee(t *testing.T) {
	var a, b bytes.Buffer
	tee := output.Tee{output.NewJSONLinesSink(&a), output.NewJSONLinesSink(&b)}
	if err := tee.WriteActivateVersion(context.Background(), "Orders", 5); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() || a.Len() == 0 {
		t.Errorf("Expected both sinks to receive the message, got %q and %q", a.String(), b.String())
	}

	failing := output.Tee{output.NewJSONLinesSink(failingWriter{}), output.NewJSONLinesSink(&a)}
	before := a.Len()
	if err := failing.WriteActivateVersion(context.Background(), "Orders", 6); err == nil {
		t.Error("Expected error from failing sink")
	}
	if a.Len() != before {
		t.Error("Expected tee to stop at the first failing sink")
	}
}
