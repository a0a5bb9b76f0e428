package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedule_InvalidExpression(t *testing.T) {
	err := Schedule(context.Background(), "not a schedule", func(context.Context) {})
	if err == nil {
		t.Error("Expected error for invalid schedule")
	}
}

func TestSchedule_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Schedule(ctx, "@every 1s", func(context.Context) {
			if runs.Add(1) == 1 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Schedule returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Schedule did not stop after cancellation")
	}
	if runs.Load() < 1 {
		t.Error("Expected at least one run")
	}
}
