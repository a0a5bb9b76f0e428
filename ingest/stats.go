package ingest

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Stats holds statistics about one sync pass.
type Stats struct {
	RunID         string
	Unchanged     bool
	StreamsSynced int
	PagesFetched  int
	SheetsSkipped int
	Records       map[string]int
	Failures      map[string]string
	Started       time.Time
	Finished      time.Time
}

// NewStats creates and initializes a new Stats object.
func NewStats(runID string, started time.Time) *Stats {
	return &Stats{
		RunID:    runID,
		Records:  make(map[string]int),
		Failures: make(map[string]string),
		Started:  started,
	}
}

// AddRecords counts n records emitted for stream.
func (s *Stats) AddRecords(stream string, n int) {
	s.Records[stream] += n
}

// AddFailure records the stream that failed and its reason.
func (s *Stats) AddFailure(stream, reason string) {
	s.Failures[stream] = reason
}

// TotalRecords sums records over every stream.
func (s *Stats) TotalRecords() int {
	total := 0
	for _, n := range s.Records {
		total += n
	}
	return total
}

// Log prints the final statistics to the provided logger.
func (s *Stats) Log(logger *slog.Logger) {
	logger.Info("--- Sync Stats ---", "runID", s.RunID)
	if s.Unchanged {
		logger.Info("Spreadsheet unchanged since last sync")
	}
	logger.Info(fmt.Sprintf("Streams synced: %d", s.StreamsSynced))
	logger.Info(fmt.Sprintf("Pages fetched: %d", s.PagesFetched))
	logger.Info(fmt.Sprintf("Sheets skipped: %d", s.SheetsSkipped))
	logger.Info(fmt.Sprintf("Records emitted: %d", s.TotalRecords()))

	streams := make([]string, 0, len(s.Records))
	for stream := range s.Records {
		streams = append(streams, stream)
	}
	sort.Strings(streams)
	for _, stream := range streams {
		logger.Info(fmt.Sprintf("- %s: %d", stream, s.Records[stream]))
	}

	if len(s.Failures) > 0 {
		logger.Info("Failed streams:")
		for stream, reason := range s.Failures {
			logger.Info(fmt.Sprintf("- %s: %s", stream, reason))
		}
	}
	if !s.Finished.IsZero() {
		logger.Info(fmt.Sprintf("Duration: %s", s.Finished.Sub(s.Started).Round(time.Millisecond)))
	}
	logger.Info("------------------")
}
