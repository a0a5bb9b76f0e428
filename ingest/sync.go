// Package ingest runs a sync pass: it walks the spreadsheet's streams in
// order, paginates selected worksheets and checkpoints at stream boundaries.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sheetsync/dataloader/appcontext"
	"sheetsync/dataloader/coerce"
	"sheetsync/dataloader/config"
	"sheetsync/dataloader/output"
	"sheetsync/dataloader/sheets"
	"sheetsync/dataloader/state"
)

var errSheetNotInGrid = errors.New("sheet missing from grid data")

// SheetNotInGridError is a error wrapper.
func SheetNotInGridError(title string, sheetID int64) error {
	return fmt.Errorf("%w, %s (sheetId %d)", errSheetNotInGrid, title, sheetID)
}

// Client is the subset of the API client a sync needs.
type Client interface {
	FileMetadata(ctx context.Context, spreadsheetID string) ([]byte, error)
	SpreadsheetMetadata(ctx context.Context, spreadsheetID string) ([]byte, error)
	SheetMetadata(ctx context.Context, spreadsheetID, sheetTitle string) ([]byte, error)
	SheetValues(ctx context.Context, spreadsheetID, sheetTitle, rangeRows string) ([]byte, error)
}

// SyncDependencies holds all the dependencies for the Syncer.
type SyncDependencies struct {
	Config *config.Config
	Client Client
	Store  state.Store
	Sink   output.Sink
	// Now defaults to time.Now.
	Now func() time.Time
}

// Syncer runs sync passes. Activation versions stay strictly increasing
// across every pass run by the same Syncer.
type Syncer struct {
	deps        SyncDependencies
	now         func() time.Time
	lastVersion int64
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(deps SyncDependencies) *Syncer {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Syncer{deps: deps, now: now}
}

// syncRun is the state of one pass.
type syncRun struct {
	*Syncer
	checkpoint    *state.Checkpoint
	stats         *Stats
	spreadsheetID string
}

// Run executes one sync pass. Any error is fatal to the pass; the last
// persisted state is logged before it is returned.
func (s *Syncer) Run(ctx context.Context) (*Stats, error) {
	runID := uuid.NewString()
	ctx = appcontext.WithRunID(ctx, runID)
	logger := appcontext.LoggerFromContext(ctx)

	stats := NewStats(runID, s.now())
	logger.InfoContext(ctx, "Starting sync", "spreadsheetId", s.deps.Config.SpreadsheetID, "selectedStreams", s.deps.Config.SelectedStreams)

	cp, err := state.NewCheckpoint(ctx, s.deps.Store, s.deps.Sink.WriteState)
	if err != nil {
		return stats, err
	}

	run := &syncRun{
		Syncer:        s,
		checkpoint:    cp,
		stats:         stats,
		spreadsheetID: s.deps.Config.SpreadsheetID,
	}

	err = run.execute(ctx)
	stats.Finished = s.now()
	if err != nil {
		snapshot := cp.Snapshot()
		logger.ErrorContext(ctx, "Sync failed", "error", err,
			"currentlySyncing", snapshot.CurrentlySyncing, "bookmarks", snapshot.Bookmarks)
		return stats, err
	}

	logger.InfoContext(ctx, "Sync completed", "records", stats.TotalRecords())
	return stats, nil
}

func (r *syncRun) execute(ctx context.Context) error {
	logger := appcontext.LoggerFromContext(ctx)
	cfg := r.deps.Config

	// file_metadata
	extracted := r.now()
	body, err := r.deps.Client.FileMetadata(ctx, r.spreadsheetID)
	if err != nil {
		return fmt.Errorf("fetching file metadata: %w", err)
	}
	fileMetadata, err := sheets.DecodeObject(body)
	if err != nil {
		return fmt.Errorf("decoding file metadata: %w", err)
	}
	modified, err := sheets.ModifiedTime(fileMetadata)
	if err != nil {
		return err
	}
	last, err := sheets.ParseTimestamp(r.checkpoint.Bookmark(sheets.StreamFileMetadata, cfg.StartDate))
	if err != nil {
		return fmt.Errorf("parsing file_metadata bookmark: %w", err)
	}

	logger.InfoContext(ctx, "Checking file modification", "lastModified", last, "modified", modified)
	if !modified.After(last) {
		logger.InfoContext(ctx, "File not changed since last sync, exiting", "currentlySyncing", r.checkpoint.CurrentlySyncing())
		r.stats.Unchanged = true
		return nil
	}

	if err := r.syncMetadataStream(ctx, sheets.StreamFileMetadata, []map[string]any{sheets.TransformFileMetadata(fileMetadata)}, extracted); err != nil {
		return err
	}
	if err := r.checkpoint.SetBookmark(ctx, sheets.StreamFileMetadata, sheets.FormatModifiedTime(modified)); err != nil {
		return err
	}

	// spreadsheet_metadata
	extracted = r.now()
	body, err = r.deps.Client.SpreadsheetMetadata(ctx, r.spreadsheetID)
	if err != nil {
		return fmt.Errorf("fetching spreadsheet metadata: %w", err)
	}
	spreadsheet, rawSpreadsheet, err := sheets.ParseSpreadsheet(body)
	if err != nil {
		return err
	}
	if err := r.syncMetadataStream(ctx, sheets.StreamSpreadsheetMetadata, []map[string]any{sheets.TransformSpreadsheetMetadata(rawSpreadsheet)}, extracted); err != nil {
		return err
	}

	// worksheets
	wantSheetMetadata := cfg.Selected(sheets.StreamSheetMetadata)
	var sheetMetadata, sheetsLoaded []map[string]any
	for _, sheet := range spreadsheet.Sheets {
		title := sheet.Properties.Title
		if sheet.Properties.SheetType != "" && sheet.Properties.SheetType != sheets.SheetTypeGrid {
			logger.InfoContext(ctx, "Skipping non-grid sheet", "sheet", title, "sheetType", sheet.Properties.SheetType)
			r.stats.SheetsSkipped++
			continue
		}

		selected := cfg.Selected(title)
		if !selected && !wantSheetMetadata {
			continue
		}

		columns, err := r.loadColumns(ctx, sheet)
		if err != nil {
			return err
		}
		sheetMetadata = append(sheetMetadata, sheets.TransformSheetMetadata(r.spreadsheetID, sheet, columns))

		if !selected {
			continue
		}

		result, err := r.syncWorksheet(ctx, sheet, columns, extracted)
		if err != nil {
			r.stats.AddFailure(title, err.Error())
			return err
		}

		sheetsLoaded = append(sheetsLoaded, map[string]any{
			"spreadsheetId": r.spreadsheetID,
			"sheetId":       sheet.Properties.SheetID,
			"title":         title,
			"loadDate":      coerce.FormatTimestamp(r.now()),
			"lastRowNumber": result.LastRow,
		})
	}

	if err := r.syncMetadataStream(ctx, sheets.StreamSheetMetadata, sheetMetadata, r.now()); err != nil {
		return err
	}
	return r.syncMetadataStream(ctx, sheets.StreamSheetsLoaded, sheetsLoaded, r.now())
}

// syncMetadataStream emits one fixed stream when it is selected.
func (r *syncRun) syncMetadataStream(ctx context.Context, stream string, records []map[string]any, extracted time.Time) error {
	if !r.deps.Config.Selected(stream) {
		return nil
	}

	logger := appcontext.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "Started syncing stream", "stream", stream)

	def, _ := sheets.MetadataStream(stream)
	if err := r.checkpoint.BeginStream(ctx, stream); err != nil {
		return err
	}
	if err := r.deps.Sink.WriteSchema(ctx, stream, sheets.MetadataSchema(stream), def.KeyProperties); err != nil {
		return err
	}
	for _, rec := range records {
		if err := r.deps.Sink.WriteRecord(ctx, stream, rec, extracted); err != nil {
			return err
		}
	}
	if err := r.checkpoint.EndStream(ctx); err != nil {
		return err
	}

	r.stats.StreamsSynced++
	r.stats.AddRecords(stream, len(records))
	logger.InfoContext(ctx, "Finished syncing stream", "stream", stream, "records", len(records))
	return nil
}

// loadColumns fetches the header and first data row of sheet and derives
// its columns.
func (r *syncRun) loadColumns(ctx context.Context, sheet sheets.Sheet) ([]sheets.ColumnDescriptor, error) {
	body, err := r.deps.Client.SheetMetadata(ctx, r.spreadsheetID, sheet.Properties.Title)
	if err != nil {
		return nil, fmt.Errorf("fetching sheet metadata for %s: %w", sheet.Properties.Title, err)
	}
	grid, _, err := sheets.ParseSpreadsheet(body)
	if err != nil {
		return nil, err
	}

	for _, gs := range grid.Sheets {
		if gs.Properties.SheetID == sheet.Properties.SheetID {
			return sheets.DeriveColumns(gs), nil
		}
	}
	if len(grid.Sheets) == 1 {
		return sheets.DeriveColumns(grid.Sheets[0]), nil
	}

	return nil, SheetNotInGridError(sheet.Properties.Title, sheet.Properties.SheetID)
}

// syncWorksheet paginates one selected worksheet and activates its new
// version.
func (r *syncRun) syncWorksheet(ctx context.Context, sheet sheets.Sheet, columns []sheets.ColumnDescriptor, extracted time.Time) (*sheets.PaginationResult, error) {
	logger := appcontext.LoggerFromContext(ctx)
	title := sheet.Properties.Title
	logger.InfoContext(ctx, "Started syncing sheet", "sheet", title)

	ws := sheets.NewWorksheetDescriptor(r.spreadsheetID, sheet.Properties, columns)
	if err := r.checkpoint.BeginStream(ctx, title); err != nil {
		return nil, err
	}
	if err := r.deps.Sink.WriteSchema(ctx, title, sheets.WorksheetSchema(columns), sheets.WorksheetKeyProperties); err != nil {
		return nil, err
	}

	paginator := sheets.NewPaginator(valuesFetcher{client: r.deps.Client, spreadsheetID: r.spreadsheetID})
	result, err := paginator.Run(ctx, ws, func(ctx context.Context, records []sheets.TypedRecord) error {
		for _, rec := range records {
			if err := r.deps.Sink.WriteRecord(ctx, title, rec, extracted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.deps.Sink.WriteActivateVersion(ctx, title, r.nextVersion()); err != nil {
		return nil, err
	}
	if err := r.checkpoint.EndStream(ctx); err != nil {
		return nil, err
	}

	r.stats.StreamsSynced++
	r.stats.PagesFetched += result.Pages
	r.stats.AddRecords(title, result.Records)
	logger.InfoContext(ctx, "Finished syncing sheet", "sheet", title, "rows", result.Records, "lastRow", result.LastRow)

	return result, nil
}

// nextVersion returns a wall-clock version in milliseconds, bumped past the
// previous one when the clock has not advanced.
func (s *Syncer) nextVersion() int64 {
	v := s.now().UnixMilli()
	if v <= s.lastVersion {
		v = s.lastVersion + 1
	}
	s.lastVersion = v
	return v
}

type valuesFetcher struct {
	client        Client
	spreadsheetID string
}

func (f valuesFetcher) FetchRows(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error) {
	body, err := f.client.SheetValues(ctx, f.spreadsheetID, sheetTitle, rangeExpr)
	if err != nil {
		return nil, err
	}
	return sheets.DecodeValues(body)
}
