package sheets

import (
	"context"
	"fmt"

	"sheetsync/dataloader/appcontext"
	"sheetsync/dataloader/coerce"
)

const (
	// DefaultBatchSize is the number of rows requested per page.
	DefaultBatchSize = 200
	// FirstDataRow is the first row below the header.
	FirstDataRow = 2
)

// RowFetcher reads one A1 range of a worksheet as raw rows.
type RowFetcher interface {
	FetchRows(ctx context.Context, sheetTitle, rangeExpr string) ([][]coerce.Value, error)
}

// PageHandler receives the records of each non-empty page in row order.
type PageHandler func(ctx context.Context, records []TypedRecord) error

// PaginationResult summarizes one worksheet read.
type PaginationResult struct {
	// LastRow is the last data row seen, or 1 when the sheet has no data.
	LastRow int
	Pages   int
	Records int
}

// Paginator walks a worksheet in fixed-size row ranges.
type Paginator struct {
	Fetcher   RowFetcher
	BatchSize int
}

// NewPaginator returns a Paginator using DefaultBatchSize.
func NewPaginator(fetcher RowFetcher) *Paginator {
	return &Paginator{Fetcher: fetcher, BatchSize: DefaultBatchSize}
}

// RangeExpression renders the A1 range for rows fromRow..toRow.
func RangeExpression(fromRow int, lastColumnLetter string, toRow int) string {
	return fmt.Sprintf("A%d:%s%d", fromRow, lastColumnLetter, toRow)
}

// Run reads ws page by page and hands every page's records to handle. It
// stops on an empty page, on a page shorter than requested, on an empty row,
// or once the next page would start at or past the sheet's last row.
func (p *Paginator) Run(ctx context.Context, ws WorksheetDescriptor, handle PageHandler) (*PaginationResult, error) {
	logger := appcontext.LoggerFromContext(ctx)

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	res := &PaginationResult{LastRow: FirstDataRow - 1}
	fromRow := FirstDataRow
	for fromRow < ws.MaxRow {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		toRow := min(fromRow+batchSize-1, ws.MaxRow)
		rangeExpr := RangeExpression(fromRow, ws.MaxColumnLetter, toRow)

		rows, err := p.Fetcher.FetchRows(ctx, ws.Title, rangeExpr)
		if err != nil {
			return nil, fmt.Errorf("fetching %s!%s: %w", ws.Title, rangeExpr, err)
		}
		res.Pages++

		batch := TransformBatch(ws, RawRowBatch{FromRow: fromRow, Rows: rows})
		res.LastRow = batch.StopRow - 1

		if len(batch.Records) > 0 {
			if err := handle(ctx, batch.Records); err != nil {
				return nil, err
			}
			res.Records += len(batch.Records)
		}

		logger.DebugContext(ctx, "Fetched sheet page", "sheet", ws.Title, "range", rangeExpr, "rows", len(rows), "records", len(batch.Records))

		if len(rows) == 0 || batch.EndOfData || batch.StopRow <= toRow {
			break
		}
		fromRow = toRow + 1
	}

	return res, nil
}
