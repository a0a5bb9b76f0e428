package sheets

import (
	"slices"

	"sheetsync/dataloader/coerce"
)

// BatchResult is the outcome of transforming one page of rows.
type BatchResult struct {
	Records []TypedRecord
	// StopRow is the absolute row at which processing stopped: the empty
	// row that ended the data, or the row after the last row in the batch.
	// StopRow-1 is always the last data row seen.
	StopRow int
	// EndOfData is set when an empty row was found.
	EndOfData bool
}

// TransformBatch converts one page of raw rows into typed records. Values
// are assigned to columns positionally, values past the last column are
// dropped and skipped columns contribute nothing. An empty row ends the data
// and nothing after it is emitted.
func TransformBatch(ws WorksheetDescriptor, batch RawRowBatch) BatchResult {
	cols := slices.Clone(ws.Columns)
	slices.SortFunc(cols, func(a, b ColumnDescriptor) int { return a.Index - b.Index })

	res := BatchResult{
		Records: make([]TypedRecord, 0, len(batch.Rows)),
		StopRow: batch.FromRow + len(batch.Rows),
	}

	for i, row := range batch.Rows {
		rowNum := batch.FromRow + i
		if len(row) == 0 {
			res.StopRow = rowNum
			res.EndOfData = true
			return res
		}

		rec := TypedRecord{
			FieldSpreadsheetID: ws.SpreadsheetID,
			FieldSheetID:       ws.SheetID,
			FieldRow:           rowNum,
		}
		for j, value := range row {
			if j >= len(cols) {
				break
			}
			col := cols[j]
			if col.Skipped {
				continue
			}
			rec[col.Name] = coerce.Coerce(value, col.Type)
		}

		res.Records = append(res.Records, rec)
	}

	return res
}
