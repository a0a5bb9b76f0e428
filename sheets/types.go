// Package sheets models worksheets and turns pages of raw cell values into
// typed records.
package sheets

import (
	"sheetsync/dataloader/coerce"
)

// Synthetic fields added to every worksheet record.
const (
	FieldSpreadsheetID = "__sdc_spreadsheet_id"
	FieldSheetID       = "__sdc_sheet_id"
	FieldRow           = "__sdc_row"
)

// ColumnDescriptor describes one worksheet column as derived at discovery.
type ColumnDescriptor struct {
	// Index is 1-based.
	Index   int               `json:"columnIndex"`
	Letter  string            `json:"columnLetter"`
	Name    string            `json:"columnName"`
	Type    coerce.ColumnType `json:"columnType"`
	Skipped bool              `json:"columnSkipped"`
}

// WorksheetDescriptor is the read-only view of one worksheet used while
// paginating its rows.
type WorksheetDescriptor struct {
	SpreadsheetID   string
	SheetID         int64
	Title           string
	MaxRow          int
	MaxColumnLetter string
	Columns         []ColumnDescriptor
}

// RawRowBatch is one page of server-returned rows starting at FromRow.
type RawRowBatch struct {
	FromRow int
	Rows    [][]coerce.Value
}

// TypedRecord maps column names (and the synthetic fields) to coerced values.
type TypedRecord map[string]any

// NewWorksheetDescriptor builds the descriptor for a sheet from its
// properties and derived columns.
func NewWorksheetDescriptor(spreadsheetID string, props SheetProperties, columns []ColumnDescriptor) WorksheetDescriptor {
	return WorksheetDescriptor{
		SpreadsheetID:   spreadsheetID,
		SheetID:         props.SheetID,
		Title:           props.Title,
		MaxRow:          props.GridProperties.RowCount,
		MaxColumnLetter: LastColumnLetter(columns),
		Columns:         columns,
	}
}
