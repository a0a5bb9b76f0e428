package sheets

import (
	"fmt"
	"strings"

	"sheetsync/dataloader/coerce"
)

const skippedColumnPrefix = "__sdc_skip_col_"

// Number format types reported by the Sheets API in effectiveFormat.
const (
	numberFormatDateTime = "DATE_TIME"
	numberFormatDate     = "DATE"
	numberFormatTime     = "TIME"
)

// ColumnLetter converts a 1-based column index to its spreadsheet label
// (1 -> A, 26 -> Z, 27 -> AA).
func ColumnLetter(index int) string {
	if index < 1 {
		return ""
	}

	var b []byte
	for index > 0 {
		index--
		b = append(b, byte('A'+index%26))
		index /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}

	return string(b)
}

// LastColumnLetter returns the letter of the highest-indexed column, or "A"
// when there are no columns.
func LastColumnLetter(columns []ColumnDescriptor) string {
	lastIndex := 1
	lastLetter := "A"
	for _, col := range columns {
		if col.Index > lastIndex {
			lastIndex = col.Index
			lastLetter = col.Letter
		}
	}

	return lastLetter
}

// DeriveColumns builds column descriptors from a sheet fetched with grid
// data for rows 1:2. Row 1 supplies the names and row 2 the types. Blank and
// duplicate headers produce skipped columns.
func DeriveColumns(sheet Sheet) []ColumnDescriptor {
	var headers, firstRow []CellData
	if len(sheet.Data) > 0 {
		rows := sheet.Data[0].RowData
		if len(rows) > 0 {
			headers = rows[0].Values
		}
		if len(rows) > 1 {
			firstRow = rows[1].Values
		}
	}

	seen := make(map[string]bool, len(headers))
	columns := make([]ColumnDescriptor, 0, len(headers))
	for i, header := range headers {
		index := i + 1
		col := ColumnDescriptor{
			Index:  index,
			Letter: ColumnLetter(index),
			Name:   strings.TrimSpace(header.FormattedValue),
			Type:   coerce.String,
		}

		if col.Name == "" || seen[col.Name] {
			col.Name = fmt.Sprintf("%s%02d", skippedColumnPrefix, index)
			col.Skipped = true
		} else {
			seen[col.Name] = true
			if i < len(firstRow) {
				col.Type = cellType(firstRow[i])
			}
		}

		columns = append(columns, col)
	}

	return columns
}

// cellType infers a column type from the first data cell below its header.
func cellType(cell CellData) coerce.ColumnType {
	v := cell.EffectiveValue
	switch {
	case v == nil:
		return coerce.String
	case v.NumberValue != nil:
		if cell.EffectiveFormat == nil || cell.EffectiveFormat.NumberFormat == nil {
			return coerce.Number
		}
		switch cell.EffectiveFormat.NumberFormat.Type {
		case numberFormatDateTime:
			return coerce.DateTime
		case numberFormatDate:
			return coerce.Date
		case numberFormatTime:
			return coerce.Time
		default:
			return coerce.Number
		}
	case v.BoolValue != nil:
		return coerce.Bool
	case v.StringValue != nil:
		return coerce.String
	default:
		return coerce.Unknown
	}
}
