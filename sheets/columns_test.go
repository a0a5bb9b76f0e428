package sheets_test

import (
	"testing"

	"sheetsync/dataloader/coerce"
	"sheetsync/dataloader/sheets"
)

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 52: "AZ", 53: "BA", 702: "ZZ", 703: "AAA"}
	for index, want := range tests {
		if got := sheets.ColumnLetter(index); got != want {
			t.Errorf("ColumnLetter(%d): expected %s, got %s", index, want, got)
		}
	}
}

const gridSheet = `{
  "spreadsheetId": "ss1",
  "sheets": [{
    "properties": {"sheetId": 11, "title": "Orders", "index": 0, "sheetType": "GRID",
                   "gridProperties": {"rowCount": 450, "columnCount": 6}},
    "data": [{"rowData": [
      {"values": [
        {"formattedValue": "id"}, {"formattedValue": "placed"}, {"formattedValue": " "},
        {"formattedValue": "paid"}, {"formattedValue": "id"}, {"formattedValue": "note"}
      ]},
      {"values": [
        {"effectiveValue": {"numberValue": 1}, "effectiveFormat": {"numberFormat": {"type": "NUMBER"}}},
        {"effectiveValue": {"numberValue": 44197.5}, "effectiveFormat": {"numberFormat": {"type": "DATE_TIME"}}},
        {},
        {"effectiveValue": {"boolValue": true}},
        {"effectiveValue": {"numberValue": 2}},
        {"effectiveValue": {"stringValue": "hi"}}
      ]}
    ]}]
  }]
}`

func TestDeriveColumns(t *testing.T) {
	ss, _, err := sheets.ParseSpreadsheet([]byte(gridSheet))
	if err != nil {
		t.Fatalf("ParseSpreadsheet returned error: %v", err)
	}

	cols := sheets.DeriveColumns(ss.Sheets[0])
	want := []sheets.ColumnDescriptor{
		{Index: 1, Letter: "A", Name: "id", Type: coerce.Number},
		{Index: 2, Letter: "B", Name: "placed", Type: coerce.DateTime},
		{Index: 3, Letter: "C", Name: "__sdc_skip_col_03", Type: coerce.String, Skipped: true},
		{Index: 4, Letter: "D", Name: "paid", Type: coerce.Bool},
		{Index: 5, Letter: "E", Name: "__sdc_skip_col_05", Type: coerce.String, Skipped: true},
		{Index: 6, Letter: "F", Name: "note", Type: coerce.String},
	}

	if len(cols) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(cols))
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("Column %d: expected %+v, got %+v", i, want[i], cols[i])
		}
	}

	ws := sheets.NewWorksheetDescriptor("ss1", ss.Sheets[0].Properties, cols)
	if ws.MaxRow != 450 || ws.MaxColumnLetter != "F" || ws.SheetID != 11 {
		t.Errorf("Unexpected descriptor %+v", ws)
	}
}

func TestDeriveColumns_NoGridData(t *testing.T) {
	cols := sheets.DeriveColumns(sheets.Sheet{})
	if len(cols) != 0 {
		t.Errorf("Expected no columns, got %d", len(cols))
	}
	if got := sheets.LastColumnLetter(cols); got != "A" {
		t.Errorf("Expected last column A, got %s", got)
	}
}

func TestWorksheetSchema(t *testing.T) {
	schema := sheets.WorksheetSchema([]sheets.ColumnDescriptor{
		{Index: 1, Name: "id", Type: coerce.Number},
		{Index: 2, Name: "__sdc_skip_col_02", Skipped: true},
	})

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Expected properties map, got %T", schema["properties"])
	}
	for _, field := range []string{"id", sheets.FieldRow, sheets.FieldSheetID, sheets.FieldSpreadsheetID} {
		if _, ok := props[field]; !ok {
			t.Errorf("Expected property %s", field)
		}
	}
	if _, ok := props["__sdc_skip_col_02"]; ok {
		t.Error("Expected skipped column to be excluded from schema")
	}
}
