package sheets_test

import (
	"encoding/json"
	"testing"
	"time"

	"sheetsync/dataloader/coerce"
	"sheetsync/dataloader/sheets"
)

func TestTransformFileMetadata(t *testing.T) {
	raw, err := sheets.DecodeObject([]byte(`{
		"id": "ss1",
		"modifiedTime": "2021-03-04T05:06:07.123Z",
		"lastModifyingUser": {"displayName": "Sam", "photoLink": "p", "me": true, "permissionId": "42"}
	}`))
	if err != nil {
		t.Fatalf("DecodeObject returned error: %v", err)
	}

	rec := sheets.TransformFileMetadata(raw)
	user := rec["lastModifyingUser"].(map[string]any)
	for _, key := range []string{"photoLink", "me", "permissionId"} {
		if _, ok := user[key]; ok {
			t.Errorf("Expected %s to be removed", key)
		}
	}
	if user["displayName"] != "Sam" {
		t.Errorf("Expected displayName Sam, got %v", user["displayName"])
	}

	original := raw["lastModifyingUser"].(map[string]any)
	if _, ok := original["photoLink"]; !ok {
		t.Error("Expected source map to be left untouched")
	}

	mt, err := sheets.ModifiedTime(raw)
	if err != nil {
		t.Fatalf("ModifiedTime returned error: %v", err)
	}
	if got := sheets.FormatModifiedTime(mt); got != "2021-03-04T05:06:07.123000Z" {
		t.Errorf("Expected formatted time 2021-03-04T05:06:07.123000Z, got %s", got)
	}
}

func TestModifiedTime_Missing(t *testing.T) {
	if _, err := sheets.ModifiedTime(map[string]any{}); err == nil {
		t.Error("Expected error for missing modifiedTime")
	}
}

func TestTransformSpreadsheetMetadata(t *testing.T) {
	ss, raw, err := sheets.ParseSpreadsheet([]byte(gridSheet))
	if err != nil {
		t.Fatalf("ParseSpreadsheet returned error: %v", err)
	}
	raw["properties"] = map[string]any{"title": "Book", "defaultFormat": map[string]any{}}

	rec := sheets.TransformSpreadsheetMetadata(raw)
	if _, ok := rec["sheets"]; ok {
		t.Error("Expected sheets to be removed")
	}
	if _, ok := rec["properties"].(map[string]any)["defaultFormat"]; ok {
		t.Error("Expected defaultFormat to be removed")
	}

	cols := []sheets.ColumnDescriptor{{Index: 1, Letter: "A", Name: "id", Type: coerce.Number}}
	sheetRec := sheets.TransformSheetMetadata("ss1", ss.Sheets[0], cols)
	if sheetRec["sheetUrl"] != "https://docs.google.com/spreadsheets/d/ss1/edit#gid=11" {
		t.Errorf("Unexpected sheetUrl %v", sheetRec["sheetUrl"])
	}
	if sheetRec["title"] != "Orders" {
		t.Errorf("Expected title Orders, got %v", sheetRec["title"])
	}
	if sheetRec["sheetId"] != json.Number("11") {
		t.Errorf("Expected sheetId to keep its JSON number, got %v", sheetRec["sheetId"])
	}
}

func TestDecodeValues(t *testing.T) {
	rows, err := sheets.DecodeValues([]byte(`{"range": "Orders!A2:C3", "values": [[1, 2.5, "x"], [], [true, null]]}`))
	if err != nil {
		t.Fatalf("DecodeValues returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0].Kind() != coerce.KindInt || rows[0][1].Kind() != coerce.KindFloat || rows[0][2].Kind() != coerce.KindString {
		t.Errorf("Unexpected kinds in first row: %v", rows[0])
	}
	if len(rows[1]) != 0 {
		t.Errorf("Expected empty second row, got %v", rows[1])
	}
	if rows[2][0].Kind() != coerce.KindBool || rows[2][1].Kind() != coerce.KindNull {
		t.Errorf("Unexpected kinds in third row: %v", rows[2])
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := sheets.ParseTimestamp("2021-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("ParseTimestamp returned error: %v", err)
	}
	if !got.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected time %v", got)
	}
}
