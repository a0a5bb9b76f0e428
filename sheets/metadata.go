package sheets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// SheetTypeGrid is the only sheet type whose rows can be read.
const SheetTypeGrid = "GRID"

// ModifiedTimeLayout is the layout used to persist file modification times.
const ModifiedTimeLayout = "2006-01-02T15:04:05.000000Z"

var errMissingModifiedTime = errors.New("file metadata has no modifiedTime")

// Spreadsheet is the subset of a spreadsheets.get response the sync needs.
type Spreadsheet struct {
	SpreadsheetID string  `json:"spreadsheetId"`
	Sheets        []Sheet `json:"sheets"`
}

// Sheet is one worksheet entry. RawProperties keeps the untyped properties
// for the sheet_metadata stream.
type Sheet struct {
	Properties    SheetProperties `json:"properties"`
	Data          []GridData      `json:"data"`
	RawProperties map[string]any  `json:"-"`
}

type SheetProperties struct {
	SheetID        int64          `json:"sheetId"`
	Title          string         `json:"title"`
	Index          int            `json:"index"`
	SheetType      string         `json:"sheetType"`
	GridProperties GridProperties `json:"gridProperties"`
}

type GridProperties struct {
	RowCount    int `json:"rowCount"`
	ColumnCount int `json:"columnCount"`
}

type GridData struct {
	RowData []RowData `json:"rowData"`
}

type RowData struct {
	Values []CellData `json:"values"`
}

type CellData struct {
	FormattedValue  string         `json:"formattedValue"`
	EffectiveValue  *ExtendedValue `json:"effectiveValue"`
	EffectiveFormat *CellFormat    `json:"effectiveFormat"`
}

type ExtendedValue struct {
	NumberValue  *float64       `json:"numberValue"`
	StringValue  *string        `json:"stringValue"`
	BoolValue    *bool          `json:"boolValue"`
	FormulaValue *string        `json:"formulaValue"`
	ErrorValue   map[string]any `json:"errorValue"`
}

type CellFormat struct {
	NumberFormat *NumberFormat `json:"numberFormat"`
}

type NumberFormat struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
}

// DecodeObject decodes a JSON object keeping numbers as json.Number so they
// re-encode unchanged.
func DecodeObject(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := decodeJSON(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// ParseSpreadsheet decodes a spreadsheets.get response into its typed view
// and its raw object.
func ParseSpreadsheet(data []byte) (*Spreadsheet, map[string]any, error) {
	var ss Spreadsheet
	if err := decodeJSON(data, &ss); err != nil {
		return nil, nil, fmt.Errorf("decoding spreadsheet metadata: %w", err)
	}

	raw, err := DecodeObject(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding spreadsheet metadata: %w", err)
	}

	rawSheets, _ := raw["sheets"].([]any)
	for i := range ss.Sheets {
		if i >= len(rawSheets) {
			break
		}
		if sheet, ok := rawSheets[i].(map[string]any); ok {
			ss.Sheets[i].RawProperties, _ = sheet["properties"].(map[string]any)
		}
	}

	return &ss, raw, nil
}

// ModifiedTime parses modifiedTime out of a Drive files.get response.
func ModifiedTime(fileMetadata map[string]any) (time.Time, error) {
	s, _ := fileMetadata["modifiedTime"].(string)
	if s == "" {
		return time.Time{}, errMissingModifiedTime
	}

	return ParseTimestamp(s)
}

// ParseTimestamp parses an RFC 3339 timestamp with optional fractional
// seconds.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}

	return t.UTC(), nil
}

// FormatModifiedTime renders a modification time as persisted in the
// file_metadata bookmark.
func FormatModifiedTime(t time.Time) string {
	return t.UTC().Format(ModifiedTimeLayout)
}

// TransformFileMetadata returns the file_metadata record: a copy of the
// Drive response without the modifying user's volatile fields.
func TransformFileMetadata(raw map[string]any) map[string]any {
	out := deepCopyMap(raw)
	if user, ok := out["lastModifyingUser"].(map[string]any); ok {
		delete(user, "photoLink")
		delete(user, "me")
		delete(user, "permissionId")
	}

	return out
}

// TransformSpreadsheetMetadata returns the spreadsheet_metadata record:
// the spreadsheet without its default format or sheet list.
func TransformSpreadsheetMetadata(raw map[string]any) map[string]any {
	out := deepCopyMap(raw)
	if props, ok := out["properties"].(map[string]any); ok {
		delete(props, "defaultFormat")
	}
	delete(out, "sheets")

	return out
}

// TransformSheetMetadata returns the sheet_metadata record for one sheet.
func TransformSheetMetadata(spreadsheetID string, sheet Sheet, columns []ColumnDescriptor) map[string]any {
	out := deepCopyMap(sheet.RawProperties)
	if out == nil {
		out = map[string]any{
			"sheetId":   sheet.Properties.SheetID,
			"title":     sheet.Properties.Title,
			"index":     sheet.Properties.Index,
			"sheetType": sheet.Properties.SheetType,
		}
	}

	out["spreadsheetId"] = spreadsheetID
	out["sheetUrl"] = fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", spreadsheetID, sheet.Properties.SheetID)
	out["columns"] = columns

	return out
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}

	return nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}

	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
