package sheets

import (
	"sheetsync/dataloader/coerce"
)

// Metadata stream names. Worksheet streams are named after their sheet
// title.
const (
	StreamFileMetadata        = "file_metadata"
	StreamSpreadsheetMetadata = "spreadsheet_metadata"
	StreamSheetMetadata       = "sheet_metadata"
	StreamSheetsLoaded        = "sheets_loaded"
)

// Replication methods.
const (
	ReplicationIncremental = "INCREMENTAL"
	ReplicationFullTable   = "FULL_TABLE"
)

// StreamDefinition is the catalog entry for one output stream.
type StreamDefinition struct {
	Name              string
	KeyProperties     []string
	ReplicationMethod string
	ReplicationKeys   []string
}

// MetadataStreams lists the fixed streams in sync order.
var MetadataStreams = []StreamDefinition{
	{
		Name:              StreamFileMetadata,
		KeyProperties:     []string{"id"},
		ReplicationMethod: ReplicationIncremental,
		ReplicationKeys:   []string{"modifiedTime"},
	},
	{
		Name:              StreamSpreadsheetMetadata,
		KeyProperties:     []string{"spreadsheetId"},
		ReplicationMethod: ReplicationFullTable,
	},
	{
		Name:              StreamSheetMetadata,
		KeyProperties:     []string{"sheetId"},
		ReplicationMethod: ReplicationFullTable,
	},
	{
		Name:              StreamSheetsLoaded,
		KeyProperties:     []string{"spreadsheetId", "sheetId", "loadDate"},
		ReplicationMethod: ReplicationFullTable,
	},
}

// WorksheetKeyProperties is the primary key of every worksheet stream.
var WorksheetKeyProperties = []string{FieldRow}

// MetadataStream returns the definition for a fixed stream.
func MetadataStream(name string) (StreamDefinition, bool) {
	for _, def := range MetadataStreams {
		if def.Name == name {
			return def, true
		}
	}

	return StreamDefinition{}, false
}

// MetadataSchema returns the JSON schema of a fixed stream.
func MetadataSchema(name string) map[string]any {
	switch name {
	case StreamFileMetadata:
		return objectSchema(map[string]any{
			"id":           nullable("string"),
			"name":         nullable("string"),
			"mimeType":     nullable("string"),
			"version":      nullable("string"),
			"createdTime":  dateTimeSchema(),
			"modifiedTime": dateTimeSchema(),
			"teamDriveId":  nullable("string"),
			"driveId":      nullable("string"),
			"lastModifyingUser": objectSchema(map[string]any{
				"kind":         nullable("string"),
				"displayName":  nullable("string"),
				"emailAddress": nullable("string"),
			}),
		})
	case StreamSpreadsheetMetadata:
		return objectSchema(map[string]any{
			"spreadsheetId":  nullable("string"),
			"spreadsheetUrl": nullable("string"),
			"properties": objectSchema(map[string]any{
				"title":    nullable("string"),
				"locale":   nullable("string"),
				"timeZone": nullable("string"),
			}),
		})
	case StreamSheetMetadata:
		return objectSchema(map[string]any{
			"spreadsheetId": nullable("string"),
			"sheetId":       nullable("integer"),
			"title":         nullable("string"),
			"index":         nullable("integer"),
			"sheetType":     nullable("string"),
			"sheetUrl":      nullable("string"),
			"gridProperties": objectSchema(map[string]any{
				"rowCount":       nullable("integer"),
				"columnCount":    nullable("integer"),
				"frozenRowCount": nullable("integer"),
			}),
			"columns": map[string]any{
				"type": []string{"null", "array"},
				"items": objectSchema(map[string]any{
					"columnIndex":   nullable("integer"),
					"columnLetter":  nullable("string"),
					"columnName":    nullable("string"),
					"columnType":    nullable("string"),
					"columnSkipped": nullable("boolean"),
				}),
			},
		})
	case StreamSheetsLoaded:
		return objectSchema(map[string]any{
			"spreadsheetId": nullable("string"),
			"sheetId":       nullable("integer"),
			"title":         nullable("string"),
			"loadDate":      dateTimeSchema(),
			"lastRowNumber": nullable("integer"),
		})
	default:
		return nil
	}
}

// WorksheetSchema returns the JSON schema of a worksheet stream. Typed
// columns also accept strings since values that fail coercion pass through
// unchanged.
func WorksheetSchema(columns []ColumnDescriptor) map[string]any {
	props := map[string]any{
		FieldSpreadsheetID: nullable("string"),
		FieldSheetID:       nullable("integer"),
		FieldRow:           nullable("integer"),
	}

	for _, col := range columns {
		if col.Skipped {
			continue
		}
		props[col.Name] = columnSchema(col.Type)
	}

	return objectSchema(props)
}

func columnSchema(t coerce.ColumnType) map[string]any {
	switch t {
	case coerce.DateTime:
		return anyOfString(map[string]any{"type": "string", "format": "date-time"})
	case coerce.Date:
		return anyOfString(map[string]any{"type": "string", "format": "date"})
	case coerce.Time:
		return anyOfString(map[string]any{"type": "string", "format": "time"})
	case coerce.Number:
		return anyOfString(map[string]any{"type": "number"})
	case coerce.Bool:
		return anyOfString(map[string]any{"type": "boolean"})
	case coerce.String:
		return nullable("string")
	default:
		return map[string]any{}
	}
}

func objectSchema(props map[string]any) map[string]any {
	return map[string]any{
		"type":                 []string{"null", "object"},
		"additionalProperties": true,
		"properties":           props,
	}
}

func nullable(typ string) map[string]any {
	return map[string]any{"type": []string{"null", typ}}
}

func dateTimeSchema() map[string]any {
	return map[string]any{"type": []string{"null", "string"}, "format": "date-time"}
}

func anyOfString(typed map[string]any) map[string]any {
	return map[string]any{"anyOf": []any{typed, nullable("string")}}
}
