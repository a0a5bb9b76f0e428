package synthetic

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

const (
	fixtureFileName = "spreadsheet.json"
	secondsPerDay   = 86400
	unixEpochSerial = 25569
)

// Column is a header cell plus the number format type of the cell below it.
type Column struct {
	Header string `json:"header"`
	// Format is the Sheets numberFormat.type of row 2 (DATE_TIME, DATE,
	// TIME, NUMBER) or empty for strings and booleans.
	Format string `json:"format,omitempty"`
}

// Worksheet is one fake worksheet. Rows hold unformatted values as the
// values endpoint returns them; an empty row is a gap in the data.
type Worksheet struct {
	SheetID   int64    `json:"sheetId"`
	Title     string   `json:"title"`
	SheetType string   `json:"sheetType"`
	RowCount  int      `json:"rowCount"`
	Columns   []Column `json:"columns"`
	Rows      [][]any  `json:"rows"`
}

// Spreadsheet is a fake spreadsheet served by Server.
type Spreadsheet struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	ModifiedTime string      `json:"modifiedTime"`
	Sheets       []Worksheet `json:"sheets"`
}

// Serial converts t to a spreadsheet serial number.
func Serial(t time.Time) float64 {
	return float64(t.Unix())/secondsPerDay + unixEpochSerial
}

// GenerateSpreadsheet builds a spreadsheet with an Orders sheet of rows
// data rows and a chart sheet. The same seed yields the same data.
func GenerateSpreadsheet(id string, rows int, seed int64) *Spreadsheet {
	r := rand.New(rand.NewSource(seed))
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	data := make([][]any, 0, rows)
	for i := 0; i < rows; i++ {
		placed := base.Add(time.Duration(r.Intn(365*24)) * time.Hour)
		data = append(data, []any{
			i + 1,
			Serial(placed),
			float64(r.Intn(100000)) / 100,
			r.Intn(2) == 1,
			fmt.Sprintf("Synthetic order %d", i+1),
		})
	}

	return &Spreadsheet{
		ID:           id,
		Title:        "Synthetic Orders",
		ModifiedTime: time.Now().UTC().Format(time.RFC3339Nano),
		Sheets: []Worksheet{
			{
				SheetID:   1,
				Title:     "Orders",
				SheetType: "GRID",
				RowCount:  rows + 1 + r.Intn(50),
				Columns: []Column{
					{Header: "id", Format: "NUMBER"},
					{Header: "placed", Format: "DATE_TIME"},
					{Header: "amount", Format: "NUMBER"},
					{Header: "paid"},
					{Header: "note"},
				},
				Rows: data,
			},
			{
				SheetID:   2,
				Title:     "Chart",
				SheetType: "OBJECT",
			},
		},
	}
}

// WriteFixture writes s as JSON under dir and returns the file path.
func WriteFixture(s *Spreadsheet, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode fixture: %w", err)
	}

	filePath := filepath.Join(dir, fixtureFileName)
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to create file '%s': %w", filePath, err)
	}

	return filePath, nil
}

// LoadFixture reads a fixture written by WriteFixture.
func LoadFixture(path string) (*Spreadsheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture '%s': %w", path, err)
	}

	var s Spreadsheet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode fixture '%s': %w", path, err)
	}

	return &s, nil
}
