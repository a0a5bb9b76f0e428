package sheets

import (
	"fmt"

	"sheetsync/dataloader/coerce"
)

type valueRange struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// DecodeValues decodes a values.get response (UNFORMATTED_VALUE,
// SERIAL_NUMBER) into raw rows.
func DecodeValues(data []byte) ([][]coerce.Value, error) {
	var vr valueRange
	if err := decodeJSON(data, &vr); err != nil {
		return nil, fmt.Errorf("decoding sheet values: %w", err)
	}

	rows := make([][]coerce.Value, len(vr.Values))
	for i, row := range vr.Values {
		values := make([]coerce.Value, len(row))
		for j, cell := range row {
			values[j] = coerce.FromJSON(cell)
		}
		rows[i] = values
	}

	return rows, nil
}
