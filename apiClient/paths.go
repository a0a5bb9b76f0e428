package apiclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

var errMissingPathParam = errors.New("missing path parameter")

// API selects which base path an endpoint is resolved against.
type API string

const (
	APIDrive  API = "files"
	APISheets API = "sheets"
)

// Endpoint is a templated request path relative to an API base path.
// Defaults fill template variables the caller does not supply.
type Endpoint struct {
	API      API
	Template string
	Defaults map[string]string
}

// PathParams are the caller-supplied template variables.
type PathParams struct {
	SpreadsheetID  string
	WorksheetTitle string
	RangeRows      string
}

var (
	FileMetadataEndpoint = Endpoint{
		API:      APIDrive,
		Template: "files/{spreadsheetId}{?fields}",
		Defaults: map[string]string{
			"fields": "id,name,createdTime,modifiedTime,version,teamDriveId,driveId,lastModifyingUser",
		},
	}
	SpreadsheetMetadataEndpoint = Endpoint{
		API:      APISheets,
		Template: "spreadsheets/{spreadsheetId}{?includeGridData}",
		Defaults: map[string]string{"includeGridData": "false"},
	}
	SheetMetadataEndpoint = Endpoint{
		API:      APISheets,
		Template: "spreadsheets/{spreadsheetId}{?includeGridData,ranges}",
		Defaults: map[string]string{"includeGridData": "true"},
	}
	SheetValuesEndpoint = Endpoint{
		API:      APISheets,
		Template: "spreadsheets/{spreadsheetId}/values/{range}{?dateTimeRenderOption,valueRenderOption,majorDimension}",
		Defaults: map[string]string{
			"dateTimeRenderOption": "SERIAL_NUMBER",
			"valueRenderOption":    "UNFORMATTED_VALUE",
			"majorDimension":       "ROWS",
		},
	}
)

// QuoteSheetTitle renders a worksheet title for use in an A1 range.
func QuoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// BuildPath expands e with params. Every template variable must be
// supplied, either by params or by the endpoint defaults.
func BuildPath(e Endpoint, params PathParams) (string, error) {
	tmpl, err := uritemplate.New(e.Template)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint template %q: %w", e.Template, err)
	}

	supplied := map[string]string{}
	for k, v := range e.Defaults {
		supplied[k] = v
	}
	if params.SpreadsheetID != "" {
		supplied["spreadsheetId"] = params.SpreadsheetID
	}
	if params.WorksheetTitle != "" {
		sheet := QuoteSheetTitle(params.WorksheetTitle)
		supplied["ranges"] = sheet + "!1:2"
		if params.RangeRows != "" {
			supplied["range"] = sheet + "!" + params.RangeRows
		}
	}

	values := uritemplate.Values{}
	for _, name := range tmpl.Varnames() {
		v, ok := supplied[name]
		if !ok || v == "" {
			return "", fmt.Errorf("%w, %s in %s", errMissingPathParam, name, e.Template)
		}
		values.Set(name, uritemplate.String(v))
	}

	return tmpl.Expand(values)
}
