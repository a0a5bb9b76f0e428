package synthetic

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var rangePattern = regexp.MustCompile(`^'((?:[^']|'')*)'!A(\d+):[A-Z]+(\d+)$`)

// Server is a fake Sheets and Drive API backed by a Spreadsheet. Paths
// mirror the real APIs under /v4 and /drive/v3.
type Server struct {
	mu          sync.RWMutex
	spreadsheet *Spreadsheet
	mux         *http.ServeMux
}

// NewServer returns a Server for s.
func NewServer(s *Spreadsheet) *Server {
	srv := &Server{spreadsheet: s, mux: http.NewServeMux()}
	srv.mux.HandleFunc("GET /drive/v3/files/{id}", srv.handleFile)
	srv.mux.HandleFunc("GET /v4/spreadsheets/{id}", srv.handleSpreadsheet)
	srv.mux.HandleFunc("GET /v4/spreadsheets/{id}/values/{range}", srv.handleValues)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Update replaces the served spreadsheet.
func (s *Server) Update(fn func(sp *Spreadsheet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.spreadsheet)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Spreadsheet, bool) {
	if r.PathValue("id") != s.spreadsheet.ID {
		writeError(w, http.StatusNotFound, "Requested entity was not found.")
		return nil, false
	}
	return s.spreadsheet, true
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, map[string]any{
		"id":           sp.ID,
		"name":         sp.Title,
		"createdTime":  "2021-01-01T00:00:00.000Z",
		"modifiedTime": sp.ModifiedTime,
		"version":      "1",
		"lastModifyingUser": map[string]any{
			"kind":         "drive#user",
			"displayName":  "Synthetic User",
			"emailAddress": "synthetic@example.com",
			"photoLink":    "https://example.com/photo.png",
			"me":           false,
			"permissionId": "0000",
		},
	})
}

func (s *Server) handleSpreadsheet(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.lookup(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Get("includeGridData") != "true" {
		sheets := make([]any, 0, len(sp.Sheets))
		for _, ws := range sp.Sheets {
			sheets = append(sheets, map[string]any{"properties": sheetProperties(ws)})
		}
		writeJSON(w, map[string]any{
			"spreadsheetId":  sp.ID,
			"spreadsheetUrl": "https://docs.google.com/spreadsheets/d/" + sp.ID + "/edit",
			"properties": map[string]any{
				"title":         sp.Title,
				"locale":        "en_US",
				"timeZone":      "Etc/UTC",
				"defaultFormat": map[string]any{"wrapStrategy": "OVERFLOW_CELL"},
			},
			"sheets": sheets,
		})
		return
	}

	title := strings.TrimSuffix(q.Get("ranges"), "!1:2")
	title = unquoteTitle(title)
	for _, ws := range sp.Sheets {
		if ws.Title == title {
			writeJSON(w, map[string]any{
				"spreadsheetId": sp.ID,
				"sheets": []any{map[string]any{
					"properties": sheetProperties(ws),
					"data":       []any{map[string]any{"rowData": gridRows(ws)}},
				}},
			})
			return
		}
	}
	writeError(w, http.StatusBadRequest, "Unable to parse range: "+q.Get("ranges"))
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.lookup(w, r)
	if !ok {
		return
	}

	rangeExpr := r.PathValue("range")
	m := rangePattern.FindStringSubmatch(rangeExpr)
	if m == nil {
		writeError(w, http.StatusBadRequest, "Unable to parse range: "+rangeExpr)
		return
	}
	title := strings.ReplaceAll(m[1], "''", "'")
	from, _ := strconv.Atoi(m[2])
	to, _ := strconv.Atoi(m[3])

	for _, ws := range sp.Sheets {
		if ws.Title != title {
			continue
		}
		// data row n lives at Rows[n-2]
		start := min(max(from-2, 0), len(ws.Rows))
		end := min(max(to-1, start), len(ws.Rows))
		rows := ws.Rows[start:end]

		resp := map[string]any{"range": rangeExpr, "majorDimension": "ROWS"}
		if len(rows) > 0 {
			resp["values"] = rows
		}
		writeJSON(w, resp)
		return
	}
	writeError(w, http.StatusBadRequest, "Unable to parse range: "+rangeExpr)
}

func sheetProperties(ws Worksheet) map[string]any {
	props := map[string]any{
		"sheetId":   ws.SheetID,
		"title":     ws.Title,
		"index":     ws.SheetID - 1,
		"sheetType": ws.SheetType,
	}
	if ws.SheetType == "GRID" {
		props["gridProperties"] = map[string]any{
			"rowCount":    ws.RowCount,
			"columnCount": len(ws.Columns),
		}
	}
	return props
}

func gridRows(ws Worksheet) []any {
	headers := make([]any, 0, len(ws.Columns))
	for _, col := range ws.Columns {
		headers = append(headers, map[string]any{
			"formattedValue": col.Header,
			"effectiveValue": map[string]any{"stringValue": col.Header},
		})
	}
	rows := []any{map[string]any{"values": headers}}
	if len(ws.Rows) == 0 {
		return rows
	}

	cells := make([]any, 0, len(ws.Columns))
	for i, col := range ws.Columns {
		cell := map[string]any{}
		if i < len(ws.Rows[0]) {
			cell = gridCell(ws.Rows[0][i], col.Format)
		}
		cells = append(cells, cell)
	}
	return append(rows, map[string]any{"values": cells})
}

func gridCell(v any, format string) map[string]any {
	switch t := v.(type) {
	case bool:
		return map[string]any{"effectiveValue": map[string]any{"boolValue": t}}
	case string:
		return map[string]any{"effectiveValue": map[string]any{"stringValue": t}}
	case nil:
		return map[string]any{}
	default:
		cell := map[string]any{"effectiveValue": map[string]any{"numberValue": t}}
		if format != "" {
			cell["effectiveFormat"] = map[string]any{"numberFormat": map[string]any{"type": format}}
		}
		return cell
	}
}

func unquoteTitle(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "''", "'")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message, "status": http.StatusText(code)},
	})
}
