package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/UltimateTournament/backoff/v4"

	apiclient "sheetsync/dataloader/apiClient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *apiclient.APIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := apiclient.NewAPIClient(server.Client(), apiclient.Options{
		SheetsBasePath: server.URL + "/v4",
		DriveBasePath:  server.URL + "/drive/v3",
		AccessToken:    "token123",
		MaxRetries:     3,
	})
	if err != nil {
		t.Fatalf("NewAPIClient returned error: %v", err)
	}
	client.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	return client
}

func TestNewAPIClient_BadBasePath(t *testing.T) {
	_, err := apiclient.NewAPIClient(nil, apiclient.Options{SheetsBasePath: "not a url"})
	if err == nil {
		t.Error("Expected error for invalid base path")
	}
}

func TestFileMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drive/v3/files/ss1" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("fields") == "" {
			t.Error("Expected fields query parameter")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"id":"ss1"}`))
	})

	body, err := client.FileMetadata(context.Background(), "ss1")
	if err != nil {
		t.Fatalf("FileMetadata returned error: %v", err)
	}
	if string(body) != `{"id":"ss1"}` {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestSheetValues_RangeEncoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/spreadsheets/ss1/values/'My Sheet'!A2:C201" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("valueRenderOption") != "UNFORMATTED_VALUE" || q.Get("dateTimeRenderOption") != "SERIAL_NUMBER" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"values":[]}`))
	})

	if _, err := client.SheetValues(context.Background(), "ss1", "My Sheet", "A2:C201"); err != nil {
		t.Fatalf("SheetValues returned error: %v", err)
	}
}

func TestSheetMetadata_Ranges(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("ranges") != "'Orders'!1:2" || q.Get("includeGridData") != "true" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{}`))
	})

	if _, err := client.SheetMetadata(context.Background(), "ss1", "Orders"); err != nil {
		t.Fatalf("SheetMetadata returned error: %v", err)
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	})

	if _, err := client.SpreadsheetMetadata(context.Background(), "ss1"); err != nil {
		t.Fatalf("SpreadsheetMetadata returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SpreadsheetMetadata(context.Background(), "ss1")
	if !errors.Is(err, apiclient.ErrUnexpectedStatusCode) {
		t.Errorf("Expected ErrUnexpectedStatusCode, got %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 calls, got %d", calls)
	}
}

func TestGet_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	})

	_, err := client.SpreadsheetMetadata(context.Background(), "missing")
	if !errors.Is(err, apiclient.ErrUnexpectedStatusCode) {
		t.Errorf("Expected ErrUnexpectedStatusCode, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "Requested entity was not found.") {
		t.Errorf("Expected API message in error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestBuildPath_MissingParam(t *testing.T) {
	_, err := apiclient.BuildPath(apiclient.SheetValuesEndpoint, apiclient.PathParams{SpreadsheetID: "ss1"})
	if err == nil {
		t.Error("Expected error for missing range")
	}
}

func TestQuoteSheetTitle(t *testing.T) {
	if got := apiclient.QuoteSheetTitle("Bob's"); got != "'Bob''s'" {
		t.Errorf("Expected 'Bob''s', got %s", got)
	}
}
