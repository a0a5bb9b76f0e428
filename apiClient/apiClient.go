// Package apiclient sends authenticated requests to the Google Sheets and
// Drive APIs.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UltimateTournament/backoff/v4"

	"sheetsync/dataloader/appcontext"
)

const (
	DefaultSheetsBasePath = "https://sheets.googleapis.com/v4"
	DefaultDriveBasePath  = "https://www.googleapis.com/drive/v3"
	DefaultUserAgent      = "sheetsync-dataloader"
	DefaultMaxRetries     = 5
	DefaultTimeout        = 300 * time.Second
)

// ErrUnexpectedStatusCode is returned for any non-200 response.
var ErrUnexpectedStatusCode = errors.New("unexpected http status code")
var errHTTPBasePathFormatting = errors.New("error formatting HTTP base path")
var errHTTPGoogleAPI = errors.New("error returned from google api")

// APIClient manages the Sheets and Drive endpoints used by the sync.
type APIClient struct {
	// a pointer to the http client to use.
	HTTPClient *http.Client
	// base url for Sheets requests.
	SheetsBasePath *url.URL
	// base url for Drive requests.
	DriveBasePath *url.URL
	AccessToken   string
	UserAgent     string
	MaxRetries    uint64
	// NewBackOff returns the retry schedule for one request.
	NewBackOff func() backoff.BackOff
}

// Options configures NewAPIClient. Empty fields take the defaults.
type Options struct {
	SheetsBasePath string
	DriveBasePath  string
	AccessToken    string
	UserAgent      string
	MaxRetries     int
	Timeout        time.Duration
}

// HTTPUnexpectedStatusCodeError is a error wrapper.
func HTTPUnexpectedStatusCodeError(statusCode int) error {
	return fmt.Errorf("%w, %d", ErrUnexpectedStatusCode, statusCode)
}

func HTTPBasePathFormattingError(basePath string) error {
	return fmt.Errorf("%w, %s", errHTTPBasePathFormatting, basePath)
}

func HTTPGoogleAPIError(statusCode int, errorMsg string) error {
	return fmt.Errorf("%w: %w, %s", HTTPUnexpectedStatusCodeError(statusCode), errHTTPGoogleAPI, errorMsg)
}

// ErrorResponse is the error envelope returned by Google APIs.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewAPIClient creates a new APIClient.
func NewAPIClient(httpClient *http.Client, opts Options) (*APIClient, error) {
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	sheetsBase, err := parseBasePath(opts.SheetsBasePath, DefaultSheetsBasePath)
	if err != nil {
		return nil, err
	}
	driveBase, err := parseBasePath(opts.DriveBasePath, DefaultDriveBasePath)
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &APIClient{
		HTTPClient:     httpClient,
		SheetsBasePath: sheetsBase,
		DriveBasePath:  driveBase,
		AccessToken:    opts.AccessToken,
		UserAgent:      userAgent,
		MaxRetries:     uint64(maxRetries),
		NewBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}, nil
}

func parseBasePath(basePath, def string) (*url.URL, error) {
	if basePath == "" {
		basePath = def
	}
	u, err := url.Parse(strings.TrimRight(basePath, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, HTTPBasePathFormattingError(basePath)
	}
	return u, nil
}

// FileMetadata fetches the Drive file resource of the spreadsheet.
func (c *APIClient) FileMetadata(ctx context.Context, spreadsheetID string) ([]byte, error) {
	return c.Get(ctx, FileMetadataEndpoint, PathParams{SpreadsheetID: spreadsheetID})
}

// SpreadsheetMetadata fetches the spreadsheet without grid data.
func (c *APIClient) SpreadsheetMetadata(ctx context.Context, spreadsheetID string) ([]byte, error) {
	return c.Get(ctx, SpreadsheetMetadataEndpoint, PathParams{SpreadsheetID: spreadsheetID})
}

// SheetMetadata fetches one worksheet with grid data for its first two rows.
func (c *APIClient) SheetMetadata(ctx context.Context, spreadsheetID, sheetTitle string) ([]byte, error) {
	return c.Get(ctx, SheetMetadataEndpoint, PathParams{SpreadsheetID: spreadsheetID, WorksheetTitle: sheetTitle})
}

// SheetValues fetches unformatted values for rangeRows (e.g. A2:F201).
func (c *APIClient) SheetValues(ctx context.Context, spreadsheetID, sheetTitle, rangeRows string) ([]byte, error) {
	return c.Get(ctx, SheetValuesEndpoint, PathParams{SpreadsheetID: spreadsheetID, WorksheetTitle: sheetTitle, RangeRows: rangeRows})
}

// Get sends a GET request to endpoint and returns the response body.
// Transport errors, 429 and 5xx responses are retried with exponential
// backoff; any other non-200 response fails immediately.
func (c *APIClient) Get(ctx context.Context, endpoint Endpoint, params PathParams) ([]byte, error) {
	logger := appcontext.LoggerFromContext(ctx)

	reqURL, err := c.endpointURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		b, err := c.do(ctx, reqURL)
		if err != nil {
			logger.WarnContext(ctx, "Request failed", "url", reqURL, "attempt", attempt, "error", err)
			return err
		}
		body = b
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(c.NewBackOff(), c.MaxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Request succeeded", "url", reqURL, "attempts", attempt, "bytes", len(body))

	return body, nil
}

func (c *APIClient) endpointURL(endpoint Endpoint, params PathParams) (string, error) {
	path, err := BuildPath(endpoint, params)
	if err != nil {
		return "", err
	}

	base := c.SheetsBasePath
	if endpoint.API == APIDrive {
		base = c.DriveBasePath
	}

	return base.String() + "/" + path, nil
}

func (c *APIClient) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("error creating request: %w", err))
	}

	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", c.UserAgent)
	if c.AccessToken != "" {
		req.Header.Add("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("error sending request: %w", err))
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	statusErr := HTTPUnexpectedStatusCodeError(resp.StatusCode)
	var apiErr ErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		statusErr = HTTPGoogleAPIError(resp.StatusCode, apiErr.Error.Message)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, statusErr
	}

	return nil, backoff.Permanent(statusErr)
}
