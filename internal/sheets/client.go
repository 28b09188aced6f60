package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/logging"
	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/tracker"
)

const maxAttempts = 5

// Client wraps the Sheets API for one spreadsheet tab, with write rate
// limiting and retry.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	batchSize     int
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// NewClient creates a Sheets client over an authenticated HTTP client.
// writesPerMinute bounds write request rate; batchSize caps rows per
// append request.
func NewClient(ctx context.Context, httpClient *http.Client, spreadsheetID, sheetName string, writesPerMinute, batchSize int, logger *slog.Logger) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Sheets service: %w", err)
	}
	if writesPerMinute <= 0 {
		writesPerMinute = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		batchSize:     batchSize,
		limiter:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(writesPerMinute)), 1),
		logger:        logger,
	}, nil
}

// Verify checks that the spreadsheet is reachable and the configured
// tab exists, returning the spreadsheet title.
func (c *Client) Verify(ctx context.Context) (string, error) {
	ss, err := retryCall(ctx, func() (*sheets.Spreadsheet, error) {
		return c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	})
	if err != nil {
		return "", fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}

	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.sheetName {
			return ss.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found in spreadsheet %q", c.sheetName, ss.Properties.Title)
}

// ExistingApplications reads all data rows from the tab and indexes
// them by dedup key. When two rows collide on a key the first row wins,
// matching the invariant that duplicates are never appended.
func (c *Client) ExistingApplications(ctx context.Context) (map[tracker.Key]tracker.RowRef, error) {
	resp, err := retryCall(ctx, func() (*sheets.ValueRange, error) {
		return c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName+"!A:E").Context(ctx).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", c.sheetName, err)
	}

	index := parseRows(resp.Values)
	c.logger.Debug("indexed existing sheet rows",
		logging.KeyCount, len(index))
	return index, nil
}

// AppendApplications appends rows for the given applications in batches,
// returning the number of rows written.
func (c *Client) AppendApplications(ctx context.Context, apps []tracker.Application) (int, error) {
	written := 0
	for start := 0; start < len(apps); start += c.batchSize {
		end := min(start+c.batchSize, len(apps))

		if err := c.limiter.Wait(ctx); err != nil {
			return written, err
		}

		values := make([][]any, 0, end-start)
		for _, app := range apps[start:end] {
			values = append(values, rowFor(app))
		}

		_, err := retryCall(ctx, func() (*sheets.AppendValuesResponse, error) {
			return c.svc.Spreadsheets.Values.
				Append(c.spreadsheetID, c.sheetName+"!A:E", &sheets.ValueRange{Values: values}).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).Do()
		})
		if err != nil {
			return written, fmt.Errorf("append rows: %w", err)
		}

		written += end - start
		c.logger.Info("appended batch to sheet",
			logging.KeyCount, end-start,
			"total", written)
	}
	return written, nil
}

// UpdateRow rewrites the status and email link cells of an existing
// row in a single batch request, leaving the other columns untouched.
func (c *Client) UpdateRow(ctx context.Context, upd tracker.Update) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*sheets.ValueRange{
			{
				Range:  fmt.Sprintf("%s!B%d", c.sheetName, upd.Row),
				Values: [][]any{{string(upd.App.Status)}},
			},
			{
				Range:  fmt.Sprintf("%s!E%d", c.sheetName, upd.Row),
				Values: [][]any{{upd.App.EmailLink}},
			},
		},
	}

	_, err := retryCall(ctx, func() (*sheets.BatchUpdateValuesResponse, error) {
		return c.svc.Spreadsheets.Values.
			BatchUpdate(c.spreadsheetID, body).
			Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("update row %d: %w", upd.Row, err)
	}

	c.logger.Info("updated sheet row",
		"row", upd.Row,
		logging.KeyCompany, upd.App.Company,
		logging.KeyStatus, string(upd.App.Status),
		"previous_status", string(upd.PrevStatus))
	return nil
}

// RenameWithDate sets (or replaces) a trailing " - MM/DD/YYYY" suffix
// on the spreadsheet title to mark when it was last synced.
func (c *Client) RenameWithDate(ctx context.Context, date time.Time) error {
	ss, err := retryCall(ctx, func() (*sheets.Spreadsheet, error) {
		return c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("get spreadsheet title: %w", err)
	}

	title := titleWithDate(ss.Properties.Title, date)
	if title == ss.Properties.Title {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSpreadsheetProperties: &sheets.UpdateSpreadsheetPropertiesRequest{
				Properties: &sheets.SpreadsheetProperties{Title: title},
				Fields:     "title",
			},
		}},
	}
	_, err = retryCall(ctx, func() (*sheets.BatchUpdateSpreadsheetResponse, error) {
		return c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("rename spreadsheet: %w", err)
	}

	c.logger.Info("renamed spreadsheet", "title", title)
	return nil
}

// retryCall runs a Sheets API call with exponential backoff on rate
// limit and server errors. Other API errors fail immediately.
func retryCall[T any](ctx context.Context, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		res, err := op()
		if err != nil {
			var zero T
			return zero, classify(err)
		}
		return res, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
}

// classify marks non-retryable API errors as permanent. 429 and 5xx
// are retried; transport errors are retried as well.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return err
		}
		return backoff.Permanent(err)
	}
	return err
}
