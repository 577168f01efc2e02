package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"allowance/internal/core"
	ports "allowance/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// ledgerHeader is written to row 1 of a fresh ledger sheet.
var ledgerHeader = []any{"Date", "Type", "Amount", "Description", "Owner", "ID"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Ledger"); the year of each transaction is prefixed.
	ledgerBase string
}

var _ ports.Ledger = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if base == "" {
		base = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerBase:    base,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// newHTTPClientWithPooling keeps a small pool of connections to the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// UpsertTransaction writes tx to the ledger sheet for its year, replacing the
// row that already carries its id. A row left in another year's sheet by an
// earlier date is cleared once the new row is written.
func (c *Client) UpsertTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("%w: validation failed: %w", ports.ErrRejected, err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheets, err := c.ledgerSheets(ctx)
	if err != nil {
		return "", err
	}

	target := yearPrefixedName(c.ledgerBase, tx.Date.Year())
	var ids []string
	stale := map[string]int{}
	exists := false
	for _, sheet := range sheets {
		sheetIDs, err := c.readIDs(ctx, sheet)
		if err != nil {
			return "", err
		}
		if sheet == target {
			exists = true
			ids = sheetIDs
			continue
		}
		if row := findRow(sheetIDs, tx.ID); row > 0 {
			stale[sheet] = row
		}
	}
	if !exists {
		if err := c.addSheet(ctx, target); err != nil {
			return "", err
		}
	}

	row := findRow(ids, tx.ID)
	values := [][]any{ledgerRow(tx)}
	if row == 0 {
		row = len(ids) + 1
		if row == 1 {
			values = [][]any{ledgerHeader, ledgerRow(tx)}
		}
	}
	rng := fmt.Sprintf("%s!A%d:F%d", target, row, row+len(values)-1)

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", rejected(fmt.Errorf("update %s: %w", rng, err))
	}

	for sheet, row := range stale {
		if err := c.clearRow(ctx, sheet, row); err != nil {
			return "", err
		}
		slog.DebugContext(ctx, "Cleared ledger row moved to another year",
			"sheet", sheet, "row", row, "transaction_id", tx.ID)
	}
	return rng, nil
}

// DeleteTransaction clears every row carrying id across the ledger's year
// sheets. Missing rows are reported as core.ErrNotFound.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheets, err := c.ledgerSheets(ctx)
	if err != nil {
		return err
	}

	found := false
	for _, sheet := range sheets {
		ids, err := c.readIDs(ctx, sheet)
		if err != nil {
			return err
		}
		row := findRow(ids, id)
		if row == 0 {
			continue
		}
		if err := c.clearRow(ctx, sheet, row); err != nil {
			return err
		}
		found = true
	}
	if !found {
		return core.ErrNotFound
	}
	return nil
}

// ledgerSheets lists the year sheets belonging to the ledger, oldest first.
func (c *Client) ledgerSheets(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, rejected(fmt.Errorf("list sheets: %w", err))
	}
	var titles []string
	for _, s := range resp.Sheets {
		if s.Properties != nil && isLedgerSheet(s.Properties.Title, c.ledgerBase) {
			titles = append(titles, s.Properties.Title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return rejected(fmt.Errorf("add sheet %s: %w", title, err))
	}
	slog.InfoContext(ctx, "Created ledger sheet", "sheet", title)
	return nil
}

func (c *Client) clearRow(ctx context.Context, sheet string, row int) error {
	rng := fmt.Sprintf("%s!A%d:F%d", sheet, row, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return rejected(fmt.Errorf("clear %s: %w", rng, err))
	}
	return nil
}

// rejected marks client errors from the Sheets API as permanent. Rate
// limiting (429) stays retryable.
func rejected(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ports.ErrRejected, err)
	}
	return err
}

func (c *Client) readIDs(ctx context.Context, sheet string) ([]string, error) {
	rng := fmt.Sprintf("%s!F:F", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, rejected(fmt.Errorf("read %s: %w", rng, err))
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return ids, nil
}

// ledgerRow renders tx as sheet cells. Expenses are written negative.
func ledgerRow(tx core.Transaction) []any {
	amount := tx.Amount
	if !tx.IsIncome() {
		amount = -amount
	}
	return []any{tx.Date.String(), string(tx.Type), amount, tx.Description, tx.OwnerID, tx.ID}
}

// findRow returns the 1-based row of id in a column read from the sheet, or 0.
func findRow(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}

// isLedgerSheet reports whether title is one of base's year sheets. A base
// that already carries a year names a single sheet.
func isLedgerSheet(title, base string) bool {
	base = strings.TrimSpace(base)
	if base == "" {
		return false
	}
	if yearPrefixedName(base, 0) == base {
		return title == base
	}
	if len(title) < 5 || title[4] != ' ' {
		return false
	}
	y, err := strconv.Atoi(title[:4])
	return err == nil && yearPrefixedName(base, y) == title
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
