package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"allowance/internal/core"
	ports "allowance/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected credentials error")
	}
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "test", ledgerBase: "Ledger"}

	_, err := c.UpsertTransaction(context.Background(), core.Transaction{OwnerID: "kid", Type: core.Income})
	if err == nil {
		t.Fatal("expected validation error")
	}

	tx := core.Transaction{ID: "t1", OwnerID: "kid", Type: core.Income, Amount: 5, Date: core.MustParseDate("2024-01-02")}
	if _, err := c.UpsertTransaction(context.Background(), tx); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.DeleteTransaction(context.Background(), "t1"); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestLedgerRow(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
		want []any
	}{
		{
			name: "income",
			tx:   core.Transaction{ID: "a", OwnerID: "kid", Type: core.Income, Amount: 10, Description: "dishes", Date: core.MustParseDate("2024-05-01")},
			want: []any{"2024-05-01", "income", int64(10), "dishes", "kid", "a"},
		},
		{
			name: "expense is negative",
			tx:   core.Transaction{ID: "b", OwnerID: "kid", Type: core.Expense, Amount: 4, Description: "candy", Date: core.MustParseDate("2024-05-02")},
			want: []any{"2024-05-02", "expense", int64(-4), "candy", "kid", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledgerRow(tt.tx); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ledgerRow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindRow(t *testing.T) {
	ids := []string{"ID", "a", "", "b"}
	if got := findRow(ids, "b"); got != 4 {
		t.Errorf("findRow(b) = %d, want 4", got)
	}
	if got := findRow(ids, "zzz"); got != 0 {
		t.Errorf("findRow(zzz) = %d, want 0", got)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2024, "2024 Ledger"},
		{"  Ledger ", 2025, "2025 Ledger"},
		{"2023 Ledger", 2025, "2023 Ledger"},
		{"", 2025, ""},
		{"12345", 2025, "2025 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestIsLedgerSheet(t *testing.T) {
	tests := []struct {
		title, base string
		want        bool
	}{
		{"2024 Ledger", "Ledger", true},
		{"2024 Ledger", " Ledger ", true},
		{"Ledger", "Ledger", false},
		{"2024 Budget", "Ledger", false},
		{"abcd Ledger", "Ledger", false},
		{"2023 Ledger", "2023 Ledger", true},
		{"2024 Ledger", "2023 Ledger", false},
	}
	for _, tt := range tests {
		if got := isLedgerSheet(tt.title, tt.base); got != tt.want {
			t.Errorf("isLedgerSheet(%q, %q) = %v, want %v", tt.title, tt.base, got, tt.want)
		}
	}
}

func TestRejected(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: http.StatusBadRequest}, true},
		{&googleapi.Error{Code: http.StatusForbidden}, true},
		{&googleapi.Error{Code: http.StatusTooManyRequests}, false},
		{&googleapi.Error{Code: http.StatusServiceUnavailable}, false},
		{errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		err := rejected(fmt.Errorf("update: %w", tt.err))
		if got := errors.Is(err, ports.ErrRejected); got != tt.want {
			t.Errorf("rejected(%v) permanent = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestUpsertTransaction_WritesHeaderThenRewritesInPlace(t *testing.T) {
	fake := newFakeSheets()
	c := newTestClient(t, fake)
	ctx := context.Background()

	tx := core.Transaction{ID: "tx1", OwnerID: "kid", Type: core.Income, Amount: 5, Description: "dishes", Date: core.MustParseDate("2025-03-01")}
	ref, err := c.UpsertTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("UpsertTransaction() error = %v", err)
	}
	if ref != "2025 Ledger!A1:F2" {
		t.Errorf("ref = %q, want header and row range", ref)
	}

	tx.Amount = 7
	ref, err = c.UpsertTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("UpsertTransaction() error = %v", err)
	}
	if ref != "2025 Ledger!A2:F2" {
		t.Errorf("ref = %q, want in-place rewrite of row 2", ref)
	}

	rows := fake.rows("2025 Ledger")
	if len(rows) != 2 {
		t.Fatalf("sheet has %d rows, want 2", len(rows))
	}
	if rows[0][0] != "Date" || rows[1][2] != "7" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestUpsertTransaction_DateMovedToAnotherYear(t *testing.T) {
	fake := newFakeSheets("2025 Ledger", "2026 Ledger")
	c := newTestClient(t, fake)
	ctx := context.Background()

	tx := core.Transaction{ID: "tx1", OwnerID: "kid", Type: core.Income, Amount: 5, Description: "dishes", Date: core.MustParseDate("2025-12-31")}
	if _, err := c.UpsertTransaction(ctx, tx); err != nil {
		t.Fatalf("UpsertTransaction() error = %v", err)
	}
	tx.Date = core.MustParseDate("2026-01-02")
	if _, err := c.UpsertTransaction(ctx, tx); err != nil {
		t.Fatalf("UpsertTransaction() error = %v", err)
	}

	if n := fake.countID("tx1"); n != 1 {
		t.Fatalf("rows carrying tx1 = %d, want 1", n)
	}
	rows := fake.rows("2026 Ledger")
	if len(rows) != 2 || rows[1][0] != "2026-01-02" {
		t.Errorf("2026 sheet rows = %v", rows)
	}
}

func TestUpsertTransaction_CreatesMissingYearSheet(t *testing.T) {
	fake := newFakeSheets("2025 Ledger")
	c := newTestClient(t, fake)

	tx := core.Transaction{ID: "tx1", OwnerID: "kid", Type: core.Expense, Amount: 3, Description: "candy", Date: core.MustParseDate("2027-02-10")}
	if _, err := c.UpsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("UpsertTransaction() error = %v", err)
	}
	rows := fake.rows("2027 Ledger")
	if len(rows) != 2 || rows[1][2] != "-3" || rows[1][5] != "tx1" {
		t.Errorf("2027 sheet rows = %v", rows)
	}
}

func TestDeleteTransaction_SearchesEveryYearSheet(t *testing.T) {
	fake := newFakeSheets("2019 Ledger", "2031 Ledger", "Notes")
	fake.seed("2019 Ledger", []string{"Date", "Type", "Amount", "Description", "Owner", "ID"},
		[]string{"2019-04-01", "income", "2", "old", "kid", "old"})
	fake.seed("2031 Ledger", []string{"Date", "Type", "Amount", "Description", "Owner", "ID"},
		[]string{"2031-01-01", "income", "2", "later", "kid", "later"})
	c := newTestClient(t, fake)
	ctx := context.Background()

	for _, id := range []string{"old", "later"} {
		if err := c.DeleteTransaction(ctx, id); err != nil {
			t.Fatalf("DeleteTransaction(%s) error = %v", id, err)
		}
		if n := fake.countID(id); n != 0 {
			t.Errorf("rows carrying %s after delete = %d", id, n)
		}
	}

	if err := c.DeleteTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpsertTransaction_RejectedByAPI(t *testing.T) {
	fake := newFakeSheets("2025 Ledger")
	fake.failWith = http.StatusForbidden
	c := newTestClient(t, fake)

	tx := core.Transaction{ID: "tx1", OwnerID: "kid", Type: core.Income, Amount: 5, Date: core.MustParseDate("2025-03-01")}
	_, err := c.UpsertTransaction(context.Background(), tx)
	if !errors.Is(err, ports.ErrRejected) {
		t.Errorf("UpsertTransaction() error = %v, want ErrRejected", err)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("create sheets service: %v", err)
	}
	return &Client{svc: svc, spreadsheetID: fakeSpreadsheetID, ledgerBase: "Ledger"}
}

const fakeSpreadsheetID = "sid"

// fakeSheets serves the subset of the Sheets v4 REST API the client uses.
// Cleared rows stay in place as empty rows, like the real API.
type fakeSheets struct {
	mu       sync.Mutex
	order    []string
	sheets   map[string][][]string
	failWith int
}

func newFakeSheets(titles ...string) *fakeSheets {
	f := &fakeSheets{sheets: map[string][][]string{}}
	for _, title := range titles {
		f.add(title)
	}
	return f
}

func (f *fakeSheets) add(title string) {
	f.order = append(f.order, title)
	f.sheets[title] = nil
}

func (f *fakeSheets) seed(title string, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[title] = append(f.sheets[title], rows...)
}

func (f *fakeSheets) rows(title string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets[title]
}

func (f *fakeSheets) countID(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rows := range f.sheets {
		for _, row := range rows {
			if len(row) == 6 && row[5] == id {
				n++
			}
		}
	}
	return n
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rest, ok := strings.CutPrefix(r.URL.Path, "/v4/spreadsheets/"+fakeSpreadsheetID)
	if !ok {
		apiError(w, http.StatusNotFound, "unknown spreadsheet")
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		resp := gsheet.Spreadsheet{}
		for _, title := range f.order {
			resp.Sheets = append(resp.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		writeJSON(w, resp)
	case rest == ":batchUpdate" && r.Method == http.MethodPost:
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiError(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.add(rq.AddSheet.Properties.Title)
			}
		}
		writeJSON(w, gsheet.BatchUpdateSpreadsheetResponse{SpreadsheetId: fakeSpreadsheetID})
	case strings.HasPrefix(rest, "/values/"):
		f.serveValues(w, r, strings.TrimPrefix(rest, "/values/"))
	default:
		apiError(w, http.StatusNotFound, "unknown route "+r.Method+" "+r.URL.Path)
	}
}

func (f *fakeSheets) serveValues(w http.ResponseWriter, r *http.Request, rng string) {
	clearing := strings.HasSuffix(rng, ":clear")
	rng = strings.TrimSuffix(rng, ":clear")

	title, cells, _ := strings.Cut(rng, "!")
	rows, ok := f.sheets[title]
	if !ok {
		apiError(w, http.StatusBadRequest, "Unable to parse range: "+rng)
		return
	}

	switch {
	case r.Method == http.MethodGet && cells == "F:F":
		var values [][]any
		for _, row := range rows {
			if len(row) == 6 && row[5] != "" {
				values = append(values, []any{row[5]})
			} else {
				values = append(values, []any{})
			}
		}
		for len(values) > 0 && len(values[len(values)-1]) == 0 {
			values = values[:len(values)-1]
		}
		writeJSON(w, gsheet.ValueRange{Range: rng, Values: values})
	case r.Method == http.MethodPut:
		if f.failWith != 0 {
			apiError(w, f.failWith, "write refused")
			return
		}
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			apiError(w, http.StatusBadRequest, err.Error())
			return
		}
		start, _ := rowSpan(cells)
		for i, v := range vr.Values {
			idx := start - 1 + i
			for len(rows) <= idx {
				rows = append(rows, nil)
			}
			row := make([]string, len(v))
			for j, cell := range v {
				row[j] = fmt.Sprint(cell)
			}
			rows[idx] = row
		}
		f.sheets[title] = rows
		writeJSON(w, gsheet.UpdateValuesResponse{UpdatedRange: rng})
	case r.Method == http.MethodPost && clearing:
		start, end := rowSpan(cells)
		for i := start - 1; i < end && i < len(rows); i++ {
			rows[i] = nil
		}
		writeJSON(w, gsheet.ClearValuesResponse{ClearedRange: rng})
	default:
		apiError(w, http.StatusBadRequest, "unsupported values call "+r.Method+" "+rng)
	}
}

// rowSpan parses "A3:F4" into 3, 4.
func rowSpan(cells string) (int, int) {
	from, to, _ := strings.Cut(cells, ":")
	start, _ := strconv.Atoi(strings.TrimLeft(from, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	end, _ := strconv.Atoi(strings.TrimLeft(to, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	return start, end
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}
