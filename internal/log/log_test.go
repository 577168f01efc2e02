package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"allowance/internal/core"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: slog.LevelDebug, Component: component, Output: &buf}), &buf
}

func TestLoggerComponent(t *testing.T) {
	l, buf := newBufferLogger(ComponentWorker)
	l.Info("Badge awarded", FieldOwnerID, "kid")

	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "owner_id=kid") {
		t.Errorf("unexpected output: %s", out)
	}

	buf.Reset()
	child := l.WithComponent(ComponentSheets)
	child.Info("Mirrored")
	if got := strings.Count(buf.String(), "component="); got != 1 {
		t.Errorf("component attribute appears %d times: %s", got, buf.String())
	}
	if child.Component() != ComponentSheets {
		t.Errorf("Component() = %q", child.Component())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFieldsToSliceIsSorted(t *testing.T) {
	tx := core.Transaction{ID: "t1", OwnerID: "kid", Type: core.Income, Amount: 3, Date: core.MustParseDate("2024-02-03")}
	got := NewFields().WithTransaction(tx).WithError(errors.New("boom")).ToSlice()

	var keys []string
	for i := 0; i < len(got); i += 2 {
		keys = append(keys, got[i].(string))
	}
	want := []string{"amount", "date", "error", "owner_id", "record_id", "type"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if len(NewFields().WithError(nil)) != 0 {
		t.Error("nil error should not add a field")
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	l, buf := newBufferLogger(ComponentHTTP)

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "Handled")
			LogHTTPEnd(r.Context(), r, http.StatusNotFound, 3, "1.2.3.4")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/overview", nil))

	out := buf.String()
	for _, want := range []string{"request_id=req_1", "level=WARN", "status_code=404"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("Component() = %q, want unknown", l.Component())
	}
}
