package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// captureLogs routes the default logger into a buffer for the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// logRecord returns the first JSON log line with the given message
func logRecord(t *testing.T, buf *bytes.Buffer, msg string) map[string]any {
	t.Helper()

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec["msg"] == msg {
			return rec
		}
	}
	t.Fatalf("no %q record in logs:\n%s", msg, buf.String())
	return nil
}

func TestGetCorrelationID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"set", context.WithValue(context.Background(), CorrelationIDKey, "req-1"), "req-1"},
		{"missing", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), CorrelationIDKey, 7), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCorrelationID(tt.ctx); got != tt.want {
				t.Errorf("GetCorrelationID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandler_CorrelationIDOnExtract(t *testing.T) {
	m := newServerWithMocks()
	handler := m.server.Handler()

	tests := []struct {
		name   string
		header string
	}{
		{"generated", ""},
		{"propagated", "batch-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader(`{"cases_text":"输入1：1\n输出1：2"}`))
			if tt.header != "" {
				req.Header.Set(CorrelationIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			got := rec.Header().Get(CorrelationIDHeader)
			if tt.header != "" {
				if got != tt.header {
					t.Errorf("%s = %q, want %q", CorrelationIDHeader, got, tt.header)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("%s = %q is not a UUID", CorrelationIDHeader, got)
			}
		})
	}
}

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		wantCode  int
		wantLevel string
	}{
		{"health at debug", http.MethodGet, "/v1/health", http.StatusOK, "DEBUG"},
		{"bad id at warn", http.MethodGet, "/v1/fixtures/not-a-uuid", http.StatusBadRequest, "WARN"},
		{"missing set at warn", http.MethodGet, "/v1/fixtures/" + uuid.NewString(), http.StatusNotFound, "WARN"},
		{"store failure at error", http.MethodDelete, "/v1/fixtures/" + uuid.NewString(), http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			m := newServerWithMocks()
			m.fixtures.getFn = func(context.Context, uuid.UUID) (*domain.FixtureSet, error) {
				return nil, domain.ErrFixtureSetNotFound
			}

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(CorrelationIDHeader, "log-check")
			rec := httptest.NewRecorder()
			m.server.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			entry := logRecord(t, logs, "request")
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.wantCode) {
				t.Errorf("status = %v, want %d", entry["status"], tt.wantCode)
			}
			if entry["correlation_id"] != "log-check" || entry["path"] != tt.path {
				t.Errorf("entry = %v", entry)
			}
		})
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	logs := captureLogs(t)

	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fixtures", nil))

	if rec.Body.String() != `[]` {
		t.Errorf("body = %q", rec.Body.String())
	}
	if entry := logRecord(t, logs, "request"); entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}

func TestHandler_RecoversPanickingService(t *testing.T) {
	logs := captureLogs(t)
	m := newServerWithMocks()
	m.fixtures.listFn = func(context.Context, int) ([]*domain.FixtureSet, error) {
		panic("store exploded")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/fixtures", nil)
	rec := httptest.NewRecorder()
	m.server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var body struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal server error" || body.Status != http.StatusInternalServerError {
		t.Errorf("body = %+v", body)
	}

	entry := logRecord(t, logs, "panic recovered")
	if entry["error"] != "store exploded" {
		t.Errorf("error = %v, want store exploded", entry["error"])
	}
	if entry["correlation_id"] != rec.Header().Get(CorrelationIDHeader) {
		t.Errorf("correlation_id = %v, want the response header", entry["correlation_id"])
	}
}
