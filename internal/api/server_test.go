package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/cagesvc/internal/logging"
	"github.com/smazurov/cagesvc/internal/service"
)

func testServer(t *testing.T, opts *Options) *Server {
	t.Helper()
	if opts.Controller == nil {
		opts.Controller = service.New(service.Options{
			Cage:        "demo",
			CommandLine: "sleep 30",
			Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
	}
	if opts.Buffer == nil {
		opts.Buffer = logging.NewRingBuffer(16)
	}
	return NewServer(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t, &Options{})

	rec := doRequest(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	stale := false
	s := testServer(t, &Options{Stale: func() bool { return stale }})

	rec := doRequest(t, s, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Cage        string `json:"cage"`
		State       string `json:"state"`
		Command     string `json:"command"`
		ConfigStale bool   `json:"config_stale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Cage != "demo" {
		t.Errorf("cage = %q, want demo", body.Cage)
	}
	if body.State != "stopped" {
		t.Errorf("state = %q, want stopped", body.State)
	}
	if body.Command != "sleep 30" {
		t.Errorf("command = %q", body.Command)
	}
	if body.ConfigStale {
		t.Error("config_stale should be false")
	}

	stale = true
	rec = doRequest(t, s, http.MethodGet, "/api/status", "")
	if !strings.Contains(rec.Body.String(), `"config_stale":true`) {
		t.Errorf("expected config_stale true, body = %s", rec.Body.String())
	}
}

func TestLogsEndpoint(t *testing.T) {
	buffer := logging.NewRingBuffer(16)
	for _, msg := range []string{"first", "second", "third"} {
		buffer.Write(logging.Entry{Timestamp: time.Now(), Level: "info", Module: "test", Message: msg})
	}
	s := testServer(t, &Options{Buffer: buffer})

	rec := doRequest(t, s, http.MethodGet, "/api/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Entries []logging.Entry `json:"entries"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Count != 3 {
		t.Errorf("count = %d, want 3", body.Count)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/logs?limit=2", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Entries[0].Message != "second" || body.Entries[1].Message != "third" {
		t.Errorf("expected newest entries, got %v", body.Entries)
	}
}

func TestInputWhileStopped(t *testing.T) {
	s := testServer(t, &Options{})

	rec := doRequest(t, s, http.MethodPost, "/api/input", `{"data":"hello\n"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409; body = %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsMount(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("cagesvc_bytes_written_total 0\n"))
	})
	s := testServer(t, &Options{MetricsHandler: handler})

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cagesvc_bytes_written_total") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
