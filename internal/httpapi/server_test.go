package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/chatguard/internal/api"
	"github.com/ppiankov/chatguard/internal/metrics"
	"github.com/ppiankov/chatguard/internal/server"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	host, err := server.New(server.Config{
		ConfigPath: filepath.Join(t.TempDir(), "none.yaml"),
		Metrics:    metrics.New(reg),
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	t.Cleanup(func() { host.Close() })
	return NewServer(Config{Checker: host, Gatherer: reg}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateBlocked(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodPost, "/v1/evaluate",
		`{"text":"reach me at www.djmike.net","channel_id":"c1","sender_id":"talent","sender_restricted":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var resp api.EvalResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsBlocked || resp.Patterns[0] != "single_website" {
		t.Errorf("expected website block, got %+v", resp)
	}
	if resp.EvalID == "" {
		t.Error("missing eval_id")
	}
}

func TestEvaluateResponseShape(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodPost, "/v1/evaluate", `{"text":"hello","channel_id":"c1","sender_id":"s"}`)
	var raw map[string]any
	json.NewDecoder(rec.Body).Decode(&raw)
	for _, k := range []string{"is_blocked", "risk_score", "patterns", "eval_id"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("response missing %q: %v", k, raw)
		}
	}
	if _, ok := raw["reason"]; ok {
		t.Errorf("allowed response should omit reason: %v", raw)
	}
}

func TestRecordThenEvaluate(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodPost, "/v1/record", `{"channel_id":"c1","sender_id":"talent","history":["call me at 555"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("record status %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPost, "/v1/evaluate", `{"text":"1234","channel_id":"c1","sender_id":"talent"}`)
	var resp api.EvalResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.IsBlocked {
		t.Fatalf("expected fragment blocked, got %+v", resp)
	}

	rec = do(t, h, http.MethodDelete, "/v1/buffers/c1/talent", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/evaluate", `{"text":"1234","channel_id":"c1","sender_id":"talent"}`)
	resp = api.EvalResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.IsBlocked {
		t.Errorf("history survived reset: %+v", resp)
	}
}

func TestMalformedJSON(t *testing.T) {
	h := newTestHandler(t)
	for _, body := range []string{`{"text":`, `not json`, `{"txt":"typo"}`} {
		if rec := do(t, h, http.MethodPost, "/v1/evaluate", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestRecordMissingKey(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodPost, "/v1/record", `{"channel_id":"c1","history":["x"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWrongMethod(t *testing.T) {
	h := newTestHandler(t)
	if rec := do(t, h, http.MethodGet, "/v1/evaluate", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/v1/evaluate", `{"text":"555-123-4567","channel_id":"c1","sender_id":"s"}`)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `chatguard_evaluations_total{outcome="blocked",stage="scanner"} 1`) {
		t.Errorf("metrics missing blocked counter:\n%s", body)
	}
}

func TestStartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	host, err := server.New(server.Config{ConfigPath: filepath.Join(t.TempDir(), "none.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	defer host.Close()

	srv := NewServer(Config{Port: port, Checker: host})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	var resp *http.Response
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://127.0.0.1" + srv.Addr() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type blockingChecker struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingChecker) Check(ctx context.Context, req api.EvalRequest) api.EvalResponse {
	close(b.entered)
	<-b.release
	return api.EvalResponse{EvalID: "e1"}
}

func (b *blockingChecker) Record(ctx context.Context, req api.RecordRequest) error { return nil }

func (b *blockingChecker) Reset(ctx context.Context, req api.ResetRequest) error { return nil }

func TestStartWaitsForInFlightRequest(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	checker := &blockingChecker{entered: make(chan struct{}), release: make(chan struct{})}
	srv := NewServer(Config{Port: port, Checker: checker})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	url := "http://127.0.0.1" + srv.Addr()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	statusCh := make(chan int, 1)
	go func() {
		resp, err := http.Post(url+"/v1/evaluate", "application/json",
			strings.NewReader(`{"text":"hi","channel_id":"c1","sender_id":"s"}`))
		if err != nil {
			statusCh <- 0
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		statusCh <- resp.StatusCode
	}()

	select {
	case <-checker.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the checker")
	}
	cancel()

	select {
	case err := <-errCh:
		t.Fatalf("Start returned before the in-flight request finished: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(checker.release)
	if code := <-statusCh; code != http.StatusOK {
		t.Errorf("in-flight request status = %d, want 200", code)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
