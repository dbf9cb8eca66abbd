package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"career-backend/internal/analyses"
	"career-backend/internal/llm"
	"career-backend/internal/services/health"
	"career-backend/internal/shared/config"
)

func testRouter(t *testing.T, burst int) http.Handler {
	t.Helper()
	cfg := config.Config{
		CORSAllowOrigin: []string{"http://localhost:3000"},
		MaxUploadBytes:  1 << 20,
		RateLimitRPS:    0.001,
		RateLimitBurst:  burst,
	}
	svc := analyses.NewService(nil, llm.NewFixtureClient(), 0)
	return NewRouter(cfg, Deps{
		Analysis: analyses.NewHandler(svc, cfg.MaxUploadBytes),
		Health:   health.NewService(nil),
	})
}

func analyzeRequest(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("resumeText", "SQL analyst"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRouterHealth(t *testing.T) {
	r := testRouter(t, 5)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != "OK" || payload["timestamp"] == "" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterAnalyzeInMockMode(t *testing.T) {
	r := testRouter(t, 5)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, analyzeRequest(t))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"careerPaths"`) {
		t.Fatalf("expected careerPaths in response")
	}
}

func TestRouterAnalyzeIsRateLimited(t *testing.T) {
	r := testRouter(t, 1)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, analyzeRequest(t))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, analyzeRequest(t))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}

	// Health is outside the limited group.
	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("expected health 200, got %d", health.Code)
	}
}

func TestRouterMetrics(t *testing.T) {
	r := testRouter(t, 5)
	r.ServeHTTP(httptest.NewRecorder(), analyzeRequest(t))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "analysis_started_total") {
		t.Fatalf("expected analysis metrics in exposition")
	}
}

func TestRouterUnknownRouteUsesEnvelope(t *testing.T) {
	r := testRouter(t, 5)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "not_found" || payload["message"] == "" {
		t.Fatalf("unexpected body: %v", payload)
	}
}

func TestRouterPreflight(t *testing.T) {
	r := testRouter(t, 5)
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected CORS header on preflight")
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "3001": ":3001", ":9000": ":9000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
