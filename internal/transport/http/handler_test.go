package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"triage-service/internal/metrics"
	"triage-service/internal/service"
)

func newTestRouter(t *testing.T) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	svc := service.NewTriageService(service.NopPublisher{}, m, zap.NewNop())
	h := NewHandler(svc, 1024)
	return NewRouter(h, m, zap.NewNop()), m
}

func doRequest(t *testing.T, router http.Handler, method, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/triage", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestTriage_Success(t *testing.T) {
	router, m := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "application/json",
		`{"description": "There is a large pothole and it's urgent"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, map[string]string{"category": "Road Hazard", "priority": "High"}, decodeMap(t, rec))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.OutcomeClassified)))
}

func TestTriage_DefaultFallback(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "application/json; charset=utf-8",
		`{"description": "Can you help with parking permits?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"category": "General Inquiry", "priority": "Medium"}, decodeMap(t, rec))
}

func TestTriage_VendorJSONContentType(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "application/merge-patch+json",
		`{"description": "trash everywhere"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Trash & Waste", decodeMap(t, rec)["category"])
}

func TestTriage_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
		wantOutcome string
	}{
		{"plain text", "text/plain", "pothole on main", http.StatusBadRequest, errNotJSON, metrics.OutcomeInvalidJSON},
		{"no content type", "", `{"description":"pothole"}`, http.StatusBadRequest, errNotJSON, metrics.OutcomeInvalidJSON},
		{"invalid json", "application/json", `{"description":`, http.StatusBadRequest, errNotJSON, metrics.OutcomeInvalidJSON},
		{"empty body", "application/json", "", http.StatusBadRequest, errNotJSON, metrics.OutcomeInvalidJSON},
		{"trailing data", "application/json", `{"description":"road"} {}`, http.StatusBadRequest, errNotJSON, metrics.OutcomeInvalidJSON},
		{"bad media type", "application/json; =", `{"description":"road"}`, http.StatusBadRequest, errNotJSON, metrics.OutcomeInvalidJSON},
		{"empty object", "application/json", `{}`, http.StatusBadRequest, errMissingDescription, metrics.OutcomeMissingDescription},
		{"null", "application/json", `{"description": null}`, http.StatusBadRequest, errMissingDescription, metrics.OutcomeMissingDescription},
		{"empty string", "application/json", `{"description": ""}`, http.StatusBadRequest, errMissingDescription, metrics.OutcomeMissingDescription},
		{"whitespace", "application/json", `{"description": "   "}`, http.StatusBadRequest, errMissingDescription, metrics.OutcomeMissingDescription},
		{"number", "application/json", `{"description": 42}`, http.StatusBadRequest, errMissingDescription, metrics.OutcomeMissingDescription},
		{"array body", "application/json", `["pothole"]`, http.StatusBadRequest, errMissingDescription, metrics.OutcomeMissingDescription},
		{"too large", "application/json", `{"description": "` + strings.Repeat("a", 2048) + `"}`, http.StatusRequestEntityTooLarge, errTooLarge, metrics.OutcomeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newTestRouter(t)

			rec := doRequest(t, router, http.MethodPost, tt.contentType, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, map[string]string{"error": tt.wantError}, decodeMap(t, rec))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(tt.wantOutcome)))
			assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.OutcomeClassified)))
		})
	}
}

func TestTriage_DescriptionNotTrimmed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "application/json", `{"description": "  LAMP out  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Streetlight Outage", decodeMap(t, rec)["category"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CountsUnmatchedRequests(t *testing.T) {
	router, m := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{}`))
	router.ServeHTTP(httptest.NewRecorder(), req)
	doRequest(t, router, http.MethodGet, "", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(metrics.RouteUnmatched, "POST", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(metrics.RouteUnmatched, "GET", "405")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/triage", "GET", "405")))
}

func TestRouter_CountsMatchedRequests(t *testing.T) {
	router, m := newTestRouter(t)

	doRequest(t, router, http.MethodPost, "application/json", `{"description":"road"}`)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/triage", "POST", "200")))
}

func TestRouter_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_KeepsClientRequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/triage", strings.NewReader(`{"description":"road"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRecoverPanic(t *testing.T) {
	h := recoverPanic(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/triage", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{"error": errInternal}, decodeMap(t, rec))
}

func TestOpsRouter(t *testing.T) {
	m := metrics.New()
	router := NewOpsRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeMap(t, rec))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "triage_requests_total")
}
