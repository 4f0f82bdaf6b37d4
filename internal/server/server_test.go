package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muwajjih-ai/muwajjih/internal/config"
	"github.com/muwajjih-ai/muwajjih/internal/engine"
	"github.com/muwajjih-ai/muwajjih/internal/intake"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(cfg *config.Config, history *intake.History) *Server {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return New(cfg, engine.New(nil), history, nil, nil)
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAutoReplyEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	w := postJSON(t, srv, "/v1/auto-reply", map[string]string{"text": "مرحبا"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var out engine.AutoReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, engine.IntentGreeting, out.Intent)
	assert.Equal(t, 0.85, out.Confidence)
	assert.NotEmpty(t, out.Answer)
}

func TestRouteEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	w := postJSON(t, srv, "/v1/route", map[string]string{"text": "أريد دفع الرسوم"})

	require.Equal(t, http.StatusOK, w.Code)

	var out engine.RoutingSuggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, engine.DeptFinance, out.Department)
	assert.NotEmpty(t, out.Reason)
	assert.GreaterOrEqual(t, out.Confidence, 0.5)
	assert.LessOrEqual(t, out.Confidence, 1.0)
}

func TestRouteRejectsBadJSON(t *testing.T) {
	srv := newTestServer(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON body")
}

func TestRouteDebugEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	w := postJSON(t, srv, "/v1/route/debug", map[string]any{
		"text": "أريد دفع الرسوم والفاتورة",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var out engine.DebugResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, engine.DeptFinance, out.Result.Department)
	require.NotEmpty(t, out.Candidates)
	for i := 1; i < len(out.Candidates); i++ {
		assert.GreaterOrEqual(t, out.Candidates[i-1].Score, out.Candidates[i].Score)
	}

	// Empty provenance serializes as [], never null.
	assert.Contains(t, w.Body.String(), `"invalid_regex":[]`)
}

func TestRouteDebugHonorsOptions(t *testing.T) {
	srv := newTestServer(nil, nil)
	w := postJSON(t, srv, "/v1/route/debug", map[string]any{
		"text": "أريد دفع الرسوم",
		"options": map[string]any{
			"ruleInclude": map[string]bool{engine.DeptFinance: false},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var out engine.DebugResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEqual(t, engine.DeptFinance, out.Result.Department)
	for _, c := range out.Candidates {
		assert.NotEqual(t, engine.DeptFinance, c.Department)
	}
}

func TestPeaksEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	w := postJSON(t, srv, "/v1/peaks", map[string]any{
		"timestamps": []string{
			"2026-03-01T10:00:00", "2026-03-02T10:30:00", "2026-03-01T15:00:00",
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var out []engine.PeakPrediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, 10, out[0].Hour)
	assert.Equal(t, engine.LabelPeak, out[0].Label)
}

func TestPeaksFallsBackToHistory(t *testing.T) {
	history := intake.NewHistory(100)
	for i := 0; i < 4; i++ {
		history.Record(time.Date(2026, 3, 1+i, 11, 0, 0, 0, time.Local))
	}

	srv := newTestServer(nil, history)
	w := postJSON(t, srv, "/v1/peaks", map[string]any{"timestamps": []string{}})

	require.Equal(t, http.StatusOK, w.Code)

	var out []engine.PeakPrediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, 11, out[0].Hour)
}

func TestStatusEndpoint(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "file"
	cfg.Audit.Level = "metadata"

	history := intake.NewHistory(10)
	history.Record(time.Now())

	srv := newTestServer(cfg, history)
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Rules        int    `json:"rules"`
		StoreBackend string `json:"store_backend"`
		Intake       struct {
			Recorded int `json:"recorded"`
		} `json:"intake"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, engine.RuleCount(), out.Rules)
	assert.Equal(t, "file", out.StoreBackend)
	assert.Equal(t, 1, out.Intake.Recorded)
}

func TestBearerAuth(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.APIKeys = []string{"secret-key"}
	srv := newTestServer(cfg, nil)

	do := func(auth string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/route",
			bytes.NewReader([]byte(`{"text":"مرحبا"}`)))
		req.Header.Set("Content-Type", "application/json")
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer wrong-key"))
	assert.Equal(t, http.StatusOK, do("Bearer secret-key"))

	// Health stays open regardless of auth configuration.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDEcho(t *testing.T) {
	srv := newTestServer(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, "trace-me-123", w.Header().Get("X-Request-ID"))
}
