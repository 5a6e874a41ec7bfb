package contact

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"contact-gateway/contact/application"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const prodOrigin = "https://portfolio.example.com"

func testPolicy() application.OriginPolicy {
	return application.OriginPolicy{
		ProductionOrigin: prodOrigin,
		ProductionDomain: "example.com",
		PreviewDomain:    "pages.dev",
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := CORS(testPolicy())(next)

	cases := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"https://abc123.pages.dev", "https://abc123.pages.dev"},
		{"https://evil.example", prodOrigin},
		{"", prodOrigin},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodOptions, "http://example/contact", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, tc.want, w.Header().Get("Access-Control-Allow-Origin"), "origin %q", tc.origin)
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
		assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	}
	assert.False(t, called, "preflight não chega no handler")
}

func TestCORS_SetsHeadersOnPassThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest, "x")
	})
	h := CORS(testPolicy())(next)

	r := httptest.NewRequest(http.MethodPost, "http://example/contact", nil)
	r.Header.Set("Origin", "https://www.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "https://www.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRecover_ConvertsPanicTo500JSON(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	h := Recover(zap.New(core))(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/contact", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to save message. Please try again later."}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic in handler", logs.All()[0].Message)
}

func TestRequestLogger_LogsStatusAndClient(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	h := RequestLogger(zap.New(core), ClientIP("CF-Connecting-IP", false))(next)

	r := httptest.NewRequest(http.MethodPost, "http://example/contact", nil)
	r.Header.Set("CF-Connecting-IP", "9.9.9.9")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, http.StatusTooManyRequests, fields["status"])
	assert.Equal(t, "9.9.9.9", fields["client"])
	assert.Equal(t, "/contact", fields["path"])
}

func TestRoutes_OnlyContactPath(t *testing.T) {
	h := Routes("/contact", testPolicy(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/other", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "http://example/contact", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
