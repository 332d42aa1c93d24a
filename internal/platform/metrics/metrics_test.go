package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_counters(t *testing.T) {
	m := New()
	m.IncVerdict("accept")
	m.IncVerdict("accept")
	m.IncVerdict("reject")
	m.IncSessionErrors("playback_disabled")
	m.SetActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.verdicts.WithLabelValues("accept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdicts.WithLabelValues("reject")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playbackErrors.WithLabelValues("playback_disabled")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
}

func TestMetrics_nilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRequests()
		m.IncVerdict("accept")
		m.SetActiveSessions(1)
	})
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal))
}

func TestHandler_updatesGaugesBeforeScrape(t *testing.T) {
	m := New()
	called := false
	rec := httptest.NewRecorder()
	m.Handler(func() { called = true; m.SetActiveSessions(7) }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.True(t, called)
	assert.Contains(t, rec.Body.String(), "popup_active_sessions 7")
}
