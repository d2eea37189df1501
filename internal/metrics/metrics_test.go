package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ExposesObservations(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest("gpt-4", ModeSync, http.StatusOK)
	c.ObserveRequest("gpt-4", ModeStream, http.StatusOK)
	c.ObserveUpstreamError(http.StatusTooManyRequests)
	c.ObserveUpstreamDuration("meta/llama-3.1-70b-instruct", ModeSync, 120*time.Millisecond)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `nimproxy_requests_total{mode="sync",model="gpt-4",status="200"} 1`)
	assert.Contains(t, body, `nimproxy_requests_total{mode="stream",model="gpt-4",status="200"} 1`)
	assert.Contains(t, body, `nimproxy_upstream_errors_total{status="429"} 1`)
	assert.Contains(t, body, `nimproxy_upstream_duration_seconds_count{mode="sync",model="meta/llama-3.1-70b-instruct"} 1`)
}
