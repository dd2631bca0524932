package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, cv.WithLabelValues(labels...).Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	metric, ok := hv.WithLabelValues(labels...).(prometheus.Metric)
	require.True(t, ok)
	require.NoError(t, metric.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecordRequest(t *testing.T) {
	before := counterValue(t, HTTPRequestsTotal, "GET", "/note/{id}", "200")
	beforeCount := histogramCount(t, HTTPRequestDurationSeconds, "GET", "/note/{id}")

	RecordRequest("GET", "/note/{id}", http.StatusOK, 12*time.Millisecond)

	assert.Equal(t, before+1, counterValue(t, HTTPRequestsTotal, "GET", "/note/{id}", "200"))
	assert.Equal(t, beforeCount+1, histogramCount(t, HTTPRequestDurationSeconds, "GET", "/note/{id}"))
}

func TestRecordRequest_UnmatchedRoute(t *testing.T) {
	before := counterValue(t, HTTPRequestsTotal, "GET", "unmatched", "404")
	RecordRequest("GET", "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, counterValue(t, HTTPRequestsTotal, "GET", "unmatched", "404"))
}

func TestRecordAuthEvent(t *testing.T) {
	before := counterValue(t, AuthEventsTotal, "login", OutcomeFailure)
	RecordAuthEvent("login", OutcomeFailure)
	RecordAuthEvent("login", OutcomeFailure)
	assert.Equal(t, before+2, counterValue(t, AuthEventsTotal, "login", OutcomeFailure))
}

func TestObserveStore(t *testing.T) {
	okBefore := histogramCount(t, StoreOperationDurationSeconds, "test_op", "ok")
	errBefore := histogramCount(t, StoreOperationDurationSeconds, "test_op", "error")

	func() (err error) {
		defer ObserveStore("test_op", time.Now(), &err)
		return nil
	}()
	func() (err error) {
		defer ObserveStore("test_op", time.Now(), &err)
		return errors.New("boom")
	}()

	assert.Equal(t, okBefore+1, histogramCount(t, StoreOperationDurationSeconds, "test_op", "ok"))
	assert.Equal(t, errBefore+1, histogramCount(t, StoreOperationDurationSeconds, "test_op", "error"))
}

func TestHandler(t *testing.T) {
	RecordAuthEvent("register", OutcomeSuccess)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "notes_auth_events_total")
	assert.Contains(t, string(body), "go_goroutines")
}
