package apifetch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambiyansyah-risyal/apifetch/mock"
)

func TestMetricsCollectorRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	if collector.GetRegistry() != registry {
		t.Error("Expected registry to be exposed")
	}

	collector.RecordRequestStart("GET", "/users/{id}")
	if got := testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", "/users/{id}")); got != 1 {
		t.Errorf("Expected 1 request in flight, got %v", got)
	}
	collector.RecordRequestEnd("GET", "/users/{id}")
	if got := testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", "/users/{id}")); got != 0 {
		t.Errorf("Expected 0 requests in flight, got %v", got)
	}

	collector.RecordRequest("GET", "/users/{id}", 200, 10*time.Millisecond)
	collector.RecordOutcome(ModeErrorField, OutcomeHTTPError)
	collector.RecordError(ErrorTypeHTTP, "GET", "/users/{id}")

	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", "/users/{id}")); got != 1 {
		t.Errorf("Expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("error-field", "http_error")); got != 1 {
		t.Errorf("Expected 1 outcome, got %v", got)
	}
	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues(ErrorTypeHTTP, "GET", "/users/{id}")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestMetricsCollectorNilSafe(t *testing.T) {
	var collector *MetricsCollector

	collector.RecordRequest("GET", "/", 200, time.Millisecond)
	collector.RecordRequestStart("GET", "/")
	collector.RecordRequestEnd("GET", "/")
	collector.RecordOutcome(ModeStrictThrow, OutcomeSuccess)
	collector.RecordError(ErrorTypeNetwork, "GET", "/")

	if collector.GetRegistry() != nil {
		t.Error("Expected nil registry for nil collector")
	}
}

func TestClientRecordsMetrics(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client, srv := newMockClient(t, WithMetricsCollector(collector), WithMode(ModeErrorField))

	srv.Get("/users/{id}", mock.JSON(http.StatusOK, map[string]any{"id": 1}), mock.Once())
	srv.Get("/users/{id}", mock.JSON(http.StatusNotFound, map[string]any{"message": "missing"}), mock.Once())
	srv.Get("/users/{id}", mock.NetworkError())

	ctx := context.Background()
	params := WithPathParam("id", 1)

	out, err := client.Get(ctx, "/users/{id}", params)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out.Kind)

	out, err = client.Get(ctx, "/users/{id}", params)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHTTPError, out.Kind)

	_, err = client.Get(ctx, "/users/{id}", params)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", "/users/{id}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "404", "/users/{id}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "0", "/users/{id}")))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("error-field", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("error-field", "http_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("error-field", "transport_error")))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.errorsTotal.WithLabelValues(ErrorTypeHTTP, "GET", "/users/{id}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.errorsTotal.WithLabelValues(ErrorTypeNetwork, "GET", "/users/{id}")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", "/users/{id}")))
}

func TestClientRecordsStrictHTTPErrorStatus(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client, srv := newMockClient(t, WithMetricsCollector(collector))

	srv.Delete("/users/{id}", mock.Status(http.StatusConflict))

	_, err := client.Delete(context.Background(), "/users/{id}", WithPathParam("id", "a"))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("DELETE", "409", "/users/{id}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outcomesTotal.WithLabelValues("strict-throw", "http_error")))
}

func TestMetricsCollectorSharedAcrossClients(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	first, srv := newMockClient(t, WithMetricsCollector(collector))
	second := New(WithBaseURL(testBaseURL), WithHTTPClient(srv.Client()), WithMetricsCollector(collector))
	srv.Get("/ping", mock.Status(http.StatusNoContent))

	for _, client := range []*Client{first, second} {
		_, err := client.Get(context.Background(), "/ping")
		require.NoError(t, err)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "204", "/ping")))

	assert.Panics(t, func() {
		NewMetricsCollectorWithRegistry(registry)
	}, "registering the collectors twice on one registry")
}
