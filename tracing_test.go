package apifetch

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/ambiyansyah-risyal/apifetch/mock"
)

func newTracedClient(t *testing.T, opts ...Option) (*Client, *mock.Server, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	opts = append([]Option{WithTracerProvider(tp), WithPropagator(propagation.TraceContext{})}, opts...)
	client, srv := newMockClient(t, opts...)
	return client, srv, exporter
}

func spanAttrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestTracingSuccessSpan(t *testing.T) {
	client, srv, exporter := newTracedClient(t)

	var traceparent string
	srv.Get("/users/{id}", func(r *mock.Request) (*http.Response, error) {
		traceparent = r.Header.Get("traceparent")
		return mock.JSON(http.StatusOK, map[string]any{"id": 3})(r)
	})

	_, err := client.Get(context.Background(), "/users/{id}", WithPathParam("id", 3))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "GET /users/{id}", span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assert.Equal(t, codes.Ok, span.Status.Code)

	attrs := spanAttrs(span)
	assert.Equal(t, "GET", attrs["http.request.method"].AsString())
	assert.Equal(t, "/users/{id}", attrs["url.template"].AsString())
	assert.Equal(t, testBaseURL+"/users/3", attrs["url.full"].AsString())
	assert.Equal(t, "strict-throw", attrs["apifetch.mode"].AsString())
	assert.Equal(t, "success", attrs["apifetch.outcome"].AsString())
	assert.Equal(t, int64(200), attrs["http.response.status_code"].AsInt64())

	require.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, span.SpanContext.TraceID().String())
}

func TestTracingHTTPErrorOutcome(t *testing.T) {
	client, srv, exporter := newTracedClient(t, WithMode(ModeExhaustive))
	srv.Get("/missing", mock.Status(http.StatusNotFound))

	out, err := client.Get(context.Background(), "/missing")
	require.NoError(t, err)
	assert.Equal(t, OutcomeHTTPError, out.Kind)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "http_error", attrs["apifetch.outcome"].AsString())
	assert.Equal(t, int64(404), attrs["http.response.status_code"].AsInt64())
	assert.NotEmpty(t, spans[0].Events, "error should be recorded as an event")
}

func TestTracingReturnedError(t *testing.T) {
	client, srv, exporter := newTracedClient(t)
	srv.Post("/orders", mock.Status(http.StatusBadRequest))

	_, err := client.Post(context.Background(), "/orders", map[string]any{"qty": 1})
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, int64(400), spanAttrs(spans[0])["http.response.status_code"].AsInt64())
}

func TestTracingTransportError(t *testing.T) {
	client, srv, exporter := newTracedClient(t, WithMode(ModeExhaustive))
	srv.Get("/down", mock.NetworkError())

	out, err := client.Get(context.Background(), "/down")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransportError, out.Kind)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "transport_error", attrs["apifetch.outcome"].AsString())
	_, hasStatus := attrs["http.response.status_code"]
	assert.False(t, hasStatus)
}

func TestTracingChildOfCallerSpan(t *testing.T) {
	client, srv, exporter := newTracedClient(t)
	srv.Get("/ping", mock.NoContent())

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	_, err := client.Get(ctx, "/ping")
	require.NoError(t, err)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /ping", spans[0].Name)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
}
