package apifetch

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ambiyansyah-risyal/apifetch"

// callSpan wraps the client span of one call.
type callSpan struct {
	span trace.Span
}

func (c *Client) startSpan(ctx context.Context, method, pathTemplate string, mode Mode) (context.Context, *callSpan) {
	provider := c.tracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	ctx, span := provider.Tracer(tracerName, trace.WithInstrumentationVersion(Version)).Start(ctx, method+" "+pathTemplate,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.template", pathTemplate),
			attribute.String("apifetch.mode", string(mode)),
		),
	)
	return ctx, &callSpan{span: span}
}

func (s *callSpan) setURL(url string) {
	s.span.SetAttributes(attribute.String("url.full", url))
}

// inject writes the span context into the outgoing request headers.
func (c *Client) inject(ctx context.Context, req *http.Request) {
	propagator := c.propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// end records how the call settled and finishes the span. err is the error
// returned to the caller, if any.
func (s *callSpan) end(outcome *Outcome, err error) {
	defer s.span.End()

	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		if httpErr, ok := AsHTTPError(err); ok {
			s.span.SetAttributes(attribute.Int("http.response.status_code", httpErr.StatusCode))
		}
		return
	}

	s.span.SetAttributes(attribute.String("apifetch.outcome", outcome.Kind.String()))
	if outcome.Status != nil {
		s.span.SetAttributes(attribute.Int("http.response.status_code", *outcome.Status))
	}
	if outcome.Kind != OutcomeSuccess && outcome.Error != nil {
		s.span.RecordError(outcome.Error)
		s.span.SetStatus(codes.Error, outcome.Error.Error())
		return
	}
	s.span.SetStatus(codes.Ok, "")
}
