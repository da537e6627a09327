// Package apifetch is an HTTP client for APIs described with OpenAPI. It
// bridges OpenAPI parameter and response conventions to net/http:
//
//   - Path templates such as /users/{id} are resolved from a parameter map
//   - Query parameters are serialized with the OpenAPI styles (form,
//     spaceDelimited, pipeDelimited, deepObject), with or without explode
//   - Every call settles into an Outcome whose shape depends on the Mode
//   - Middleware chain for cross-cutting concerns (auth, logging, recovery)
//   - Prometheus metrics, OpenTelemetry spans and opt-in debug logging
//
// Modes decide which failures are returned as errors:
//
//	ModeStrictThrow  success -> Outcome; HTTP and transport errors -> error
//	ModeErrorField   success and HTTP errors -> Outcome; transport errors -> error
//	ModeExhaustive   everything -> Outcome; the error is always nil
//
// Typical usage:
//
//	client := apifetch.New(
//	    apifetch.WithBaseURL("https://api.example.com"),
//	    apifetch.WithMode(apifetch.ModeErrorField),
//	)
//	out, err := client.Get(ctx, "/users/{id}/posts",
//	    apifetch.WithPathParam("id", 42),
//	    apifetch.WithQuery(map[string]any{"tags": []string{"go", "http"}}),
//	)
//	if err != nil {
//	    return err // transport failure
//	}
//	if out.Kind == apifetch.OutcomeHTTPError {
//	    log.Printf("status %d: %v", out.StatusCode(), out.Data)
//	}
//
// Per-parameter styles can be taken from an OpenAPI document with the
// openapi subpackage, and the mock subpackage provides an in-process
// transport for tests.
package apifetch
