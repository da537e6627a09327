package apifetch

import (
	"github.com/google/uuid"
)

// DebugConfig gates debug logging. Nothing is logged unless Enabled is set
// and a Logger is configured.
type DebugConfig struct {
	Enabled bool
	// LogRequests logs the method, resolved URL and request ID of each call.
	LogRequests bool
	// LogOutcomes logs the settled outcome kind, status and duration.
	LogOutcomes bool
	// LogQuery logs the serialized query string separately.
	LogQuery bool
	// RequestIDGen produces the ID attached to logs, errors and the
	// X-Request-ID header.
	RequestIDGen func() string
}

// DefaultDebugConfig returns a disabled configuration with every category
// switched on, so WithDebug alone is enough to see output.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogOutcomes:  true,
		LogQuery:     false,
		RequestIDGen: generateRequestID,
	}
}

func generateRequestID() string {
	return "req_" + uuid.NewString()
}
