package openapi

// ErrorCode categorizes loader errors.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is returned by Load and LoadData.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL, empty for in-memory data
	Cause    error
}

func (e *SpecError) Error() string {
	if e.Location == "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message + " (" + e.Location + ")"
}

func (e *SpecError) Unwrap() error { return e.Cause }
