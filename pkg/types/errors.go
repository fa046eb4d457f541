package types

// GatewayError is the single normalized failure value returned by the
// remote access gateway. Transport failures and non-2xx responses are both
// reduced to one human-readable message at the gateway boundary; nothing
// above it distinguishes error kinds.
type GatewayError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewGatewayError creates a normalized gateway error
func NewGatewayError(message string, statusCode int, cause error) *GatewayError {
	if message == "" {
		message = "Network error"
	}
	return &GatewayError{
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}
