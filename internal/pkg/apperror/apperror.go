package apperror

// AppError is a business-rule failure that maps to an HTTP status code.
// Code is a stable machine-readable identifier (e.g. "TIME_SLOT_UNAVAILABLE")
// that clients can branch on without parsing the message.
type AppError struct {
	Status  int    // HTTP status code (e.g., 400, 404, 409)
	Code    string // Stable error code for API clients
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status, code and message.
func New(status int, code, message string) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
