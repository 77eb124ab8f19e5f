package apperror

// AppError is an error that carries the HTTP status code it should be
// reported with. Domain packages declare their sentinel errors as AppErrors
// so handlers can map them to responses without per-error switch blocks.
type AppError struct {
	Code    int    // HTTP status code (e.g., 400, 404, 409)
	Message string // User-facing message
	Err     error  // Underlying cause, not exposed to the client
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches a status code and message to an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
