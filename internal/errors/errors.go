package errors

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeDecode covers unreadable, corrupt or zero-byte image
	// files; the affected image is skipped and the run continues.
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeDevice covers adb list/pull/property failures; the run
	// aborts unless at least one image was already obtained.
	ErrorTypeDevice ErrorType = "device"
	// ErrorTypeConfig covers malformed configuration; fatal at startup.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeProcessing covers report assembly and rendering failures.
	ErrorTypeProcessing ErrorType = "processing"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewDecodeError creates a new decode error
func NewDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDecode,
		Message: message,
		Cause:   cause,
	}
}

// NewDeviceError creates a new device error
func NewDeviceError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDevice,
		Message: message,
		Fatal:   true,
		Cause:   cause,
	}
}

// NewConfigError creates a new config error
func NewConfigError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Fatal:   true,
		Cause:   cause,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeProcessing,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// IsFatal reports whether the error should abort the run.
func IsFatal(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Fatal
	}
	return false
}
