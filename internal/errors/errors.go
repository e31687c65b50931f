package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a wingman error code.
type ErrorCode string

const (
	ErrWindowNotFound    ErrorCode = "WINDOW_NOT_FOUND"
	ErrCaptureFailed     ErrorCode = "CAPTURE_FAILED"
	ErrNoText            ErrorCode = "NO_TEXT"
	ErrOCRFailed         ErrorCode = "OCR_FAILED"
	ErrGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrPersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrInjectionFailed   ErrorCode = "INJECTION_FAILED"
	ErrThrottled         ErrorCode = "THROTTLED"
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrUnsupported       ErrorCode = "UNSUPPORTED"
	ErrInternal          ErrorCode = "INTERNAL"
)

// WingmanError is a structured error with a code, message, and optional details.
type WingmanError struct {
	Code    ErrorCode      `yaml:"code"              json:"code"`
	Message string         `yaml:"message"           json:"message"`
	Details map[string]any `yaml:"details,omitempty" json:"details,omitempty"`
	Err     error          `yaml:"-"                 json:"-"`
}

// Error implements the error interface.
func (e *WingmanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *WingmanError) Unwrap() error {
	return e.Err
}

// NewWindowNotFound is returned when no usable target window can be resolved.
func NewWindowNotFound(hint string) *WingmanError {
	return &WingmanError{
		Code:    ErrWindowNotFound,
		Message: "target window not found; run `wingman choose-window` or open the phone window",
		Details: map[string]any{"hint": hint},
	}
}

// NewCaptureFailed is returned when every capture strategy failed.
func NewCaptureFailed(err error) *WingmanError {
	return &WingmanError{
		Code:    ErrCaptureFailed,
		Message: fmt.Sprintf("could not capture a usable image: %v", err),
		Err:     err,
	}
}

// NewNoText is returned when extraction produced nothing usable.
func NewNoText(what string) *WingmanError {
	return &WingmanError{
		Code:    ErrNoText,
		Message: fmt.Sprintf("no %s text found (make sure it is visible)", what),
		Details: map[string]any{"region": what},
	}
}

// NewOCRFailed is returned when text recognition failed on a captured image.
func NewOCRFailed(err error) *WingmanError {
	return &WingmanError{
		Code:    ErrOCRFailed,
		Message: fmt.Sprintf("text recognition failed: %v", err),
		Err:     err,
	}
}

// NewGenerationFailed is returned when the model endpoint could not produce a reply.
func NewGenerationFailed(err error) *WingmanError {
	return &WingmanError{
		Code:    ErrGenerationFailed,
		Message: fmt.Sprintf("generation failed: %v", err),
		Err:     err,
	}
}

// NewPersistenceFailed wraps a database or artifact write failure.
func NewPersistenceFailed(what string, err error) *WingmanError {
	return &WingmanError{
		Code:    ErrPersistenceFailed,
		Message: fmt.Sprintf("saving %s failed: %v", what, err),
		Details: map[string]any{"what": what},
		Err:     err,
	}
}

// NewInjectionFailed is returned when focusing or typing into the window failed.
func NewInjectionFailed(err error) *WingmanError {
	return &WingmanError{
		Code:    ErrInjectionFailed,
		Message: fmt.Sprintf("input injection failed: %v", err),
		Err:     err,
	}
}

// NewThrottled is returned when a send arrives inside the throttle window.
func NewThrottled(remainingSec int) *WingmanError {
	return &WingmanError{
		Code:    ErrThrottled,
		Message: fmt.Sprintf("Throttled. Try again in %ds.", remainingSec),
		Details: map[string]any{"retry_after_seconds": remainingSec},
	}
}

// NewInvalidRequest is returned for bad user input.
func NewInvalidRequest(msg string) *WingmanError {
	return &WingmanError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewUnsupported is returned when the current platform lacks a capability.
func NewUnsupported(what string) *WingmanError {
	return &WingmanError{
		Code:    ErrUnsupported,
		Message: fmt.Sprintf("%s is not available on this platform", what),
	}
}

// NewInternal wraps an unexpected error.
func NewInternal(err error) *WingmanError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &WingmanError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether err, or any error it wraps, is a WingmanError with the given code.
func Is(err error, code ErrorCode) bool {
	var wErr *WingmanError
	if stderrors.As(err, &wErr) {
		return wErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first WingmanError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var wErr *WingmanError
	if stderrors.As(err, &wErr) {
		return wErr.Code
	}
	return ""
}
