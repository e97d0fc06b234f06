package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrImageTooLarge is returned when the image exceeds MaxImageBytes.
	ErrImageTooLarge = errors.New("image size exceeds the maximum limit (20MB)")

	// ErrEmptyImage is returned when no image bytes were supplied.
	ErrEmptyImage = errors.New("image is empty")

	// ErrOCRFailed is returned when the provider fails to process the image.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when neither GOOGLE_APPLICATION_CREDENTIALS
	// nor GOOGLE_CREDENTIALS is configured and no default credentials exist.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrProviderUnavailable is returned when a provider was not compiled into this build.
	ErrProviderUnavailable = errors.New("OCR provider not available in this build")

	// ErrUnknownProvider is returned for an unrecognized provider name.
	ErrUnknownProvider = errors.New("unknown OCR provider")
)

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "DetectText", "NewGoogleVisionService").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return NewOCRError(op, err, details)
}

// callFailed reports a failed provider call. The cause stays in the chain next
// to ErrOCRFailed so callers can still match context.DeadlineExceeded.
func callFailed(op string, err error, details string) error {
	return NewOCRError(op, fmt.Errorf("%w: %w", ErrOCRFailed, err), details)
}
