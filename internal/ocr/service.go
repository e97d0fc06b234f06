// Package ocr provides text detection for workout-log photographs.
//
// Several providers implement the same TextDetector interface:
//   - vision: Google Cloud Vision TEXT_DETECTION (default)
//   - documentai: a Google Document AI OCR processor
//   - openai: an OpenAI vision model asked for a verbatim transcription
//   - tesseract: local Tesseract through gosseract (built with -tags tesseract)
//
// Google credentials are read from the environment:
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string, OR
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file
//
// When neither is set, Application Default Credentials are tried.
//
// Every provider returns an ordered list of strings. The first element is the
// aggregate transcription of the whole image, top-to-bottom and left-to-right
// as estimated by the provider. An empty list means no text was found and is
// not an error.
package ocr

import (
	"context"
	"net/http"
)

const (
	// MaxImageBytes is the largest image accepted for inline processing (20MB).
	MaxImageBytes = 20 * 1024 * 1024
)

// TextDetector extracts text from a single image.
type TextDetector interface {
	// DetectText returns the detected text, aggregate transcription first.
	DetectText(ctx context.Context, image []byte) ([]string, error)

	// Close releases the provider's client resources.
	Close() error
}

// FullText returns the aggregate transcription from a DetectText result.
func FullText(results []string) string {
	if len(results) == 0 {
		return ""
	}
	return results[0]
}

// validateImage applies the size checks shared by all providers.
func validateImage(op string, image []byte) error {
	if len(image) == 0 {
		return NewOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageBytes {
		return NewOCRError(op, ErrImageTooLarge, "")
	}
	return nil
}

// mimeType sniffs the image content type, defaulting to JPEG for unknown data.
func mimeType(image []byte) string {
	ct := http.DetectContentType(image)
	switch ct {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp", "image/tiff":
		return ct
	default:
		return "image/jpeg"
	}
}
