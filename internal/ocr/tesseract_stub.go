//go:build !tesseract

package ocr

import "context"

// TesseractService is unavailable unless built with the tesseract tag.
type TesseractService struct{}

// NewTesseractService always fails in builds without the tesseract tag.
func NewTesseractService(language string) (*TesseractService, error) {
	return nil, NewOCRError("NewTesseractService", ErrProviderUnavailable, "rebuild with -tags tesseract")
}

// DetectText always fails in builds without the tesseract tag.
func (t *TesseractService) DetectText(ctx context.Context, image []byte) ([]string, error) {
	return nil, NewOCRError("DetectText", ErrProviderUnavailable, "rebuild with -tags tesseract")
}

// Close is a no-op.
func (t *TesseractService) Close() error {
	return nil
}
