//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
	"liftsheet/internal/logger"
)

// TesseractService implements TextDetector with a local Tesseract engine.
// Language data for the configured language must be installed.
type TesseractService struct {
	language string
	log      zerolog.Logger
}

// NewTesseractService creates a Tesseract-backed detector.
func NewTesseractService(language string) (*TesseractService, error) {
	if language == "" {
		language = "eng"
	}
	return &TesseractService{
		language: language,
		log:      logger.WithComponent("ocr-tesseract"),
	}, nil
}

// DetectText runs Tesseract on the image bytes. A fresh client is created per
// call because gosseract clients are not safe for concurrent use.
func (t *TesseractService) DetectText(ctx context.Context, image []byte) ([]string, error) {
	const op = "DetectText"
	startTime := time.Now()

	if err := validateImage(op, image); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapOCRError(op, err, "canceled before recognition")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to set language %q", t.language))
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, WrapOCRError(op, err, "failed to set image")
	}

	text, err := client.Text()
	if err != nil {
		return nil, callFailed(op, err, "Tesseract failed")
	}

	t.log.Debug().
		Str("language", t.language).
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Tesseract recognition completed")

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// Close is a no-op; clients are released after each call.
func (t *TesseractService) Close() error {
	return nil
}
